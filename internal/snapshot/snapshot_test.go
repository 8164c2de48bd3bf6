package snapshot

import (
	"compress/gzip"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	apperrors "github.com/smith-and-web/kindling-sub000/core/errors"
	"github.com/smith-and-web/kindling-sub000/core/model"
	"github.com/smith-and-web/kindling-sub000/internal/paths"
	"github.com/smith-and-web/kindling-sub000/internal/store"
)

func newEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()
	t.Setenv(paths.EnvDataDir, t.TempDir())
	st, err := store.Open(filepath.Join(t.TempDir(), "kindling.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return New(st), st
}

func seedProject(t *testing.T, st *store.Store) *model.ParsedBundle {
	t.Helper()
	project := model.NewProject("Harbor Lights", model.SourcePlottr)
	ch := model.Chapter{ID: uuid.New(), ProjectID: project.ID, Title: "One", Position: 0}
	sc := model.NewScene(ch.ID, "Opening", 0)
	sc.Prose = "three words here"
	bt := model.Beat{ID: uuid.New(), SceneID: sc.ID, Content: "note", Prose: "and two", Position: 0}
	char := model.Character{
		ID: uuid.New(), ProjectID: project.ID, Name: "Mara",
		Attributes: map[string]string{"age": "34"},
	}
	b := &model.ParsedBundle{
		Project:    project,
		Chapters:   []model.Chapter{ch},
		Scenes:     []model.Scene{sc},
		Beats:      []model.Beat{bt},
		Characters: []model.Character{char},
		SceneCharacterRefs: []model.SceneCharacterRef{
			{SceneID: sc.ID, CharacterID: char.ID},
		},
	}
	if err := st.InsertBundle(b); err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return b
}

func TestCaptureWritesArchiveAndMetadata(t *testing.T) {
	e, st := newEngine(t)
	b := seedProject(t, st)

	meta, err := e.Capture(b.Project.ID, "first draft", "before edits", model.TriggerManual)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}

	if !strings.HasSuffix(meta.FilePath, "_manual.json.gz") {
		t.Errorf("archive name = %q, want trigger suffix", meta.FilePath)
	}
	if meta.ChapterCount != 1 || meta.SceneCount != 1 || meta.BeatCount != 1 {
		t.Errorf("counts = %d/%d/%d", meta.ChapterCount, meta.SceneCount, meta.BeatCount)
	}
	// "three words here" + "and two".
	if meta.WordCount != 5 {
		t.Errorf("word count = %d, want 5", meta.WordCount)
	}
	if meta.Checksum == "" || meta.SchemaVersion != model.SnapshotSchemaVersion {
		t.Errorf("metadata = %+v", meta)
	}

	// The file is a gzip of the expected JSON document.
	f, err := os.Open(meta.FilePath)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer f.Close()
	zr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip: %v", err)
	}
	raw, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if int64(len(raw)) != meta.UncompressedSize {
		t.Errorf("uncompressed size = %d, want %d", meta.UncompressedSize, len(raw))
	}
	var data model.SnapshotData
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if data.Version != 1 || data.Project.Name != "Harbor Lights" {
		t.Errorf("archive = version %d, project %q", data.Version, data.Project.Name)
	}
	if len(data.SceneCharacterRefs) != 1 {
		t.Errorf("archive lost joins: %+v", data.SceneCharacterRefs)
	}

	listed, err := e.List(b.Project.ID)
	if err != nil || len(listed) != 1 {
		t.Errorf("List = %v, %v", listed, err)
	}
}

func TestRestoreReplace(t *testing.T) {
	e, st := newEngine(t)
	b := seedProject(t, st)

	meta, err := e.Capture(b.Project.ID, "before", "", model.TriggerManual)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if err := st.UpdateSceneProse(b.Scenes[0].ID, "mutated prose"); err != nil {
		t.Fatalf("mutate: %v", err)
	}

	gotID, err := e.Restore(meta.ID, RestoreReplace, "")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if gotID != b.Project.ID {
		t.Errorf("replace restore should keep the project id, got %s", gotID)
	}

	state, err := st.LoadProjectState(b.Project.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if state.Scenes[0].Prose != "three words here" {
		t.Errorf("prose after restore = %q", state.Scenes[0].Prose)
	}
	if state.Scenes[0].ID != b.Scenes[0].ID {
		t.Error("replace restore must keep original identifiers")
	}
}

func TestRestoreCreateNew(t *testing.T) {
	e, st := newEngine(t)
	b := seedProject(t, st)

	meta, err := e.Capture(b.Project.ID, "fork point", "", model.TriggerManual)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}

	newID, err := e.Restore(meta.ID, RestoreCreateNew, "")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if newID == b.Project.ID {
		t.Fatal("create-new restore must mint a fresh project id")
	}

	clone, err := st.LoadProjectState(newID)
	if err != nil {
		t.Fatalf("load clone: %v", err)
	}
	if clone.Project.Name != "Harbor Lights (Copy)" {
		t.Errorf("clone name = %q", clone.Project.Name)
	}
	if len(clone.Chapters) != 1 || len(clone.Scenes) != 1 || len(clone.Beats) != 1 {
		t.Errorf("clone shape = %d/%d/%d", len(clone.Chapters), len(clone.Scenes), len(clone.Beats))
	}
	if clone.Chapters[0].ID == b.Chapters[0].ID || clone.Scenes[0].ID == b.Scenes[0].ID {
		t.Error("clone identifiers must be disjoint from the source")
	}
	if clone.Scenes[0].ChapterID != clone.Chapters[0].ID {
		t.Error("clone FK fields must be rewritten through the identity map")
	}
	if len(clone.SceneCharacterRefs) != 1 ||
		clone.SceneCharacterRefs[0].CharacterID != clone.Characters[0].ID {
		t.Errorf("clone joins not remapped: %+v", clone.SceneCharacterRefs)
	}
	if clone.Characters[0].Attributes["age"] != "34" {
		t.Errorf("clone lost attributes: %+v", clone.Characters[0])
	}

	projects, err := st.ListProjects()
	if err != nil || len(projects) != 2 {
		t.Errorf("project count after clone = %d, %v", len(projects), err)
	}
}

func TestPreview(t *testing.T) {
	e, st := newEngine(t)
	b := seedProject(t, st)
	meta, err := e.Capture(b.Project.ID, "peek", "", model.TriggerAuto)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}

	got, name, err := e.Preview(meta.ID)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if name != "Harbor Lights" || got.ID != meta.ID {
		t.Errorf("preview = %q, %+v", name, got)
	}
}

func TestDelete(t *testing.T) {
	e, st := newEngine(t)
	b := seedProject(t, st)
	meta, err := e.Capture(b.Project.ID, "doomed", "", model.TriggerManual)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}

	if err := e.Delete(meta.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(meta.FilePath); !os.IsNotExist(err) {
		t.Error("archive file should be gone")
	}
	if _, err := e.List(b.Project.ID); err != nil {
		t.Fatalf("list: %v", err)
	}

	// Deleting a snapshot whose file already vanished only drops metadata.
	meta2, err := e.Capture(b.Project.ID, "gone", "", model.TriggerManual)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	os.Remove(meta2.FilePath)
	if err := e.Delete(meta2.ID); err != nil {
		t.Errorf("delete with missing file should succeed: %v", err)
	}
}

func TestRestoreCorruptArchive(t *testing.T) {
	e, st := newEngine(t)
	b := seedProject(t, st)
	meta, err := e.Capture(b.Project.ID, "bad", "", model.TriggerManual)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}

	// Truncate the archive so the gzip stream breaks.
	if err := os.WriteFile(meta.FilePath, []byte("not gzip"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err = e.Restore(meta.ID, RestoreReplace, "")
	if !apperrors.Is(err, apperrors.ErrCorrupt) {
		t.Errorf("broken archive should be a corrupt error, got %v", err)
	}
}
