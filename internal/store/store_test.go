package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/smith-and-web/kindling-sub000/core/errors"
	"github.com/smith-and-web/kindling-sub000/core/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "kindling.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// sampleBundle is a small but fully populated import result: two chapters,
// two scenes, beats, one of each reference entity, and scene joins.
func sampleBundle() *model.ParsedBundle {
	project := model.NewProject("Test Novel", model.SourcePlottr)
	project.PenName = "A. Writer"

	ch1 := model.Chapter{ID: uuid.New(), ProjectID: project.ID, Title: "Chapter One", Position: 0}
	ch2 := model.Chapter{ID: uuid.New(), ProjectID: project.ID, Title: "Chapter Two", Position: 1}

	sc1 := model.NewScene(ch1.ID, "Opening", 0)
	sc1.Synopsis = "Where it begins."
	sc1.Prose = "<p>It was a dark night.</p>"
	sc2 := model.NewScene(ch2.ID, "Turn", 0)

	b1 := model.Beat{ID: uuid.New(), SceneID: sc1.ID, Content: "Arrival", Prose: "<p>She arrived.</p>", Position: 0}
	b2 := model.Beat{ID: uuid.New(), SceneID: sc1.ID, Content: "Departure", Position: 1}

	char := model.Character{
		ID: uuid.New(), ProjectID: project.ID, Name: "Mara",
		Description: "Protagonist",
		Attributes:  map[string]string{"age": "34", "goal": "escape"},
	}
	loc := model.Location{ID: uuid.New(), ProjectID: project.ID, Name: "Harbor"}
	item := model.ReferenceItem{
		ID: uuid.New(), ProjectID: project.ID,
		ReferenceType: model.ReferenceTypeItem, Name: "Brass Key",
	}

	return &model.ParsedBundle{
		Project:        project,
		Chapters:       []model.Chapter{ch1, ch2},
		Scenes:         []model.Scene{sc1, sc2},
		Beats:          []model.Beat{b1, b2},
		Characters:     []model.Character{char},
		Locations:      []model.Location{loc},
		ReferenceItems: []model.ReferenceItem{item},
		SceneCharacterRefs: []model.SceneCharacterRef{
			{SceneID: sc1.ID, CharacterID: char.ID},
		},
		SceneLocationRefs: []model.SceneLocationRef{
			{SceneID: sc2.ID, LocationID: loc.ID},
		},
	}
}

func TestBootstrapIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kindling.db")
	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second open should tolerate existing schema: %v", err)
	}
	s2.Close()
}

func TestBundleRoundtrip(t *testing.T) {
	s := newTestStore(t)
	b := sampleBundle()
	if err := s.InsertBundle(b); err != nil {
		t.Fatalf("insert bundle: %v", err)
	}

	data, err := s.LoadProjectState(b.Project.ID)
	if err != nil {
		t.Fatalf("load project state: %v", err)
	}

	if data.Project.Name != "Test Novel" || data.Project.PenName != "A. Writer" {
		t.Errorf("project fields lost: %+v", data.Project)
	}
	if len(data.Chapters) != 2 || len(data.Scenes) != 2 || len(data.Beats) != 2 {
		t.Fatalf("counts = %d chapters, %d scenes, %d beats; want 2, 2, 2",
			len(data.Chapters), len(data.Scenes), len(data.Beats))
	}
	if data.Chapters[0].Title != "Chapter One" || data.Chapters[1].Title != "Chapter Two" {
		t.Errorf("chapters out of position order: %q, %q", data.Chapters[0].Title, data.Chapters[1].Title)
	}
	if data.Beats[0].Content != "Arrival" || data.Beats[1].Content != "Departure" {
		t.Errorf("beats out of position order: %q, %q", data.Beats[0].Content, data.Beats[1].Content)
	}
	if len(data.Characters) != 1 {
		t.Fatalf("got %d characters, want 1", len(data.Characters))
	}
	attrs := data.Characters[0].Attributes
	if attrs["age"] != "34" || attrs["goal"] != "escape" {
		t.Errorf("attribute map lost: %v", attrs)
	}
	if len(data.SceneCharacterRefs) != 1 || data.SceneCharacterRefs[0].CharacterID != b.Characters[0].ID {
		t.Errorf("scene character join lost: %v", data.SceneCharacterRefs)
	}
	if len(data.SceneLocationRefs) != 1 {
		t.Errorf("scene location join lost: %v", data.SceneLocationRefs)
	}
}

func TestImportRollsBackOnFailure(t *testing.T) {
	s := newTestStore(t)
	b := sampleBundle()
	// Point a scene at a chapter that is not in the bundle so the FK fails
	// partway through the transaction.
	b.Scenes[1].ChapterID = uuid.New()

	if err := s.InsertBundle(b); err == nil {
		t.Fatal("insert with dangling chapter id should fail")
	}

	projects, err := s.ListProjects()
	if err != nil {
		t.Fatalf("list projects: %v", err)
	}
	if len(projects) != 0 {
		t.Errorf("failed import left %d project rows behind", len(projects))
	}
}

func TestDeleteProjectCascades(t *testing.T) {
	s := newTestStore(t)
	b := sampleBundle()
	if err := s.InsertBundle(b); err != nil {
		t.Fatalf("insert bundle: %v", err)
	}
	meta := model.SnapshotMetadata{
		ID: uuid.New(), ProjectID: b.Project.ID, Name: "before delete",
		Trigger: model.TriggerManual, CreatedAt: time.Now(), FilePath: "/tmp/x.json.gz",
		SchemaVersion: model.SnapshotSchemaVersion,
	}
	if err := s.InsertSnapshot(meta); err != nil {
		t.Fatalf("insert snapshot: %v", err)
	}

	if err := s.DeleteProject(b.Project.ID); err != nil {
		t.Fatalf("delete project: %v", err)
	}

	if _, err := s.GetProject(b.Project.ID); !apperrors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("deleted project still loads: %v", err)
	}
	metas, err := s.ListSnapshots(b.Project.ID)
	if err != nil {
		t.Fatalf("list snapshots: %v", err)
	}
	if len(metas) != 0 {
		t.Errorf("snapshot metadata survived project delete: %v", metas)
	}
}

func TestReplaceProjectContents(t *testing.T) {
	s := newTestStore(t)
	b := sampleBundle()
	if err := s.InsertBundle(b); err != nil {
		t.Fatalf("insert bundle: %v", err)
	}
	before, err := s.LoadProjectState(b.Project.ID)
	if err != nil {
		t.Fatalf("load before: %v", err)
	}

	// Mutate the live project, then restore the captured state over it.
	if err := s.UpdateSceneProse(b.Scenes[0].ID, "<p>Rewritten.</p>"); err != nil {
		t.Fatalf("update prose: %v", err)
	}
	if err := s.ReplaceProjectContents(before); err != nil {
		t.Fatalf("replace contents: %v", err)
	}

	after, err := s.LoadProjectState(b.Project.ID)
	if err != nil {
		t.Fatalf("load after: %v", err)
	}
	if after.Scenes[0].Prose != "<p>It was a dark night.</p>" {
		t.Errorf("restore did not revert prose: %q", after.Scenes[0].Prose)
	}
	if after.Scenes[0].ID != before.Scenes[0].ID {
		t.Error("replace restore must keep original scene identities")
	}
	if !after.Project.ModifiedAt.After(before.Project.ModifiedAt) {
		t.Error("replace restore should bump modified_at")
	}
}

func TestInsertProjectStateNewIdentities(t *testing.T) {
	s := newTestStore(t)
	b := sampleBundle()
	if err := s.InsertBundle(b); err != nil {
		t.Fatalf("insert bundle: %v", err)
	}
	state, err := s.LoadProjectState(b.Project.ID)
	if err != nil {
		t.Fatalf("load state: %v", err)
	}

	// Clone-style restore: same content under a fresh project id.
	clone := *state
	clone.Project.ID = uuid.New()
	clone.Project.Name = state.Project.Name + " (Copy)"
	clone.Chapters = remapChapters(state.Chapters, clone.Project.ID)
	clone.Scenes, clone.Beats = nil, nil
	clone.Characters, clone.Locations, clone.ReferenceItems = nil, nil, nil
	clone.SceneCharacterRefs, clone.SceneLocationRefs = nil, nil
	if err := s.InsertProjectState(&clone); err != nil {
		t.Fatalf("insert project state: %v", err)
	}

	projects, err := s.ListProjects()
	if err != nil {
		t.Fatalf("list projects: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("got %d projects, want 2", len(projects))
	}
	if projects[1].Name != "Test Novel (Copy)" {
		t.Errorf("clone name = %q", projects[1].Name)
	}
}

func remapChapters(chapters []model.Chapter, projectID uuid.UUID) []model.Chapter {
	out := make([]model.Chapter, len(chapters))
	for i, c := range chapters {
		c.ID = uuid.New()
		c.ProjectID = projectID
		out[i] = c
	}
	return out
}

func TestUpdateSceneProseMissing(t *testing.T) {
	s := newTestStore(t)
	err := s.UpdateSceneProse(uuid.New(), "x")
	if !apperrors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("updating a missing scene should be not-found, got %v", err)
	}
}

func TestSnapshotMetadataRoundtrip(t *testing.T) {
	s := newTestStore(t)
	b := sampleBundle()
	if err := s.InsertBundle(b); err != nil {
		t.Fatalf("insert bundle: %v", err)
	}

	older := model.SnapshotMetadata{
		ID: uuid.New(), ProjectID: b.Project.ID, Name: "first",
		Trigger: model.TriggerManual, CreatedAt: time.Now().Add(-time.Hour),
		FilePath: "/tmp/a.json.gz", CompressedSize: 120, UncompressedSize: 900,
		ChapterCount: 2, SceneCount: 2, BeatCount: 2, WordCount: 7,
		SchemaVersion: model.SnapshotSchemaVersion, Checksum: "abc123",
	}
	newer := older
	newer.ID = uuid.New()
	newer.Name = "second"
	newer.CreatedAt = time.Now()
	newer.Trigger = model.TriggerExport

	for _, m := range []model.SnapshotMetadata{older, newer} {
		if err := s.InsertSnapshot(m); err != nil {
			t.Fatalf("insert snapshot %q: %v", m.Name, err)
		}
	}

	metas, err := s.ListSnapshots(b.Project.ID)
	if err != nil {
		t.Fatalf("list snapshots: %v", err)
	}
	if len(metas) != 2 || metas[0].Name != "second" || metas[1].Name != "first" {
		t.Fatalf("snapshots should list newest first: %v", metas)
	}

	got, err := s.GetSnapshot(older.ID)
	if err != nil {
		t.Fatalf("get snapshot: %v", err)
	}
	if got.Checksum != "abc123" || got.WordCount != 7 || got.Trigger != model.TriggerManual {
		t.Errorf("snapshot metadata fields lost: %+v", got)
	}

	if err := s.DeleteSnapshotMeta(older.ID); err != nil {
		t.Fatalf("delete snapshot meta: %v", err)
	}
	if _, err := s.GetSnapshot(older.ID); !apperrors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("deleted snapshot still loads: %v", err)
	}
}
