package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smith-and-web/kindling-sub000/internal/paths"
	"github.com/smith-and-web/kindling-sub000/internal/store"
)

func TestMarkdownExportTree(t *testing.T) {
	t.Setenv(paths.EnvDataDir, t.TempDir())
	st, err := store.Open(filepath.Join(t.TempDir(), "kindling.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	b := seedManuscript(t, st)

	outDir := t.TempDir()
	opts := MarkdownExportOptions{IncludeBeatMarkers: true, IncludeSynopsis: true}
	if err := NewMarkdownExporter(st).Export(b.Project.ID, outDir, opts); err != nil {
		t.Fatalf("export: %v", err)
	}

	projectDir := filepath.Join(outDir, "The Lighthouse Keeper")
	entries, err := os.ReadDir(projectDir)
	if err != nil {
		t.Fatalf("project dir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d chapter folders, want 2", len(entries))
	}
	if entries[0].Name() != "01 - Landfall" || entries[1].Name() != "02 - Storm" {
		t.Errorf("chapter folders = %q, %q", entries[0].Name(), entries[1].Name())
	}

	scenePath := filepath.Join(projectDir, "01 - Landfall", "01 - Arrival.md")
	raw, err := os.ReadFile(scenePath)
	if err != nil {
		t.Fatalf("scene file: %v", err)
	}
	content := string(raw)
	if !strings.HasPrefix(content, "# Arrival\n") {
		t.Errorf("scene file should start with the H1 title:\n%s", content)
	}
	if !strings.Contains(content, "> What happens here.") {
		t.Error("synopsis line missing")
	}
	if !strings.Contains(content, "## The moment") {
		t.Error("beat heading missing")
	}
	if !strings.Contains(content, `"Don't," she said--"wait."`) {
		t.Error("stripped prose missing")
	}
	if strings.Contains(content, "<p>") {
		t.Error("prose should be HTML-stripped")
	}
}

func TestMarkdownExportSanitizesNames(t *testing.T) {
	t.Setenv(paths.EnvDataDir, t.TempDir())
	st, err := store.Open(filepath.Join(t.TempDir(), "kindling.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	b := seedManuscript(t, st)

	// Rename a chapter to something filesystem-hostile.
	state, err := st.LoadProjectState(b.Project.ID)
	if err != nil {
		t.Fatal(err)
	}
	state.Chapters[0].Title = "What: Now?"
	if err := st.ReplaceProjectContents(state); err != nil {
		t.Fatal(err)
	}

	outDir := t.TempDir()
	if err := NewMarkdownExporter(st).Export(b.Project.ID, outDir, MarkdownExportOptions{}); err != nil {
		t.Fatalf("export: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "The Lighthouse Keeper", "01 - What_ Now_")); err != nil {
		t.Errorf("sanitized chapter folder missing: %v", err)
	}
}

func TestMarkdownExportDeleteExisting(t *testing.T) {
	t.Setenv(paths.EnvDataDir, t.TempDir())
	st, err := store.Open(filepath.Join(t.TempDir(), "kindling.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	b := seedManuscript(t, st)

	outDir := t.TempDir()
	stale := filepath.Join(outDir, "The Lighthouse Keeper", "99 - Stale")
	if err := os.MkdirAll(stale, 0755); err != nil {
		t.Fatal(err)
	}

	opts := MarkdownExportOptions{DeleteExisting: true}
	if err := NewMarkdownExporter(st).Export(b.Project.ID, outDir, opts); err != nil {
		t.Fatalf("export: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("delete-existing should clear the stale chapter folder")
	}
}
