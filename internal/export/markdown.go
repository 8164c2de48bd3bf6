package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/smith-and-web/kindling-sub000/core/errors"
	"github.com/smith-and-web/kindling-sub000/core/model"
	"github.com/smith-and-web/kindling-sub000/core/smarttext"
	"github.com/smith-and-web/kindling-sub000/internal/fileutil"
	"github.com/smith-and-web/kindling-sub000/internal/logging"
	"github.com/smith-and-web/kindling-sub000/internal/store"
)

// MarkdownExportOptions controls the folder-tree export.
type MarkdownExportOptions struct {
	Scope     Scope
	ChapterID uuid.UUID
	SceneID   uuid.UUID

	IncludeBeatMarkers bool
	IncludeSynopsis    bool
	// DeleteExisting clears the directly targeted folder or file before
	// writing.
	DeleteExisting bool
}

// MarkdownExporter writes a project as nested Markdown files.
type MarkdownExporter struct {
	store *store.Store
}

// NewMarkdownExporter returns an exporter bound to st.
func NewMarkdownExporter(st *store.Store) *MarkdownExporter {
	return &MarkdownExporter{store: st}
}

// Export writes the tree {outDir}/{Project}/{NN - Chapter}/{NN - Scene}.md.
func (e *MarkdownExporter) Export(projectID uuid.UUID, outDir string, opts MarkdownExportOptions) error {
	if opts.Scope == "" {
		opts.Scope = ScopeProject
	}

	state, err := e.store.LoadProjectState(projectID)
	if err != nil {
		return err
	}
	chapters, scenesByChapter, beatsByScene, err := scopeContent(state, DocxExportOptions{
		Scope: opts.Scope, ChapterID: opts.ChapterID, SceneID: opts.SceneID,
	})
	if err != nil {
		return err
	}

	projectDir := filepath.Join(outDir, fileutil.SanitizeName(state.Project.Name))
	if opts.DeleteExisting && opts.Scope == ScopeProject {
		if err := os.RemoveAll(projectDir); err != nil {
			return apperrors.NewIO("remove", projectDir, err)
		}
	}
	if err := fileutil.EnsureDir(projectDir); err != nil {
		return apperrors.NewIO("create", projectDir, err)
	}

	for num, ch := range chapters {
		chapterDir := filepath.Join(projectDir,
			fmt.Sprintf("%02d - %s", num+1, fileutil.SanitizeName(ch.Title)))
		if opts.DeleteExisting && opts.Scope == ScopeChapter {
			if err := os.RemoveAll(chapterDir); err != nil {
				return apperrors.NewIO("remove", chapterDir, err)
			}
		}
		if err := fileutil.EnsureDir(chapterDir); err != nil {
			return apperrors.NewIO("create", chapterDir, err)
		}

		for scNum, sc := range scenesByChapter[ch.ID] {
			path := filepath.Join(chapterDir,
				fmt.Sprintf("%02d - %s.md", scNum+1, fileutil.SanitizeName(sc.Title)))
			if opts.DeleteExisting && opts.Scope == ScopeScene {
				if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
					return apperrors.NewIO("remove", path, err)
				}
			}
			content := sceneMarkdown(sc, beatsByScene[sc.ID], opts)
			if err := fileutil.AtomicWrite(path, []byte(content)); err != nil {
				return apperrors.NewIO("write", path, err)
			}
		}
	}

	logging.Info("markdown exported", "project", state.Project.Name, "dir", projectDir)
	return nil
}

// sceneMarkdown renders one scene file: H1 title, quoted synopsis, then the
// beats with stripped prose.
func sceneMarkdown(sc model.Scene, beats []model.Beat, opts MarkdownExportOptions) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", sc.Title)

	if opts.IncludeSynopsis && strings.TrimSpace(sc.Synopsis) != "" {
		b.WriteString("\n")
		for _, line := range strings.Split(strings.TrimSpace(sc.Synopsis), "\n") {
			fmt.Fprintf(&b, "> %s\n", line)
		}
	}

	for _, beat := range beats {
		if opts.IncludeBeatMarkers && strings.TrimSpace(beat.Content) != "" {
			fmt.Fprintf(&b, "\n## %s\n", beat.Content)
		}
		prose := strings.TrimSpace(smarttext.StripHTML(beat.Prose))
		if prose != "" {
			b.WriteString("\n" + prose + "\n")
		}
	}

	return b.String()
}
