// Package markdown imports a single-file ATX outline: # project, ## chapter,
// ### scene, #### beat. In-document order determines every position.
package markdown

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/smith-and-web/kindling-sub000/core/errors"
	"github.com/smith-and-web/kindling-sub000/core/model"
)

// Importer parses .md outline files.
type Importer struct{}

// New returns the markdown outline importer.
func New() *Importer { return &Importer{} }

// Name implements the importer contract.
func (i *Importer) Name() string { return "markdown" }

// Detect accepts .md and .markdown files. It runs after the folder-based
// importers, so extension alone is enough.
func (i *Importer) Detect(path string) (bool, string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false, "not a readable file"
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".md" && ext != ".markdown" {
		return false, "not a markdown file"
	}
	return true, ext + " extension"
}

// Parse walks the outline line by line. Body text under a beat heading is the
// beat's content; body under a scene heading before its first beat is the
// scene synopsis.
func (i *Importer) Parse(path string) (*model.ParsedBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewIO("read", path, err)
	}

	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	bundle, err := ParseOutline(string(data), stem)
	if err != nil {
		return nil, err
	}
	bundle.Project.SourcePath = path
	return bundle, nil
}

// outlineState tracks the open chapter, scene, and beat while walking lines.
type outlineState struct {
	bundle *model.ParsedBundle

	sawTitle bool
	chapter  *model.Chapter
	scene    *model.Scene
	beat     *model.Beat

	body []string

	chapterSeq int
	sceneSeq   int
}

// ParseOutline converts an ATX outline into a bundle. defaultName is used
// when no H1 heading is present. The longform importer reuses it for
// per-scene beat blocks.
func ParseOutline(content, defaultName string) (*model.ParsedBundle, error) {
	st := &outlineState{
		bundle: &model.ParsedBundle{
			Project: model.NewProject(defaultName, model.SourceMarkdown),
		},
	}

	for _, rawLine := range strings.Split(content, "\n") {
		line := strings.TrimRight(rawLine, "\r")
		level, title := headingLine(line)
		switch level {
		case 0:
			st.body = append(st.body, line)
		case 1:
			st.flushBody()
			if !st.sawTitle {
				st.bundle.Project.Name = title
				st.sawTitle = true
			} else {
				// Extra H1s are tolerated as chapters.
				st.openChapter(title)
			}
		case 2:
			st.flushBody()
			st.openChapter(title)
		case 3:
			st.flushBody()
			st.openScene(title)
		case 4:
			st.flushBody()
			st.openBeat(title)
		default:
			// Deeper headings stay body text.
			st.body = append(st.body, line)
		}
	}
	st.flushBody()
	st.closeBeat()

	if len(st.bundle.Chapters) == 0 {
		return nil, apperrors.NewStructure("markdown", "chapters", "outline has no chapter headings")
	}
	return st.bundle, nil
}

func headingLine(line string) (int, string) {
	trimmed := strings.TrimSpace(line)
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level == 0 || level > 6 || level == len(trimmed) || trimmed[level] != ' ' {
		return 0, ""
	}
	return level, strings.TrimSpace(trimmed[level:])
}

func (st *outlineState) openChapter(title string) {
	st.closeBeat()
	st.scene = nil
	ch := model.Chapter{
		ID:        uuid.New(),
		ProjectID: st.bundle.Project.ID,
		Title:     title,
		SourceID:  fmt.Sprintf("chapter-%d", st.chapterSeq),
		Position:  len(st.bundle.Chapters),
	}
	st.chapterSeq++
	st.bundle.Chapters = append(st.bundle.Chapters, ch)
	st.chapter = &st.bundle.Chapters[len(st.bundle.Chapters)-1]
}

func (st *outlineState) openScene(title string) {
	if st.chapter == nil {
		st.openChapter("Chapter 1")
	}
	st.closeBeat()

	position := 0
	for _, sc := range st.bundle.Scenes {
		if sc.ChapterID == st.chapter.ID {
			position++
		}
	}
	sc := model.NewScene(st.chapter.ID, title, position)
	sc.SourceID = fmt.Sprintf("scene-%d", st.sceneSeq)
	st.sceneSeq++
	st.bundle.Scenes = append(st.bundle.Scenes, sc)
	st.scene = &st.bundle.Scenes[len(st.bundle.Scenes)-1]
}

func (st *outlineState) openBeat(title string) {
	if st.scene == nil {
		st.openScene("Untitled Scene")
	}
	st.closeBeat()

	position := 0
	for _, b := range st.bundle.Beats {
		if b.SceneID == st.scene.ID {
			position++
		}
	}
	st.beat = &model.Beat{
		ID:       uuid.New(),
		SceneID:  st.scene.ID,
		Content:  title,
		Position: position,
	}
}

func (st *outlineState) closeBeat() {
	if st.beat != nil {
		st.bundle.Beats = append(st.bundle.Beats, *st.beat)
		st.beat = nil
	}
}

// flushBody attaches accumulated body text to the innermost open element:
// beat content, then scene synopsis, then the project description.
func (st *outlineState) flushBody() {
	text := strings.TrimSpace(strings.Join(st.body, "\n"))
	st.body = nil
	if text == "" {
		return
	}
	switch {
	case st.beat != nil:
		// The heading names the beat; the body is its note text.
		st.beat.Content = text
	case st.scene != nil:
		st.scene.Synopsis = text
	case st.chapter == nil:
		st.bundle.Project.Description = text
	}
}
