// Package export renders a project into deliverable documents: a Standard
// Manuscript Format .docx or a folder tree of Markdown files.
package export

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/smith-and-web/kindling-sub000/core/docx"
	apperrors "github.com/smith-and-web/kindling-sub000/core/errors"
	"github.com/smith-and-web/kindling-sub000/core/model"
	"github.com/smith-and-web/kindling-sub000/core/smarttext"
	"github.com/smith-and-web/kindling-sub000/internal/fileutil"
	"github.com/smith-and-web/kindling-sub000/internal/logging"
	"github.com/smith-and-web/kindling-sub000/internal/settings"
	"github.com/smith-and-web/kindling-sub000/internal/snapshot"
	"github.com/smith-and-web/kindling-sub000/internal/store"
)

// Scope selects how much of the project a single export covers.
type Scope string

const (
	ScopeProject Scope = "project"
	ScopeChapter Scope = "chapter"
	ScopeScene   Scope = "scene"
)

// SceneBreakStyle selects the separator between scenes.
type SceneBreakStyle string

const (
	BreakHash      SceneBreakStyle = "hash"
	BreakAsterisks SceneBreakStyle = "asterisks"
	BreakAsterism  SceneBreakStyle = "asterism"
	BreakBlankLine SceneBreakStyle = "blank_line"
)

// Manuscript fonts.
const (
	FontCourierNew    = "Courier New"
	FontTimesNewRoman = "Times New Roman"
)

// Body line spacing in twips at 12pt.
const (
	SpacingSingle     = 240
	SpacingOneAndHalf = 360
	SpacingDouble     = 480
)

// blankThird is the number of empty paragraphs that pushes the next line to
// roughly one third down the page.
const blankThird = 12

// DocxExportOptions controls the manuscript rendering.
type DocxExportOptions struct {
	Scope     Scope
	ChapterID uuid.UUID
	SceneID   uuid.UUID

	IncludeBeatMarkers        bool
	IncludeSynopsis           bool
	CreateSnapshot            bool
	PageBreaksBetweenChapters bool
	IncludeTitlePage          bool

	ChapterHeadingStyle ChapterHeadingStyle
	SceneBreakStyle     SceneBreakStyle
	FontFamily          string
	LineSpacing         int
}

// DocxExporter renders projects from one store with the app settings blob.
type DocxExporter struct {
	store    *store.Store
	settings settings.Settings
}

// NewDocxExporter returns an exporter bound to st.
func NewDocxExporter(st *store.Store, cfg settings.Settings) *DocxExporter {
	return &DocxExporter{store: st, settings: cfg}
}

// Export renders the project into a .docx at outPath. The file appears only
// after the full archive builds; a failed build leaves nothing behind.
func (e *DocxExporter) Export(projectID uuid.UUID, outPath string, opts DocxExportOptions) error {
	applyDefaults(&opts)

	if opts.CreateSnapshot {
		eng := snapshot.New(e.store)
		if _, err := eng.Capture(projectID, "Pre-export", "", model.TriggerExport); err != nil {
			return err
		}
	}

	state, err := e.store.LoadProjectState(projectID)
	if err != nil {
		return err
	}
	chapters, scenesByChapter, beatsByScene, err := scopeContent(state, opts)
	if err != nil {
		return err
	}

	data, err := e.render(state, chapters, scenesByChapter, beatsByScene, opts)
	if err != nil {
		return err
	}
	if err := fileutil.AtomicWrite(outPath, data); err != nil {
		return apperrors.NewIO("write", outPath, err)
	}
	logging.Info("docx exported", "project", state.Project.Name, "path", outPath, "bytes", len(data))
	return nil
}

func applyDefaults(opts *DocxExportOptions) {
	if opts.Scope == "" {
		opts.Scope = ScopeProject
	}
	if opts.ChapterHeadingStyle == "" {
		opts.ChapterHeadingStyle = HeadingNumberOnly
	}
	if opts.SceneBreakStyle == "" {
		opts.SceneBreakStyle = BreakHash
	}
	if opts.FontFamily == "" {
		opts.FontFamily = FontCourierNew
	}
	if opts.LineSpacing == 0 {
		opts.LineSpacing = SpacingDouble
	}
}

// scopeContent filters the project state down to the requested scope,
// dropping archived chapters and scenes.
func scopeContent(state *model.SnapshotData, opts DocxExportOptions) (
	[]model.Chapter, map[uuid.UUID][]model.Scene, map[uuid.UUID][]model.Beat, error) {

	beatsByScene := make(map[uuid.UUID][]model.Beat)
	for _, b := range state.Beats {
		beatsByScene[b.SceneID] = append(beatsByScene[b.SceneID], b)
	}

	sceneChapter := make(map[uuid.UUID]uuid.UUID)
	allScenes := make(map[uuid.UUID][]model.Scene)
	for _, sc := range state.Scenes {
		sceneChapter[sc.ID] = sc.ChapterID
		if sc.Archived {
			continue
		}
		allScenes[sc.ChapterID] = append(allScenes[sc.ChapterID], sc)
	}

	var chapters []model.Chapter
	switch opts.Scope {
	case ScopeProject:
		for _, ch := range state.Chapters {
			if !ch.Archived {
				chapters = append(chapters, ch)
			}
		}
	case ScopeChapter:
		for _, ch := range state.Chapters {
			if ch.ID == opts.ChapterID {
				chapters = append(chapters, ch)
			}
		}
		if len(chapters) == 0 {
			return nil, nil, nil, apperrors.NewNotFound("chapter", opts.ChapterID.String())
		}
	case ScopeScene:
		chID, ok := sceneChapter[opts.SceneID]
		if !ok {
			return nil, nil, nil, apperrors.NewNotFound("scene", opts.SceneID.String())
		}
		for _, ch := range state.Chapters {
			if ch.ID == chID {
				chapters = append(chapters, ch)
			}
		}
		narrowed := allScenes[chID][:0:0]
		for _, sc := range allScenes[chID] {
			if sc.ID == opts.SceneID {
				narrowed = append(narrowed, sc)
			}
		}
		allScenes[chID] = narrowed
	default:
		return nil, nil, nil, fmt.Errorf("unknown export scope %q", opts.Scope)
	}

	return chapters, allScenes, beatsByScene, nil
}

func (e *DocxExporter) render(state *model.SnapshotData, chapters []model.Chapter,
	scenesByChapter map[uuid.UUID][]model.Scene, beatsByScene map[uuid.UUID][]model.Beat,
	opts DocxExportOptions) ([]byte, error) {

	project := state.Project
	author := displayAuthor(project, e.settings)

	doc := docx.New(opts.FontFamily, opts.LineSpacing)
	doc.HeaderText = runningHeader(author, project.Name)
	doc.DifferentFirstPage = opts.IncludeTitlePage

	if opts.IncludeTitlePage {
		words := exportWordCount(chapters, scenesByChapter, beatsByScene)
		e.renderTitlePage(doc, project, author, words, opts)
	}

	for num, ch := range chapters {
		// The title page already emitted the break in front of chapter one;
		// without a title page chapter one starts at the top of the document.
		pageBreak := num > 0 && opts.PageBreaksBetweenChapters
		e.renderChapter(doc, ch, num+1, pageBreak, scenesByChapter[ch.ID], beatsByScene, opts)
	}

	return doc.Build()
}

// renderTitlePage lays out the SMF title page: contact block, word count,
// then the centered title block a third of the way down.
func (e *DocxExporter) renderTitlePage(doc *docx.Document, project model.Project,
	author string, words int, opts DocxExportOptions) {

	for _, line := range []string{
		e.settings.AuthorName,
		e.settings.ContactAddressLine1,
		e.settings.ContactAddressLine2,
		e.settings.ContactPhone,
		e.settings.ContactEmail,
	} {
		if line == "" {
			continue
		}
		doc.AddParagraph(docx.Paragraph{
			SpacingLine: SpacingSingle,
			Runs:        []docx.Run{{Text: line}},
		})
	}
	doc.AddParagraph(docx.Paragraph{SpacingLine: SpacingSingle})
	doc.AddParagraph(docx.Paragraph{
		Alignment:   docx.AlignRight,
		SpacingLine: SpacingSingle,
		Runs:        []docx.Run{{Text: wordCountString(words)}},
	})

	addBlankLines(doc, blankThird, opts.LineSpacing)
	doc.AddParagraph(centered(strings.ToUpper(project.Name), opts.LineSpacing))
	doc.AddParagraph(docx.Paragraph{SpacingLine: opts.LineSpacing})
	doc.AddParagraph(centered("by", opts.LineSpacing))
	doc.AddParagraph(docx.Paragraph{SpacingLine: opts.LineSpacing})
	doc.AddParagraph(centered(author, opts.LineSpacing))
	if project.Genre != "" {
		doc.AddParagraph(docx.Paragraph{
			Alignment:   docx.AlignCenter,
			SpacingLine: opts.LineSpacing,
			Runs:        []docx.Run{{Text: project.Genre, Italic: true}},
		})
	}
	doc.AddParagraph(docx.Paragraph{PageBreakBefore: true})
}

func (e *DocxExporter) renderChapter(doc *docx.Document, ch model.Chapter, number int,
	pageBreak bool, scenes []model.Scene, beatsByScene map[uuid.UUID][]model.Beat,
	opts DocxExportOptions) {

	doc.AddParagraph(docx.Paragraph{SpacingLine: opts.LineSpacing, PageBreakBefore: pageBreak})
	addBlankLines(doc, blankThird-1, opts.LineSpacing)
	doc.AddParagraph(docx.Paragraph{
		Style:       "Heading1",
		Alignment:   docx.AlignCenter,
		SpacingLine: opts.LineSpacing,
		Runs:        []docx.Run{{Text: ChapterHeading(number, ch.Title, opts.ChapterHeadingStyle)}},
	})
	addBlankLines(doc, 4, opts.LineSpacing)

	sectionStart := !opts.IncludeBeatMarkers
	for i, sc := range scenes {
		if i > 0 {
			e.renderSceneBreak(doc, opts)
			sectionStart = false
		}
		e.renderScene(doc, sc, beatsByScene[sc.ID], &sectionStart, opts)
	}
}

func (e *DocxExporter) renderSceneBreak(doc *docx.Document, opts DocxExportOptions) {
	switch opts.SceneBreakStyle {
	case BreakBlankLine:
		doc.AddParagraph(docx.Paragraph{
			SpacingLine:   opts.LineSpacing,
			SpacingBefore: opts.LineSpacing,
			SpacingAfter:  opts.LineSpacing,
		})
	default:
		marker := map[SceneBreakStyle]string{
			BreakHash:      "#",
			BreakAsterisks: "* * *",
			BreakAsterism:  "⁂",
		}[opts.SceneBreakStyle]
		doc.AddParagraph(centered(marker, opts.LineSpacing))
	}
}

func (e *DocxExporter) renderScene(doc *docx.Document, sc model.Scene, beats []model.Beat,
	sectionStart *bool, opts DocxExportOptions) {

	if opts.IncludeBeatMarkers && sc.Title != "" {
		doc.AddParagraph(docx.Paragraph{
			Style:       "Heading2",
			SpacingLine: opts.LineSpacing,
			Runs:        []docx.Run{{Text: sc.Title}},
		})
	}
	if opts.IncludeSynopsis && strings.TrimSpace(sc.Synopsis) != "" {
		doc.AddParagraph(docx.Paragraph{
			Style:       "Synopsis",
			SpacingLine: opts.LineSpacing,
			Runs:        []docx.Run{{Text: smarttext.Typography(sc.Synopsis)}},
		})
	}
	for _, beat := range beats {
		e.renderBeat(doc, beat, sectionStart, opts)
	}
}

func (e *DocxExporter) renderBeat(doc *docx.Document, beat model.Beat,
	sectionStart *bool, opts DocxExportOptions) {

	if opts.IncludeBeatMarkers && strings.TrimSpace(beat.Content) != "" {
		doc.AddParagraph(docx.Paragraph{
			Style:         "Heading3",
			SpacingLine:   opts.LineSpacing,
			SpacingBefore: opts.LineSpacing,
			Runs:          []docx.Run{{Text: beat.Content}},
		})
	}
	if strings.TrimSpace(beat.Prose) == "" {
		return
	}

	for _, para := range smarttext.ParseProse(beat.Prose) {
		p := docx.Paragraph{
			Style:       "BodyText",
			SpacingLine: opts.LineSpacing,
		}
		switch para.Type {
		case smarttext.Blockquote:
			p.LeftIndent = 720
			p.RightIndent = 720
			p.ExplicitIndent = true
		default:
			if *sectionStart {
				p.ExplicitIndent = true
				*sectionStart = false
			} else {
				p.FirstLineIndent = 720
			}
		}
		for _, run := range para.Runs {
			p.Runs = append(p.Runs, docx.Run{Text: run.Text, Bold: run.Bold, Italic: run.Italic})
		}
		doc.AddParagraph(p)
	}
}

// displayAuthor prefers the pen name, then the legal name from settings.
func displayAuthor(project model.Project, cfg settings.Settings) string {
	if strings.TrimSpace(project.PenName) != "" {
		return strings.TrimSpace(project.PenName)
	}
	return strings.TrimSpace(cfg.AuthorName)
}

// runningHeader builds the literal "{surname} / {TITLE} / " prefix; the PAGE
// field follows it in the header part.
func runningHeader(author, title string) string {
	surname := ""
	if fields := strings.Fields(author); len(fields) > 0 {
		surname = fields[len(fields)-1]
	}
	words := strings.Fields(title)
	if len(words) > 3 {
		words = words[:3]
	}
	short := strings.ToUpper(strings.Join(words, " "))
	return surname + " / " + short + " / "
}

// wordCountString renders the title-page count: exact under 1000, rounded to
// the nearest thousand above.
func wordCountString(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d words", n)
	}
	return fmt.Sprintf("approx. %d words", (n+500)/1000*1000)
}

// exportWordCount sums HTML-stripped beat prose over the scoped, non-archived
// content.
func exportWordCount(chapters []model.Chapter, scenesByChapter map[uuid.UUID][]model.Scene,
	beatsByScene map[uuid.UUID][]model.Beat) int {

	total := 0
	for _, ch := range chapters {
		for _, sc := range scenesByChapter[ch.ID] {
			for _, b := range beatsByScene[sc.ID] {
				total += model.CountWords(smarttext.StripHTML(b.Prose))
			}
		}
	}
	return total
}

func centered(text string, lineSpacing int) docx.Paragraph {
	return docx.Paragraph{
		Alignment:   docx.AlignCenter,
		SpacingLine: lineSpacing,
		Runs:        []docx.Run{{Text: text}},
	}
}

func addBlankLines(doc *docx.Document, n, lineSpacing int) {
	for i := 0; i < n; i++ {
		doc.AddParagraph(docx.Paragraph{SpacingLine: lineSpacing})
	}
}
