// Package longform imports a folder tree: a YAML manifest enumerating
// chapters and scenes, plus one Markdown file per scene. An optional beat
// block inside a scene file, opened by the literal marker
// "<!-- kindling: beats -->", is parsed with the outline rules.
package longform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	apperrors "github.com/smith-and-web/kindling-sub000/core/errors"
	"github.com/smith-and-web/kindling-sub000/core/model"
	"github.com/smith-and-web/kindling-sub000/internal/importers/markdown"
)

// BeatMarker opens the beat block inside a scene file.
const BeatMarker = "<!-- kindling: beats -->"

// manifestNames are probed in order inside the project folder.
var manifestNames = []string{"index.yaml", "index.yml", "manifest.yaml", "manifest.yml"}

// Importer parses Longform project folders.
type Importer struct{}

// New returns the Longform importer.
func New() *Importer { return &Importer{} }

// Name implements the importer contract.
func (i *Importer) Name() string { return "longform" }

// Detect accepts a directory that carries one of the manifest names.
func (i *Importer) Detect(path string) (bool, string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false, "not a directory"
	}
	if name := findManifest(path); name != "" {
		return true, name + " manifest present"
	}
	return false, "no manifest in folder"
}

func findManifest(dir string) string {
	for _, name := range manifestNames {
		if info, err := os.Stat(filepath.Join(dir, name)); err == nil && !info.IsDir() {
			return name
		}
	}
	return ""
}

// manifest mirrors the YAML index file.
type manifest struct {
	Title    string          `yaml:"title"`
	Author   string          `yaml:"author"`
	Genre    string          `yaml:"genre"`
	Chapters []chapterRecord `yaml:"chapters"`
	Scenes   []sceneRecord   `yaml:"scenes"`
}

type chapterRecord struct {
	Title  string        `yaml:"title"`
	Scenes []sceneRecord `yaml:"scenes"`
}

// sceneRecord accepts either a bare filename or a mapping with title and
// file keys.
type sceneRecord struct {
	Title string `yaml:"title"`
	File  string `yaml:"file"`
}

func (r *sceneRecord) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		r.File = value.Value
		return nil
	}
	type plain sceneRecord
	return value.Decode((*plain)(r))
}

// Parse reads the manifest and every referenced scene file. Orphan scenes
// listed outside a chapter land in a synthesized "Unsorted" chapter appended
// after the declared ones.
func (i *Importer) Parse(path string) (*model.ParsedBundle, error) {
	name := findManifest(path)
	if name == "" {
		return nil, apperrors.NewStructure("longform", "manifest", "no manifest in "+path)
	}
	manifestPath := filepath.Join(path, name)
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, apperrors.NewIO("read", manifestPath, err)
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, apperrors.NewParse("longform", manifestPath, err.Error())
	}
	if len(m.Chapters) == 0 && len(m.Scenes) == 0 {
		return nil, apperrors.NewStructure("longform", "chapters", "manifest lists no chapters or scenes")
	}

	title := strings.TrimSpace(m.Title)
	if title == "" {
		title = filepath.Base(path)
	}
	project := model.NewProject(title, model.SourceLongform)
	project.SourcePath = path
	project.PenName = strings.TrimSpace(m.Author)
	project.Genre = strings.TrimSpace(m.Genre)

	b := &model.ParsedBundle{Project: project}

	sceneSeq := 0
	for chPos, chRec := range m.Chapters {
		chTitle := strings.TrimSpace(chRec.Title)
		if chTitle == "" {
			chTitle = fmt.Sprintf("Chapter %d", chPos+1)
		}
		ch := model.Chapter{
			ID:        uuid.New(),
			ProjectID: project.ID,
			Title:     chTitle,
			SourceID:  fmt.Sprintf("chapter-%d", chPos),
			Position:  chPos,
		}
		b.Chapters = append(b.Chapters, ch)
		for scPos, scRec := range chRec.Scenes {
			if err := addScene(b, path, ch.ID, scRec, scPos, &sceneSeq); err != nil {
				return nil, err
			}
		}
	}

	if len(m.Scenes) > 0 {
		orphan := model.Chapter{
			ID:        uuid.New(),
			ProjectID: project.ID,
			Title:     "Unsorted",
			SourceID:  "chapter-unsorted",
			Position:  len(b.Chapters),
		}
		b.Chapters = append(b.Chapters, orphan)
		for scPos, scRec := range m.Scenes {
			if err := addScene(b, path, orphan.ID, scRec, scPos, &sceneSeq); err != nil {
				return nil, err
			}
		}
	}

	return b, nil
}

// addScene reads one scene file, splits it at the beat marker, and attaches
// synopsis and beats.
func addScene(b *model.ParsedBundle, dir string, chapterID uuid.UUID,
	rec sceneRecord, position int, sceneSeq *int) error {

	if rec.File == "" {
		return apperrors.NewStructure("longform", "scenes", "scene record without a file")
	}
	scenePath := filepath.Join(dir, rec.File)
	raw, err := os.ReadFile(scenePath)
	if err != nil {
		return apperrors.NewIO("read", scenePath, err)
	}

	title := strings.TrimSpace(rec.Title)
	body := string(raw)
	head, beatBlock, hasBeats := strings.Cut(body, BeatMarker)

	// A leading H1 inside the file names the scene when the manifest does
	// not.
	headLines := strings.Split(head, "\n")
	var synopsisLines []string
	for _, line := range headLines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") && title == "" && len(synopsisLines) == 0 {
			title = strings.TrimSpace(trimmed[2:])
			continue
		}
		synopsisLines = append(synopsisLines, line)
	}
	if title == "" {
		base := filepath.Base(rec.File)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	sc := model.NewScene(chapterID, title, position)
	sc.SourceID = fmt.Sprintf("scene-%d", *sceneSeq)
	*sceneSeq++
	sc.Synopsis = strings.TrimSpace(strings.Join(synopsisLines, "\n"))
	b.Scenes = append(b.Scenes, sc)

	if !hasBeats {
		return nil
	}
	beats, err := parseBeatBlock(beatBlock, sc.ID)
	if err != nil {
		return err
	}
	b.Beats = append(b.Beats, beats...)
	return nil
}

// parseBeatBlock runs the outline rules over the text after the marker and
// rebinds the resulting beats to the owning scene.
func parseBeatBlock(block string, sceneID uuid.UUID) ([]model.Beat, error) {
	trimmed := strings.TrimSpace(block)
	if trimmed == "" {
		return nil, nil
	}
	// The outline parser wants a chapter/scene skeleton above the beats.
	outline := "## _\n### _\n" + trimmed + "\n"
	parsed, err := markdown.ParseOutline(outline, "_")
	if err != nil {
		return nil, err
	}
	beats := make([]model.Beat, 0, len(parsed.Beats))
	for pos, bt := range parsed.Beats {
		beats = append(beats, model.Beat{
			ID:       uuid.New(),
			SceneID:  sceneID,
			Content:  bt.Content,
			Prose:    bt.Prose,
			Position: pos,
		})
	}
	return beats, nil
}
