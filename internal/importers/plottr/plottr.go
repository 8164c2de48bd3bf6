// Package plottr imports a Plottr planning file: a single JSON document whose
// timeline "beats" become chapters and whose "cards" become scenes. Card
// descriptions and scenario notes are synthesized into beats.
package plottr

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/smith-and-web/kindling-sub000/core/errors"
	"github.com/smith-and-web/kindling-sub000/core/model"
)

// Importer parses .pltr files.
type Importer struct{}

// New returns the Plottr importer.
func New() *Importer { return &Importer{} }

// Name implements the importer contract.
func (i *Importer) Name() string { return "plottr" }

// Detect accepts .pltr files, or .json files carrying both the beats and
// cards sections.
func (i *Importer) Detect(path string) (bool, string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false, "not a readable file"
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".pltr" {
		return true, ".pltr extension"
	}
	if ext != ".json" {
		return false, "not a .pltr or .json file"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false, "cannot read file"
	}
	content := string(data)
	if strings.Contains(content, `"beats"`) && strings.Contains(content, `"cards"`) {
		return true, "beats and cards sections present"
	}
	return false, "missing Plottr sections"
}

// file mirrors the subset of the Plottr schema the import consumes. Ids are
// numeric in the source; json.Number keeps the literal for source_id.
type file struct {
	File       *fileMeta `json:"file"`
	Beats      []beat    `json:"beats"`
	Cards      []card    `json:"cards"`
	Characters []entity  `json:"characters"`
	Places     []entity  `json:"places"`
}

type fileMeta struct {
	Name string `json:"fileName"`
}

type beat struct {
	ID       json.Number `json:"id"`
	Title    string      `json:"title"`
	Position int         `json:"position"`
}

type card struct {
	ID          json.Number   `json:"id"`
	BeatID      json.Number   `json:"beatId"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Scenarios   []string      `json:"scenarios"`
	Position    int           `json:"positionWithinLine"`
	Characters  []json.Number `json:"characters"`
	Places      []json.Number `json:"places"`
}

type entity struct {
	ID          json.Number       `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Attributes  map[string]string `json:"attributes"`
}

// Parse reads the Plottr document and maps it onto the canonical model:
// timeline beats to chapters in position order, cards to scenes under their
// beat, card description plus scenarios to synthesized beats.
func (i *Importer) Parse(path string) (*model.ParsedBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewIO("read", path, err)
	}

	var f file
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&f); err != nil {
		return nil, apperrors.NewParse("plottr", path, err.Error())
	}
	if len(f.Beats) == 0 {
		return nil, apperrors.NewStructure("plottr", "beats", "no timeline beats in file")
	}

	name := projectName(f.File, path)
	project := model.NewProject(name, model.SourcePlottr)
	project.SourcePath = path

	b := &model.ParsedBundle{Project: project}

	// Timeline beats ordered by their own position field; positions in the
	// bundle are reassigned dense from 0.
	ordered := make([]beat, len(f.Beats))
	copy(ordered, f.Beats)
	sort.SliceStable(ordered, func(a, z int) bool { return ordered[a].Position < ordered[z].Position })

	chapterByBeat := make(map[string]uuid.UUID, len(ordered))
	for pos, pb := range ordered {
		title := pb.Title
		if title == "" {
			title = "Chapter " + pb.ID.String()
		}
		ch := model.Chapter{
			ID:        uuid.New(),
			ProjectID: project.ID,
			Title:     title,
			SourceID:  pb.ID.String(),
			Position:  pos,
		}
		chapterByBeat[pb.ID.String()] = ch.ID
		b.Chapters = append(b.Chapters, ch)
	}

	characterByID := make(map[string]uuid.UUID, len(f.Characters))
	for _, pc := range f.Characters {
		ch := model.Character{
			ID:          uuid.New(),
			ProjectID:   project.ID,
			Name:        pc.Name,
			Description: pc.Description,
			Attributes:  pc.Attributes,
		}
		characterByID[pc.ID.String()] = ch.ID
		b.Characters = append(b.Characters, ch)
	}
	locationByID := make(map[string]uuid.UUID, len(f.Places))
	for _, pp := range f.Places {
		loc := model.Location{
			ID:          uuid.New(),
			ProjectID:   project.ID,
			Name:        pp.Name,
			Description: pp.Description,
			Attributes:  pp.Attributes,
		}
		locationByID[pp.ID.String()] = loc.ID
		b.Locations = append(b.Locations, loc)
	}

	// Cards grouped per beat, kept in their within-line order.
	cardsByBeat := make(map[string][]card)
	for _, c := range f.Cards {
		key := c.BeatID.String()
		cardsByBeat[key] = append(cardsByBeat[key], c)
	}
	for _, cs := range cardsByBeat {
		sort.SliceStable(cs, func(a, z int) bool { return cs[a].Position < cs[z].Position })
	}

	for _, pb := range ordered {
		chapterID := chapterByBeat[pb.ID.String()]
		for pos, c := range cardsByBeat[pb.ID.String()] {
			sc := model.NewScene(chapterID, c.Title, pos)
			sc.SourceID = c.ID.String()
			b.Scenes = append(b.Scenes, sc)

			beatPos := 0
			if strings.TrimSpace(c.Description) != "" {
				b.Beats = append(b.Beats, model.Beat{
					ID:       uuid.New(),
					SceneID:  sc.ID,
					Content:  strings.TrimSpace(c.Description),
					Position: beatPos,
				})
				beatPos++
			}
			for _, scenario := range c.Scenarios {
				if strings.TrimSpace(scenario) == "" {
					continue
				}
				b.Beats = append(b.Beats, model.Beat{
					ID:       uuid.New(),
					SceneID:  sc.ID,
					Content:  strings.TrimSpace(scenario),
					Position: beatPos,
				})
				beatPos++
			}

			for _, cid := range c.Characters {
				if id, ok := characterByID[cid.String()]; ok {
					b.SceneCharacterRefs = append(b.SceneCharacterRefs, model.SceneCharacterRef{
						SceneID: sc.ID, CharacterID: id,
					})
				}
			}
			for _, pid := range c.Places {
				if id, ok := locationByID[pid.String()]; ok {
					b.SceneLocationRefs = append(b.SceneLocationRefs, model.SceneLocationRef{
						SceneID: sc.ID, LocationID: id,
					})
				}
			}
		}
	}

	return b, nil
}

func projectName(meta *fileMeta, path string) string {
	if meta != nil && strings.TrimSpace(meta.Name) != "" {
		name := meta.Name
		name = strings.TrimSuffix(name, filepath.Ext(name))
		return name
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
