// Package ywriter imports yWriter 7 project files: a single .yw7 XML document
// that may be UTF-8 or BOM-marked UTF-16. Scene Goal/Conflict/Outcome notes
// become beats, SceneContent becomes the prose of a final beat, and Items
// become reference items.
package ywriter

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf16"

	"github.com/antchfx/xmlquery"
	"github.com/google/uuid"

	apperrors "github.com/smith-and-web/kindling-sub000/core/errors"
	"github.com/smith-and-web/kindling-sub000/core/model"
)

// Importer parses .yw7 files.
type Importer struct{}

// New returns the yWriter importer.
func New() *Importer { return &Importer{} }

// Name implements the importer contract.
func (i *Importer) Name() string { return "ywriter" }

// Detect accepts .yw7 files.
func (i *Importer) Detect(path string) (bool, string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false, "not a readable file"
	}
	if strings.ToLower(filepath.Ext(path)) != ".yw7" {
		return false, "not a .yw7 file"
	}
	return true, ".yw7 extension"
}

// decodeBytes normalizes the document to UTF-8. yWriter writes UTF-16 with a
// BOM on Windows; everything else is treated as UTF-8.
func decodeBytes(path string, data []byte) ([]byte, error) {
	switch {
	case len(data) >= 2 && data[0] == 0xFF && data[1] == 0xFE:
		return decodeUTF16(path, data[2:], binary.LittleEndian)
	case len(data) >= 2 && data[0] == 0xFE && data[1] == 0xFF:
		return decodeUTF16(path, data[2:], binary.BigEndian)
	case len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF:
		return data[3:], nil
	default:
		return data, nil
	}
}

func decodeUTF16(path string, payload []byte, order binary.ByteOrder) ([]byte, error) {
	if len(payload)%2 != 0 {
		return nil, apperrors.NewEncoding(path, "UTF-16 payload has odd byte length")
	}
	units := make([]uint16, len(payload)/2)
	for i := range units {
		units[i] = order.Uint16(payload[i*2:])
	}
	return []byte(string(utf16.Decode(units))), nil
}

// Parse reads the yWriter document into a bundle. Chapter order follows the
// document; scene order within a chapter follows the chapter's ScID list.
func (i *Importer) Parse(path string) (*model.ParsedBundle, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewIO("read", path, err)
	}
	data, err := decodeBytes(path, raw)
	if err != nil {
		return nil, err
	}

	doc, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewParse("ywriter", path, err.Error())
	}
	root := xmlquery.FindOne(doc, "//YWRITER7")
	if root == nil {
		return nil, apperrors.NewStructure("ywriter", "YWRITER7", "missing document root")
	}

	name := text(root, "PROJECT/Title")
	if name == "" {
		base := filepath.Base(path)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	project := model.NewProject(name, model.SourceYWriter)
	project.SourcePath = path
	project.PenName = text(root, "PROJECT/AuthorName")
	project.Description = text(root, "PROJECT/Desc")

	b := &model.ParsedBundle{Project: project}

	characterByID := make(map[string]uuid.UUID)
	for _, node := range xmlquery.Find(root, "CHARACTERS/CHARACTER") {
		srcID := text(node, "ID")
		ch := model.Character{
			ID:          uuid.New(),
			ProjectID:   project.ID,
			Name:        text(node, "Title"),
			Description: text(node, "Desc"),
		}
		if full := text(node, "FullName"); full != "" {
			ch.Attributes = map[string]string{"full_name": full}
		}
		characterByID[srcID] = ch.ID
		b.Characters = append(b.Characters, ch)
	}
	locationByID := make(map[string]uuid.UUID)
	for _, node := range xmlquery.Find(root, "LOCATIONS/LOCATION") {
		srcID := text(node, "ID")
		loc := model.Location{
			ID:          uuid.New(),
			ProjectID:   project.ID,
			Name:        text(node, "Title"),
			Description: text(node, "Desc"),
		}
		locationByID[srcID] = loc.ID
		b.Locations = append(b.Locations, loc)
	}
	for _, node := range xmlquery.Find(root, "ITEMS/ITEM") {
		b.ReferenceItems = append(b.ReferenceItems, model.ReferenceItem{
			ID:            uuid.New(),
			ProjectID:     project.ID,
			ReferenceType: model.ReferenceTypeItem,
			Name:          text(node, "Title"),
			Description:   text(node, "Desc"),
		})
	}

	// Scenes are declared in their own section; the chapter ScID lists give
	// the reading order.
	sceneNodes := make(map[string]*xmlquery.Node)
	for _, node := range xmlquery.Find(root, "SCENES/SCENE") {
		sceneNodes[text(node, "ID")] = node
	}

	chapterNodes := xmlquery.Find(root, "CHAPTERS/CHAPTER")
	if len(chapterNodes) == 0 {
		return nil, apperrors.NewStructure("ywriter", "CHAPTERS", "no chapters in document")
	}
	for chPos, chNode := range chapterNodes {
		srcID := text(chNode, "ID")
		chapter := model.Chapter{
			ID:        uuid.New(),
			ProjectID: project.ID,
			Title:     text(chNode, "Title"),
			SourceID:  srcID,
			Position:  chPos,
			Archived:  xmlquery.FindOne(chNode, "Unused") != nil,
		}
		if chapter.Title == "" {
			chapter.Title = "Chapter " + srcID
		}
		b.Chapters = append(b.Chapters, chapter)

		scenePos := 0
		for _, scRef := range xmlquery.Find(chNode, "Scenes/ScID") {
			scNode, ok := sceneNodes[strings.TrimSpace(scRef.InnerText())]
			if !ok {
				continue
			}
			i.appendScene(b, chapter.ID, scNode, scenePos, characterByID, locationByID)
			scenePos++
		}
	}

	return b, nil
}

// appendScene maps one SCENE element: synopsis from Desc, then up to four
// synthesized beats (Goal, Conflict, Outcome notes and the SceneContent
// prose).
func (i *Importer) appendScene(b *model.ParsedBundle, chapterID uuid.UUID, node *xmlquery.Node,
	position int, characterByID, locationByID map[string]uuid.UUID) {

	sc := model.NewScene(chapterID, text(node, "Title"), position)
	sc.SourceID = text(node, "ID")
	sc.Synopsis = text(node, "Desc")
	sc.Archived = xmlquery.FindOne(node, "Unused") != nil
	b.Scenes = append(b.Scenes, sc)

	beatPos := 0
	for _, part := range []struct{ label, field string }{
		{"Goal", "Goal"},
		{"Conflict", "Conflict"},
		{"Outcome", "Outcome"},
	} {
		body := text(node, part.field)
		if body == "" {
			continue
		}
		b.Beats = append(b.Beats, model.Beat{
			ID:       uuid.New(),
			SceneID:  sc.ID,
			Content:  part.label,
			Prose:    body,
			Position: beatPos,
		})
		beatPos++
	}
	if content := text(node, "SceneContent"); content != "" {
		b.Beats = append(b.Beats, model.Beat{
			ID:       uuid.New(),
			SceneID:  sc.ID,
			Content:  "Content",
			Prose:    content,
			Position: beatPos,
		})
	}

	for _, ref := range xmlquery.Find(node, "Characters/CharID") {
		if id, ok := characterByID[strings.TrimSpace(ref.InnerText())]; ok {
			b.SceneCharacterRefs = append(b.SceneCharacterRefs, model.SceneCharacterRef{
				SceneID: sc.ID, CharacterID: id,
			})
		}
	}
	for _, ref := range xmlquery.Find(node, "Locations/LocID") {
		if id, ok := locationByID[strings.TrimSpace(ref.InnerText())]; ok {
			b.SceneLocationRefs = append(b.SceneLocationRefs, model.SceneLocationRef{
				SceneID: sc.ID, LocationID: id,
			})
		}
	}
}

// text returns the trimmed inner text of the first node matching expr under
// node, or the empty string.
func text(node *xmlquery.Node, expr string) string {
	found := xmlquery.FindOne(node, expr)
	if found == nil {
		return ""
	}
	return strings.TrimSpace(found.InnerText())
}
