package ywriter

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf16"

	apperrors "github.com/smith-and-web/kindling-sub000/core/errors"
	"github.com/smith-and-web/kindling-sub000/core/model"
)

const sampleDoc = `<?xml version="1.0" encoding="utf-8"?>
<YWRITER7>
	<PROJECT>
		<Title>The Lighthouse</Title>
		<AuthorName>A. Writer</AuthorName>
		<Desc>A short novel.</Desc>
	</PROJECT>
	<CHAPTERS>
		<CHAPTER>
			<ID>1</ID>
			<Title>Landfall</Title>
			<Scenes><ScID>10</ScID><ScID>11</ScID></Scenes>
		</CHAPTER>
		<CHAPTER>
			<ID>2</ID>
			<Title>Storm</Title>
			<Unused/>
			<Scenes><ScID>12</ScID></Scenes>
		</CHAPTER>
	</CHAPTERS>
	<SCENES>
		<SCENE>
			<ID>10</ID>
			<Title>Arrival</Title>
			<Desc>Mara reaches the island.</Desc>
			<Goal>Reach the lighthouse</Goal>
			<Conflict>The tide is rising</Conflict>
			<Outcome>She makes it, barely</Outcome>
			<SceneContent>The boat scraped gravel.</SceneContent>
			<Characters><CharID>100</CharID></Characters>
			<Locations><LocID>200</LocID></Locations>
		</SCENE>
		<SCENE>
			<ID>11</ID>
			<Title>The Keeper</Title>
			<SceneContent>The door was already open.</SceneContent>
		</SCENE>
		<SCENE>
			<ID>12</ID>
			<Title>Cut Scene</Title>
		</SCENE>
	</SCENES>
	<CHARACTERS>
		<CHARACTER>
			<ID>100</ID>
			<Title>Mara</Title>
			<Desc>Protagonist</Desc>
			<FullName>Mara Voss</FullName>
		</CHARACTER>
	</CHARACTERS>
	<LOCATIONS>
		<LOCATION>
			<ID>200</ID>
			<Title>The Island</Title>
		</LOCATION>
	</LOCATIONS>
	<ITEMS>
		<ITEM>
			<ID>300</ID>
			<Title>Brass Key</Title>
			<Desc>Opens the lamp room.</Desc>
		</ITEM>
	</ITEMS>
</YWRITER7>`

func writeDoc(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "project.yw7")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseUTF8(t *testing.T) {
	b, err := New().Parse(writeDoc(t, []byte(sampleDoc)))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if b.Project.Name != "The Lighthouse" || b.Project.PenName != "A. Writer" {
		t.Errorf("project = %+v", b.Project)
	}
	if b.Project.SourceType != model.SourceYWriter {
		t.Errorf("source type = %q", b.Project.SourceType)
	}

	if len(b.Chapters) != 2 {
		t.Fatalf("got %d chapters, want 2", len(b.Chapters))
	}
	if !b.Chapters[1].Archived {
		t.Error("Unused chapter should import as archived")
	}

	if len(b.Scenes) != 3 {
		t.Fatalf("got %d scenes, want 3", len(b.Scenes))
	}
	arrival := b.Scenes[0]
	if arrival.Title != "Arrival" || arrival.Synopsis != "Mara reaches the island." {
		t.Errorf("scene = %+v", arrival)
	}
	if b.Scenes[1].Position != 1 {
		t.Errorf("second scene position = %d, want 1", b.Scenes[1].Position)
	}

	// Goal, Conflict, Outcome, then SceneContent.
	var arrivalBeats []model.Beat
	for _, bt := range b.Beats {
		if bt.SceneID == arrival.ID {
			arrivalBeats = append(arrivalBeats, bt)
		}
	}
	if len(arrivalBeats) != 4 {
		t.Fatalf("Arrival should synthesize 4 beats, got %d", len(arrivalBeats))
	}
	wantLabels := []string{"Goal", "Conflict", "Outcome", "Content"}
	for i, bt := range arrivalBeats {
		if bt.Content != wantLabels[i] || bt.Position != i {
			t.Errorf("beat %d = %q at %d, want %q at %d", i, bt.Content, bt.Position, wantLabels[i], i)
		}
	}
	if arrivalBeats[3].Prose != "The boat scraped gravel." {
		t.Errorf("content beat prose = %q", arrivalBeats[3].Prose)
	}

	if len(b.Characters) != 1 || b.Characters[0].Attributes["full_name"] != "Mara Voss" {
		t.Errorf("characters = %+v", b.Characters)
	}
	if len(b.ReferenceItems) != 1 || b.ReferenceItems[0].ReferenceType != model.ReferenceTypeItem {
		t.Errorf("reference items = %+v", b.ReferenceItems)
	}
	if len(b.SceneCharacterRefs) != 1 || len(b.SceneLocationRefs) != 1 {
		t.Errorf("joins = %d character, %d location, want 1 and 1",
			len(b.SceneCharacterRefs), len(b.SceneLocationRefs))
	}
}

func TestParseUTF16LE(t *testing.T) {
	units := utf16.Encode([]rune(sampleDoc))
	data := make([]byte, 2+len(units)*2)
	data[0], data[1] = 0xFF, 0xFE
	for i, u := range units {
		binary.LittleEndian.PutUint16(data[2+i*2:], u)
	}

	b, err := New().Parse(writeDoc(t, data))
	if err != nil {
		t.Fatalf("parse UTF-16 LE: %v", err)
	}
	if b.Project.Name != "The Lighthouse" {
		t.Errorf("project name = %q", b.Project.Name)
	}
}

func TestParseBadEncoding(t *testing.T) {
	// UTF-16 BOM followed by an odd number of payload bytes.
	_, err := New().Parse(writeDoc(t, []byte{0xFF, 0xFE, 0x41}))
	if !apperrors.Is(err, apperrors.ErrEncoding) {
		t.Errorf("odd UTF-16 payload should be an encoding error, got %v", err)
	}
}

func TestParseMissingChapters(t *testing.T) {
	doc := `<?xml version="1.0"?><YWRITER7><PROJECT><Title>x</Title></PROJECT></YWRITER7>`
	_, err := New().Parse(writeDoc(t, []byte(doc)))
	if !apperrors.Is(err, apperrors.ErrInvalidStructure) {
		t.Errorf("chapterless document should be a structure error, got %v", err)
	}
}

func TestDetect(t *testing.T) {
	path := writeDoc(t, []byte(sampleDoc))
	if ok, _ := New().Detect(path); !ok {
		t.Error("Detect should accept a .yw7 file")
	}
	other := filepath.Join(t.TempDir(), "project.xml")
	os.WriteFile(other, []byte(sampleDoc), 0644)
	if ok, _ := New().Detect(other); ok {
		t.Error("Detect should reject non-.yw7 extensions")
	}
}
