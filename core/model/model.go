// Package model defines the canonical Kindling project model shared by the
// importers, the relational store, the snapshot engine, and the exporters.
//
// Every entity carries an opaque 128-bit identifier. Timestamps are RFC 3339.
// Prose fields hold rich text as HTML fragments; they are interpreted by the
// smarttext pipeline and never validated here.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Source types for Project.SourceType. The schema column is an open string;
// this is the closed set the importers produce.
const (
	SourceScrivener = "scrivener"
	SourcePlottr    = "plottr"
	SourceMarkdown  = "markdown"
	SourceLongform  = "longform"
	SourceYWriter   = "ywriter"
)

// Scene defaults.
const (
	SceneTypeNormal   = "normal"
	SceneStatusDraft  = "draft"
	ReferenceTypeItem = "item"
)

// Snapshot triggers.
const (
	TriggerManual = "manual"
	TriggerExport = "export"
	TriggerAuto   = "auto"
)

// SnapshotSchemaVersion is the current snapshot archive schema version.
const SnapshotSchemaVersion = 1

// Project is the root entity.
type Project struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	SourceType     string    `json:"source_type"`
	SourcePath     string    `json:"source_path,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	ModifiedAt     time.Time `json:"modified_at"`
	PenName        string    `json:"pen_name,omitempty"`
	Genre          string    `json:"genre,omitempty"`
	Description    string    `json:"description,omitempty"`
	WordTarget     int       `json:"word_target,omitempty"`
	ReferenceTypes []string  `json:"reference_types,omitempty"`
}

// Chapter belongs to exactly one project, ordered by Position.
type Chapter struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"project_id"`
	Title     string    `json:"title"`
	SourceID  string    `json:"source_id,omitempty"`
	Position  int       `json:"position"`
	Archived  bool      `json:"archived"`
	Locked    bool      `json:"locked"`
	IsPart    bool      `json:"is_part"`
}

// Scene belongs to exactly one chapter, ordered by Position.
type Scene struct {
	ID          uuid.UUID `json:"id"`
	ChapterID   uuid.UUID `json:"chapter_id"`
	Title       string    `json:"title"`
	Synopsis    string    `json:"synopsis,omitempty"`
	Prose       string    `json:"prose,omitempty"`
	SourceID    string    `json:"source_id,omitempty"`
	Position    int       `json:"position"`
	Archived    bool      `json:"archived"`
	Locked      bool      `json:"locked"`
	SceneType   string    `json:"scene_type"`
	SceneStatus string    `json:"scene_status"`
}

// Beat is the smallest structural unit: a short note plus an optional prose
// body, which is the actual manuscript text for that beat.
type Beat struct {
	ID       uuid.UUID `json:"id"`
	SceneID  uuid.UUID `json:"scene_id"`
	Content  string    `json:"content"`
	Prose    string    `json:"prose,omitempty"`
	Position int       `json:"position"`
}

// Character belongs to a project and carries a free-form attribute map.
type Character struct {
	ID          uuid.UUID         `json:"id"`
	ProjectID   uuid.UUID         `json:"project_id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// Location belongs to a project and carries a free-form attribute map.
type Location struct {
	ID          uuid.UUID         `json:"id"`
	ProjectID   uuid.UUID         `json:"project_id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// ReferenceItem is a Character/Location-like entity with a user-defined
// reference type discriminator.
type ReferenceItem struct {
	ID            uuid.UUID         `json:"id"`
	ProjectID     uuid.UUID         `json:"project_id"`
	ReferenceType string            `json:"reference_type"`
	Name          string            `json:"name"`
	Description   string            `json:"description,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty"`
}

// SceneCharacterRef is a scene-to-character join tuple.
type SceneCharacterRef struct {
	SceneID     uuid.UUID `json:"scene_id"`
	CharacterID uuid.UUID `json:"character_id"`
}

// SceneLocationRef is a scene-to-location join tuple.
type SceneLocationRef struct {
	SceneID    uuid.UUID `json:"scene_id"`
	LocationID uuid.UUID `json:"location_id"`
}

// SceneReferenceItemRef is a scene-to-reference-item join tuple.
type SceneReferenceItemRef struct {
	SceneID         uuid.UUID `json:"scene_id"`
	ReferenceItemID uuid.UUID `json:"reference_item_id"`
}

// SceneReferenceState holds per-scene ordering and expand/collapse UI state
// for references, keyed by (scene, reference_type, reference_id).
type SceneReferenceState struct {
	SceneID       uuid.UUID `json:"scene_id"`
	ReferenceType string    `json:"reference_type"`
	ReferenceID   uuid.UUID `json:"reference_id"`
	Expanded      bool      `json:"expanded"`
	Position      int       `json:"position"`
}

// SnapshotMetadata is the DB-resident row pointing at a snapshot archive.
type SnapshotMetadata struct {
	ID               uuid.UUID `json:"id"`
	ProjectID        uuid.UUID `json:"project_id"`
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	Trigger          string    `json:"trigger"`
	CreatedAt        time.Time `json:"created_at"`
	FilePath         string    `json:"file_path"`
	CompressedSize   int64     `json:"compressed_size"`
	UncompressedSize int64     `json:"uncompressed_size"`
	ChapterCount     int       `json:"chapter_count"`
	SceneCount       int       `json:"scene_count"`
	BeatCount        int       `json:"beat_count"`
	WordCount        int       `json:"word_count"`
	SchemaVersion    int       `json:"schema_version"`
	Checksum         string    `json:"checksum,omitempty"`
}

// ParsedBundle is the canonical output of every importer. The command layer
// inserts its slices under a single transaction, in field order.
type ParsedBundle struct {
	Project            Project
	Chapters           []Chapter
	Scenes             []Scene
	Beats              []Beat
	Characters         []Character
	Locations          []Location
	ReferenceItems     []ReferenceItem
	SceneCharacterRefs []SceneCharacterRef
	SceneLocationRefs  []SceneLocationRef
}

// SnapshotData is the wire format of a snapshot archive: a gzip-compressed
// UTF-8 JSON document with exactly these top-level keys. Unknown keys are
// ignored on decode; missing lists default to empty.
type SnapshotData struct {
	Version                int                     `json:"version"`
	CreatedAt              time.Time               `json:"created_at"`
	Project                Project                 `json:"project"`
	Chapters               []Chapter               `json:"chapters"`
	Scenes                 []Scene                 `json:"scenes"`
	Beats                  []Beat                  `json:"beats"`
	Characters             []Character             `json:"characters"`
	Locations              []Location              `json:"locations"`
	ReferenceItems         []ReferenceItem         `json:"reference_items"`
	SceneCharacterRefs     []SceneCharacterRef     `json:"scene_character_refs"`
	SceneLocationRefs      []SceneLocationRef      `json:"scene_location_refs"`
	SceneReferenceItemRefs []SceneReferenceItemRef `json:"scene_reference_item_refs"`
	SceneReferenceStates   []SceneReferenceState   `json:"scene_reference_states"`
}

// NewProject creates a project with a fresh identity and both timestamps set
// to now.
func NewProject(name, sourceType string) Project {
	now := time.Now().UTC()
	return Project{
		ID:         uuid.New(),
		Name:       name,
		SourceType: sourceType,
		CreatedAt:  now,
		ModifiedAt: now,
	}
}

// NewScene creates a scene with default type and status applied.
func NewScene(chapterID uuid.UUID, title string, position int) Scene {
	return Scene{
		ID:          uuid.New(),
		ChapterID:   chapterID,
		Title:       title,
		Position:    position,
		SceneType:   SceneTypeNormal,
		SceneStatus: SceneStatusDraft,
	}
}

// CountWords returns the number of whitespace-delimited tokens in s.
func CountWords(s string) int {
	return len(strings.Fields(s))
}

// RawWordCount computes the snapshot word count: whitespace-split tokens of
// raw scene and beat prose, archived entities included, no HTML stripping.
func RawWordCount(scenes []Scene, beats []Beat) int {
	total := 0
	for _, s := range scenes {
		total += CountWords(s.Prose)
	}
	for _, b := range beats {
		total += CountWords(b.Prose)
	}
	return total
}
