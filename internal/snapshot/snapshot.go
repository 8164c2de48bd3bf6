// Package snapshot captures and restores dated, compressed archives of a
// project's full state. An archive is a gzip-packed JSON document; a metadata
// row in the database carries sizes, counts, and an integrity checksum.
package snapshot

import (
	"bytes"
	"compress/gzip"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	apperrors "github.com/smith-and-web/kindling-sub000/core/errors"
	"github.com/smith-and-web/kindling-sub000/core/model"
	"github.com/smith-and-web/kindling-sub000/internal/fileutil"
	"github.com/smith-and-web/kindling-sub000/internal/logging"
	"github.com/smith-and-web/kindling-sub000/internal/paths"
	"github.com/smith-and-web/kindling-sub000/internal/store"
)

// RestoreMode selects how a snapshot is materialized.
type RestoreMode int

const (
	// RestoreReplace writes the snapshot back over its own project id.
	RestoreReplace RestoreMode = iota
	// RestoreCreateNew materializes the snapshot as a new project with
	// fresh identifiers throughout.
	RestoreCreateNew
)

// Engine runs snapshot operations against one store.
type Engine struct {
	store *store.Store
}

// New returns a snapshot engine bound to st.
func New(st *store.Store) *Engine {
	return &Engine{store: st}
}

// Capture archives the project's full state and records a metadata row.
// trigger is one of model.TriggerManual, TriggerExport, TriggerAuto.
func (e *Engine) Capture(projectID uuid.UUID, name, description, trigger string) (model.SnapshotMetadata, error) {
	data, err := e.store.LoadProjectState(projectID)
	if err != nil {
		return model.SnapshotMetadata{}, err
	}
	now := time.Now()
	data.CreatedAt = now

	raw, err := json.Marshal(data)
	if err != nil {
		return model.SnapshotMetadata{}, apperrors.Wrap(err, "encoding snapshot")
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		zw.Close()
		return model.SnapshotMetadata{}, apperrors.Wrap(err, "compressing snapshot")
	}
	if err := zw.Close(); err != nil {
		return model.SnapshotMetadata{}, apperrors.Wrap(err, "compressing snapshot")
	}

	dir, err := paths.SnapshotDir(projectID)
	if err != nil {
		return model.SnapshotMetadata{}, apperrors.NewIO("create", "snapshot dir", err)
	}
	filename := fmt.Sprintf("%s_%s.json.gz", now.Format("2006-01-02_150405"), trigger)
	path := filepath.Join(dir, filename)
	if err := fileutil.AtomicWrite(path, buf.Bytes()); err != nil {
		return model.SnapshotMetadata{}, apperrors.NewIO("write", path, err)
	}

	sum := blake3.Sum256(raw)
	meta := model.SnapshotMetadata{
		ID:               uuid.New(),
		ProjectID:        projectID,
		Name:             name,
		Description:      description,
		Trigger:          trigger,
		CreatedAt:        now,
		FilePath:         path,
		CompressedSize:   int64(buf.Len()),
		UncompressedSize: int64(len(raw)),
		ChapterCount:     len(data.Chapters),
		SceneCount:       len(data.Scenes),
		BeatCount:        len(data.Beats),
		WordCount:        model.RawWordCount(data.Scenes, data.Beats),
		SchemaVersion:    model.SnapshotSchemaVersion,
		Checksum:         hex.EncodeToString(sum[:]),
	}
	if err := e.store.InsertSnapshot(meta); err != nil {
		os.Remove(path)
		return model.SnapshotMetadata{}, err
	}

	logging.Info("snapshot captured",
		"project", projectID.String(),
		"trigger", trigger,
		"compressed", meta.CompressedSize,
		"words", meta.WordCount)
	return meta, nil
}

// Restore materializes a snapshot. For RestoreCreateNew, newName overrides
// the default "{original} (Copy)" name when non-empty. The returned id is
// the project the snapshot landed in.
func (e *Engine) Restore(snapshotID uuid.UUID, mode RestoreMode, newName string) (uuid.UUID, error) {
	meta, err := e.store.GetSnapshot(snapshotID)
	if err != nil {
		return uuid.Nil, err
	}
	data, err := readArchive(meta.FilePath, meta.Checksum)
	if err != nil {
		return uuid.Nil, err
	}

	switch mode {
	case RestoreReplace:
		if err := e.store.ReplaceProjectContents(data); err != nil {
			return uuid.Nil, err
		}
		logging.Info("snapshot restored in place", "project", data.Project.ID.String())
		return data.Project.ID, nil
	case RestoreCreateNew:
		clone := remapIdentities(data)
		if newName != "" {
			clone.Project.Name = newName
		} else {
			clone.Project.Name = data.Project.Name + " (Copy)"
		}
		now := time.Now().UTC()
		clone.Project.CreatedAt = now
		clone.Project.ModifiedAt = now
		if err := e.store.InsertProjectState(clone); err != nil {
			return uuid.Nil, err
		}
		logging.Info("snapshot restored as new project",
			"source", data.Project.ID.String(),
			"project", clone.Project.ID.String())
		return clone.Project.ID, nil
	default:
		return uuid.Nil, fmt.Errorf("unknown restore mode %d", mode)
	}
}

// Preview returns the metadata plus the archived project's name without
// materializing anything.
func (e *Engine) Preview(snapshotID uuid.UUID) (model.SnapshotMetadata, string, error) {
	meta, err := e.store.GetSnapshot(snapshotID)
	if err != nil {
		return model.SnapshotMetadata{}, "", err
	}
	data, err := readArchive(meta.FilePath, meta.Checksum)
	if err != nil {
		return model.SnapshotMetadata{}, "", err
	}
	return meta, data.Project.Name, nil
}

// List returns the project's snapshots, newest first.
func (e *Engine) List(projectID uuid.UUID) ([]model.SnapshotMetadata, error) {
	return e.store.ListSnapshots(projectID)
}

// Delete removes the archive file and the metadata row. A missing file is
// not an error.
func (e *Engine) Delete(snapshotID uuid.UUID) error {
	meta, err := e.store.GetSnapshot(snapshotID)
	if err != nil {
		return err
	}
	if err := os.Remove(meta.FilePath); err != nil && !os.IsNotExist(err) {
		return apperrors.NewIO("remove", meta.FilePath, err)
	}
	return e.store.DeleteSnapshotMeta(snapshotID)
}

// readArchive opens, decompresses, verifies, and decodes a snapshot file.
// Current archives are gzip; .json.xz files from older installs are still
// readable.
func readArchive(path, checksum string) (*model.SnapshotData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewIO("open", path, err)
	}
	defer f.Close()

	var zr io.Reader
	if strings.HasSuffix(path, ".xz") {
		zr, err = xz.NewReader(f)
	} else {
		zr, err = gzip.NewReader(f)
	}
	if err != nil {
		return nil, apperrors.NewCorrupt(path, "cannot open compressed stream", err)
	}
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, apperrors.NewCorrupt(path, "cannot decompress archive", err)
	}

	if checksum != "" {
		sum := blake3.Sum256(raw)
		if hex.EncodeToString(sum[:]) != checksum {
			return nil, apperrors.NewCorrupt(path, "checksum mismatch", nil)
		}
	}

	var data model.SnapshotData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, apperrors.NewCorrupt(path, "archive JSON does not decode", err)
	}
	return &data, nil
}

// remapIdentities builds the clone used by create-new restores: one
// dictionary keyed by old id, prefilled for every entity, then every FK
// field translated in a second pass.
func remapIdentities(data *model.SnapshotData) *model.SnapshotData {
	idMap := make(map[uuid.UUID]uuid.UUID)
	fresh := func(old uuid.UUID) uuid.UUID {
		id := uuid.New()
		idMap[old] = id
		return id
	}
	mapped := func(old uuid.UUID) uuid.UUID {
		if id, ok := idMap[old]; ok {
			return id
		}
		return old
	}

	clone := *data
	clone.Project.ID = fresh(data.Project.ID)

	clone.Chapters = make([]model.Chapter, len(data.Chapters))
	for i, c := range data.Chapters {
		c.ID = fresh(c.ID)
		clone.Chapters[i] = c
	}
	clone.Scenes = make([]model.Scene, len(data.Scenes))
	for i, sc := range data.Scenes {
		sc.ID = fresh(sc.ID)
		clone.Scenes[i] = sc
	}
	clone.Beats = make([]model.Beat, len(data.Beats))
	for i, b := range data.Beats {
		b.ID = fresh(b.ID)
		clone.Beats[i] = b
	}
	clone.Characters = make([]model.Character, len(data.Characters))
	for i, c := range data.Characters {
		c.ID = fresh(c.ID)
		clone.Characters[i] = c
	}
	clone.Locations = make([]model.Location, len(data.Locations))
	for i, l := range data.Locations {
		l.ID = fresh(l.ID)
		clone.Locations[i] = l
	}
	clone.ReferenceItems = make([]model.ReferenceItem, len(data.ReferenceItems))
	for i, r := range data.ReferenceItems {
		r.ID = fresh(r.ID)
		clone.ReferenceItems[i] = r
	}

	// Second pass: translate every FK through the prefilled map.
	for i := range clone.Chapters {
		clone.Chapters[i].ProjectID = mapped(data.Project.ID)
	}
	for i := range clone.Scenes {
		clone.Scenes[i].ChapterID = mapped(clone.Scenes[i].ChapterID)
	}
	for i := range clone.Beats {
		clone.Beats[i].SceneID = mapped(clone.Beats[i].SceneID)
	}
	for i := range clone.Characters {
		clone.Characters[i].ProjectID = mapped(data.Project.ID)
	}
	for i := range clone.Locations {
		clone.Locations[i].ProjectID = mapped(data.Project.ID)
	}
	for i := range clone.ReferenceItems {
		clone.ReferenceItems[i].ProjectID = mapped(data.Project.ID)
	}

	clone.SceneCharacterRefs = make([]model.SceneCharacterRef, len(data.SceneCharacterRefs))
	for i, ref := range data.SceneCharacterRefs {
		ref.SceneID = mapped(ref.SceneID)
		ref.CharacterID = mapped(ref.CharacterID)
		clone.SceneCharacterRefs[i] = ref
	}
	clone.SceneLocationRefs = make([]model.SceneLocationRef, len(data.SceneLocationRefs))
	for i, ref := range data.SceneLocationRefs {
		ref.SceneID = mapped(ref.SceneID)
		ref.LocationID = mapped(ref.LocationID)
		clone.SceneLocationRefs[i] = ref
	}
	clone.SceneReferenceItemRefs = make([]model.SceneReferenceItemRef, len(data.SceneReferenceItemRefs))
	for i, ref := range data.SceneReferenceItemRefs {
		ref.SceneID = mapped(ref.SceneID)
		ref.ReferenceItemID = mapped(ref.ReferenceItemID)
		clone.SceneReferenceItemRefs[i] = ref
	}
	clone.SceneReferenceStates = make([]model.SceneReferenceState, len(data.SceneReferenceStates))
	for i, st := range data.SceneReferenceStates {
		st.SceneID = mapped(st.SceneID)
		st.ReferenceID = mapped(st.ReferenceID)
		clone.SceneReferenceStates[i] = st
	}

	return &clone
}
