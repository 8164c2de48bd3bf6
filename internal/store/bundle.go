package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/smith-and-web/kindling-sub000/core/errors"
	"github.com/smith-and-web/kindling-sub000/core/model"
)

// InsertBundle inserts an importer's output under a single transaction, in
// canonical order: project, chapters, scenes, beats, characters, locations,
// reference items, then the scene joins. Any failure rolls back everything.
func (s *Store) InsertBundle(b *model.ParsedBundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx("import", func(tx *sql.Tx) error {
		if err := insertProject(tx, b.Project); err != nil {
			return err
		}
		for _, c := range b.Chapters {
			if err := insertChapter(tx, c); err != nil {
				return err
			}
		}
		for _, sc := range b.Scenes {
			if err := insertScene(tx, sc); err != nil {
				return err
			}
		}
		for _, bt := range b.Beats {
			if err := insertBeat(tx, bt); err != nil {
				return err
			}
		}
		for _, ch := range b.Characters {
			if err := insertCharacter(tx, ch); err != nil {
				return err
			}
		}
		for _, loc := range b.Locations {
			if err := insertLocation(tx, loc); err != nil {
				return err
			}
		}
		for _, ri := range b.ReferenceItems {
			if err := insertReferenceItem(tx, ri); err != nil {
				return err
			}
		}
		for _, ref := range b.SceneCharacterRefs {
			if err := insertSceneCharacterRef(tx, ref); err != nil {
				return err
			}
		}
		for _, ref := range b.SceneLocationRefs {
			if err := insertSceneLocationRef(tx, ref); err != nil {
				return err
			}
		}
		return nil
	})
}

// InsertProjectState inserts a complete project state, joins and UI state
// included, under one transaction. The snapshot engine uses it for
// create-new restores.
func (s *Store) InsertProjectState(data *model.SnapshotData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx("insert project state", func(tx *sql.Tx) error {
		if err := insertProject(tx, data.Project); err != nil {
			return err
		}
		return insertChildren(tx, data)
	})
}

// ReplaceProjectContents restores a snapshot over its own project id: the
// project's children are deleted (FK cascade removes joins), every snapshot
// entity is reinserted with its original identifiers, the project row takes
// the snapshot values, and modified_at is bumped. One transaction.
func (s *Store) ReplaceProjectContents(data *model.SnapshotData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	projectID := data.Project.ID.String()
	return s.withTx("replace project contents", func(tx *sql.Tx) error {
		// The attribute side table has no FK; clear it before the owners go.
		for _, q := range []string{
			`DELETE FROM entity_attributes WHERE owner_id IN (SELECT id FROM characters WHERE project_id = ?)`,
			`DELETE FROM entity_attributes WHERE owner_id IN (SELECT id FROM locations WHERE project_id = ?)`,
			`DELETE FROM entity_attributes WHERE owner_id IN (SELECT id FROM reference_items WHERE project_id = ?)`,
			`DELETE FROM chapters WHERE project_id = ?`,
			`DELETE FROM characters WHERE project_id = ?`,
			`DELETE FROM locations WHERE project_id = ?`,
			`DELETE FROM reference_items WHERE project_id = ?`,
		} {
			if _, err := tx.Exec(q, projectID); err != nil {
				return apperrors.NewDB("clear project contents", err)
			}
		}

		p := data.Project
		_, err := tx.Exec(`UPDATE projects SET name = ?, source_type = ?, source_path = ?,
			pen_name = ?, genre = ?, description = ?, word_target = ?, reference_types = ?,
			modified_at = ? WHERE id = ?`,
			p.Name, p.SourceType, p.SourcePath, p.PenName, p.Genre, p.Description,
			p.WordTarget, encodeStringList(p.ReferenceTypes), fmtTime(time.Now()), projectID)
		if err != nil {
			return apperrors.NewDB("restore project row", err)
		}

		return insertChildren(tx, data)
	})
}

// insertChildren inserts everything below the project row, in FK order.
func insertChildren(tx *sql.Tx, data *model.SnapshotData) error {
	for _, c := range data.Chapters {
		if err := insertChapter(tx, c); err != nil {
			return err
		}
	}
	for _, sc := range data.Scenes {
		if err := insertScene(tx, sc); err != nil {
			return err
		}
	}
	for _, bt := range data.Beats {
		if err := insertBeat(tx, bt); err != nil {
			return err
		}
	}
	for _, ch := range data.Characters {
		if err := insertCharacter(tx, ch); err != nil {
			return err
		}
	}
	for _, loc := range data.Locations {
		if err := insertLocation(tx, loc); err != nil {
			return err
		}
	}
	for _, ri := range data.ReferenceItems {
		if err := insertReferenceItem(tx, ri); err != nil {
			return err
		}
	}
	for _, ref := range data.SceneCharacterRefs {
		if err := insertSceneCharacterRef(tx, ref); err != nil {
			return err
		}
	}
	for _, ref := range data.SceneLocationRefs {
		if err := insertSceneLocationRef(tx, ref); err != nil {
			return err
		}
	}
	for _, ref := range data.SceneReferenceItemRefs {
		_, err := tx.Exec(`INSERT INTO scene_reference_item_refs (scene_id, reference_item_id) VALUES (?, ?)`,
			ref.SceneID.String(), ref.ReferenceItemID.String())
		if err != nil {
			return apperrors.NewDB("insert scene reference item ref", err)
		}
	}
	for _, st := range data.SceneReferenceStates {
		_, err := tx.Exec(`INSERT INTO scene_reference_states (scene_id, reference_type, reference_id, expanded, position)
			VALUES (?, ?, ?, ?, ?)`,
			st.SceneID.String(), st.ReferenceType, st.ReferenceID.String(), boolToInt(st.Expanded), st.Position)
		if err != nil {
			return apperrors.NewDB("insert scene reference state", err)
		}
	}
	return nil
}

func insertProject(tx *sql.Tx, p model.Project) error {
	_, err := tx.Exec(`INSERT INTO projects (id, name, source_type, source_path, created_at, modified_at,
		pen_name, genre, description, word_target, reference_types)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID.String(), p.Name, p.SourceType, p.SourcePath, fmtTime(p.CreatedAt), fmtTime(p.ModifiedAt),
		p.PenName, p.Genre, p.Description, p.WordTarget, encodeStringList(p.ReferenceTypes))
	if err != nil {
		return apperrors.NewDB("insert project", err)
	}
	return nil
}

func insertChapter(tx *sql.Tx, c model.Chapter) error {
	_, err := tx.Exec(`INSERT INTO chapters (id, project_id, title, source_id, position, archived, locked, is_part)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID.String(), c.ProjectID.String(), c.Title, nullable(c.SourceID), c.Position,
		boolToInt(c.Archived), boolToInt(c.Locked), boolToInt(c.IsPart))
	if err != nil {
		return apperrors.NewDB("insert chapter", err)
	}
	return nil
}

func insertScene(tx *sql.Tx, sc model.Scene) error {
	_, err := tx.Exec(`INSERT INTO scenes (id, chapter_id, title, synopsis, prose, source_id, position,
		archived, locked, scene_type, scene_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sc.ID.String(), sc.ChapterID.String(), sc.Title, sc.Synopsis, sc.Prose, nullable(sc.SourceID),
		sc.Position, boolToInt(sc.Archived), boolToInt(sc.Locked), sc.SceneType, sc.SceneStatus)
	if err != nil {
		return apperrors.NewDB("insert scene", err)
	}
	return nil
}

func insertBeat(tx *sql.Tx, b model.Beat) error {
	_, err := tx.Exec(`INSERT INTO beats (id, scene_id, content, prose, position) VALUES (?, ?, ?, ?, ?)`,
		b.ID.String(), b.SceneID.String(), b.Content, b.Prose, b.Position)
	if err != nil {
		return apperrors.NewDB("insert beat", err)
	}
	return nil
}

func insertCharacter(tx *sql.Tx, c model.Character) error {
	_, err := tx.Exec(`INSERT INTO characters (id, project_id, name, description) VALUES (?, ?, ?, ?)`,
		c.ID.String(), c.ProjectID.String(), c.Name, c.Description)
	if err != nil {
		return apperrors.NewDB("insert character", err)
	}
	return insertAttributes(tx, c.ID, c.Attributes)
}

func insertLocation(tx *sql.Tx, l model.Location) error {
	_, err := tx.Exec(`INSERT INTO locations (id, project_id, name, description) VALUES (?, ?, ?, ?)`,
		l.ID.String(), l.ProjectID.String(), l.Name, l.Description)
	if err != nil {
		return apperrors.NewDB("insert location", err)
	}
	return insertAttributes(tx, l.ID, l.Attributes)
}

func insertReferenceItem(tx *sql.Tx, r model.ReferenceItem) error {
	_, err := tx.Exec(`INSERT INTO reference_items (id, project_id, reference_type, name, description)
		VALUES (?, ?, ?, ?, ?)`,
		r.ID.String(), r.ProjectID.String(), r.ReferenceType, r.Name, r.Description)
	if err != nil {
		return apperrors.NewDB("insert reference item", err)
	}
	return insertAttributes(tx, r.ID, r.Attributes)
}

func insertAttributes(tx *sql.Tx, owner uuid.UUID, attrs map[string]string) error {
	for key, value := range attrs {
		_, err := tx.Exec(`INSERT INTO entity_attributes (owner_id, key, value) VALUES (?, ?, ?)`,
			owner.String(), key, value)
		if err != nil {
			return apperrors.NewDB("insert attribute", err)
		}
	}
	return nil
}

func insertSceneCharacterRef(tx *sql.Tx, ref model.SceneCharacterRef) error {
	_, err := tx.Exec(`INSERT INTO scene_character_refs (scene_id, character_id) VALUES (?, ?)`,
		ref.SceneID.String(), ref.CharacterID.String())
	if err != nil {
		return apperrors.NewDB("insert scene character ref", err)
	}
	return nil
}

func insertSceneLocationRef(tx *sql.Tx, ref model.SceneLocationRef) error {
	_, err := tx.Exec(`INSERT INTO scene_location_refs (scene_id, location_id) VALUES (?, ?)`,
		ref.SceneID.String(), ref.LocationID.String())
	if err != nil {
		return apperrors.NewDB("insert scene location ref", err)
	}
	return nil
}

// nullable maps the empty string to SQL NULL for optional text columns.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
