package store

import (
	"github.com/google/uuid"

	apperrors "github.com/smith-and-web/kindling-sub000/core/errors"
	"github.com/smith-and-web/kindling-sub000/core/model"
)

// LoadProjectState reads the complete state of one project: the project row,
// every child entity ordered by position, attribute maps, the scene joins,
// and the scene reference UI state. Export and snapshot capture both run on
// this view.
func (s *Store) LoadProjectState(projectID uuid.UUID) (*model.SnapshotData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	project, err := s.getProject(projectID)
	if err != nil {
		return nil, err
	}
	data := &model.SnapshotData{
		Version: model.SnapshotSchemaVersion,
		Project: project,
	}
	pid := projectID.String()

	if data.Chapters, err = s.loadChapters(pid); err != nil {
		return nil, err
	}
	if data.Scenes, err = s.loadScenes(pid); err != nil {
		return nil, err
	}
	if data.Beats, err = s.loadBeats(pid); err != nil {
		return nil, err
	}
	if data.Characters, err = s.loadCharacters(pid); err != nil {
		return nil, err
	}
	if data.Locations, err = s.loadLocations(pid); err != nil {
		return nil, err
	}
	if data.ReferenceItems, err = s.loadReferenceItems(pid); err != nil {
		return nil, err
	}
	if data.SceneCharacterRefs, err = s.loadSceneCharacterRefs(pid); err != nil {
		return nil, err
	}
	if data.SceneLocationRefs, err = s.loadSceneLocationRefs(pid); err != nil {
		return nil, err
	}
	if data.SceneReferenceItemRefs, err = s.loadSceneReferenceItemRefs(pid); err != nil {
		return nil, err
	}
	if data.SceneReferenceStates, err = s.loadSceneReferenceStates(pid); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *Store) loadChapters(pid string) ([]model.Chapter, error) {
	rows, err := s.db.Query(`SELECT id, project_id, title, COALESCE(source_id, ''), position, archived, locked, is_part
		FROM chapters WHERE project_id = ? ORDER BY position, rowid`, pid)
	if err != nil {
		return nil, apperrors.NewDB("load chapters", err)
	}
	defer rows.Close()

	var chapters []model.Chapter
	for rows.Next() {
		var c model.Chapter
		var id, projectID string
		var archived, locked, isPart int
		if err := rows.Scan(&id, &projectID, &c.Title, &c.SourceID, &c.Position, &archived, &locked, &isPart); err != nil {
			return nil, apperrors.NewDB("scan chapter", err)
		}
		if c.ID, err = uuid.Parse(id); err != nil {
			return nil, apperrors.NewDB("parse chapter id", err)
		}
		if c.ProjectID, err = uuid.Parse(projectID); err != nil {
			return nil, apperrors.NewDB("parse chapter project id", err)
		}
		c.Archived = archived != 0
		c.Locked = locked != 0
		c.IsPart = isPart != 0
		chapters = append(chapters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDB("load chapters", err)
	}
	return chapters, nil
}

func (s *Store) loadScenes(pid string) ([]model.Scene, error) {
	rows, err := s.db.Query(`SELECT s.id, s.chapter_id, s.title, s.synopsis, s.prose, COALESCE(s.source_id, ''),
		s.position, s.archived, s.locked, s.scene_type, s.scene_status
		FROM scenes s JOIN chapters c ON s.chapter_id = c.id
		WHERE c.project_id = ? ORDER BY c.position, c.rowid, s.position, s.rowid`, pid)
	if err != nil {
		return nil, apperrors.NewDB("load scenes", err)
	}
	defer rows.Close()

	var scenes []model.Scene
	for rows.Next() {
		var sc model.Scene
		var id, chapterID string
		var archived, locked int
		if err := rows.Scan(&id, &chapterID, &sc.Title, &sc.Synopsis, &sc.Prose, &sc.SourceID,
			&sc.Position, &archived, &locked, &sc.SceneType, &sc.SceneStatus); err != nil {
			return nil, apperrors.NewDB("scan scene", err)
		}
		if sc.ID, err = uuid.Parse(id); err != nil {
			return nil, apperrors.NewDB("parse scene id", err)
		}
		if sc.ChapterID, err = uuid.Parse(chapterID); err != nil {
			return nil, apperrors.NewDB("parse scene chapter id", err)
		}
		sc.Archived = archived != 0
		sc.Locked = locked != 0
		scenes = append(scenes, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDB("load scenes", err)
	}
	return scenes, nil
}

func (s *Store) loadBeats(pid string) ([]model.Beat, error) {
	rows, err := s.db.Query(`SELECT b.id, b.scene_id, b.content, b.prose, b.position
		FROM beats b JOIN scenes s ON b.scene_id = s.id JOIN chapters c ON s.chapter_id = c.id
		WHERE c.project_id = ? ORDER BY c.position, s.position, b.position, b.rowid`, pid)
	if err != nil {
		return nil, apperrors.NewDB("load beats", err)
	}
	defer rows.Close()

	var beats []model.Beat
	for rows.Next() {
		var b model.Beat
		var id, sceneID string
		if err := rows.Scan(&id, &sceneID, &b.Content, &b.Prose, &b.Position); err != nil {
			return nil, apperrors.NewDB("scan beat", err)
		}
		if b.ID, err = uuid.Parse(id); err != nil {
			return nil, apperrors.NewDB("parse beat id", err)
		}
		if b.SceneID, err = uuid.Parse(sceneID); err != nil {
			return nil, apperrors.NewDB("parse beat scene id", err)
		}
		beats = append(beats, b)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDB("load beats", err)
	}
	return beats, nil
}

func (s *Store) loadCharacters(pid string) ([]model.Character, error) {
	rows, err := s.db.Query(`SELECT id, project_id, name, description
		FROM characters WHERE project_id = ? ORDER BY rowid`, pid)
	if err != nil {
		return nil, apperrors.NewDB("load characters", err)
	}
	defer rows.Close()

	var characters []model.Character
	for rows.Next() {
		var c model.Character
		var id, projectID string
		if err := rows.Scan(&id, &projectID, &c.Name, &c.Description); err != nil {
			return nil, apperrors.NewDB("scan character", err)
		}
		if c.ID, err = uuid.Parse(id); err != nil {
			return nil, apperrors.NewDB("parse character id", err)
		}
		if c.ProjectID, err = uuid.Parse(projectID); err != nil {
			return nil, apperrors.NewDB("parse character project id", err)
		}
		characters = append(characters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDB("load characters", err)
	}
	for i := range characters {
		if characters[i].Attributes, err = s.loadAttributes(characters[i].ID); err != nil {
			return nil, err
		}
	}
	return characters, nil
}

func (s *Store) loadLocations(pid string) ([]model.Location, error) {
	rows, err := s.db.Query(`SELECT id, project_id, name, description
		FROM locations WHERE project_id = ? ORDER BY rowid`, pid)
	if err != nil {
		return nil, apperrors.NewDB("load locations", err)
	}
	defer rows.Close()

	var locations []model.Location
	for rows.Next() {
		var l model.Location
		var id, projectID string
		if err := rows.Scan(&id, &projectID, &l.Name, &l.Description); err != nil {
			return nil, apperrors.NewDB("scan location", err)
		}
		if l.ID, err = uuid.Parse(id); err != nil {
			return nil, apperrors.NewDB("parse location id", err)
		}
		if l.ProjectID, err = uuid.Parse(projectID); err != nil {
			return nil, apperrors.NewDB("parse location project id", err)
		}
		locations = append(locations, l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDB("load locations", err)
	}
	for i := range locations {
		if locations[i].Attributes, err = s.loadAttributes(locations[i].ID); err != nil {
			return nil, err
		}
	}
	return locations, nil
}

func (s *Store) loadReferenceItems(pid string) ([]model.ReferenceItem, error) {
	rows, err := s.db.Query(`SELECT id, project_id, reference_type, name, description
		FROM reference_items WHERE project_id = ? ORDER BY rowid`, pid)
	if err != nil {
		return nil, apperrors.NewDB("load reference items", err)
	}
	defer rows.Close()

	var items []model.ReferenceItem
	for rows.Next() {
		var r model.ReferenceItem
		var id, projectID string
		if err := rows.Scan(&id, &projectID, &r.ReferenceType, &r.Name, &r.Description); err != nil {
			return nil, apperrors.NewDB("scan reference item", err)
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, apperrors.NewDB("parse reference item id", err)
		}
		if r.ProjectID, err = uuid.Parse(projectID); err != nil {
			return nil, apperrors.NewDB("parse reference item project id", err)
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDB("load reference items", err)
	}
	for i := range items {
		if items[i].Attributes, err = s.loadAttributes(items[i].ID); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (s *Store) loadAttributes(owner uuid.UUID) (map[string]string, error) {
	rows, err := s.db.Query(`SELECT key, value FROM entity_attributes WHERE owner_id = ?`, owner.String())
	if err != nil {
		return nil, apperrors.NewDB("load attributes", err)
	}
	defer rows.Close()

	var attrs map[string]string
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, apperrors.NewDB("scan attribute", err)
		}
		if attrs == nil {
			attrs = make(map[string]string)
		}
		attrs[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDB("load attributes", err)
	}
	return attrs, nil
}

func (s *Store) loadSceneCharacterRefs(pid string) ([]model.SceneCharacterRef, error) {
	rows, err := s.db.Query(`SELECT r.scene_id, r.character_id
		FROM scene_character_refs r JOIN scenes s ON r.scene_id = s.id JOIN chapters c ON s.chapter_id = c.id
		WHERE c.project_id = ? ORDER BY r.rowid`, pid)
	if err != nil {
		return nil, apperrors.NewDB("load scene character refs", err)
	}
	defer rows.Close()

	var refs []model.SceneCharacterRef
	for rows.Next() {
		var sceneID, characterID string
		if err := rows.Scan(&sceneID, &characterID); err != nil {
			return nil, apperrors.NewDB("scan scene character ref", err)
		}
		ref := model.SceneCharacterRef{}
		if ref.SceneID, err = uuid.Parse(sceneID); err != nil {
			return nil, apperrors.NewDB("parse ref scene id", err)
		}
		if ref.CharacterID, err = uuid.Parse(characterID); err != nil {
			return nil, apperrors.NewDB("parse ref character id", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDB("load scene character refs", err)
	}
	return refs, nil
}

func (s *Store) loadSceneLocationRefs(pid string) ([]model.SceneLocationRef, error) {
	rows, err := s.db.Query(`SELECT r.scene_id, r.location_id
		FROM scene_location_refs r JOIN scenes s ON r.scene_id = s.id JOIN chapters c ON s.chapter_id = c.id
		WHERE c.project_id = ? ORDER BY r.rowid`, pid)
	if err != nil {
		return nil, apperrors.NewDB("load scene location refs", err)
	}
	defer rows.Close()

	var refs []model.SceneLocationRef
	for rows.Next() {
		var sceneID, locationID string
		if err := rows.Scan(&sceneID, &locationID); err != nil {
			return nil, apperrors.NewDB("scan scene location ref", err)
		}
		ref := model.SceneLocationRef{}
		if ref.SceneID, err = uuid.Parse(sceneID); err != nil {
			return nil, apperrors.NewDB("parse ref scene id", err)
		}
		if ref.LocationID, err = uuid.Parse(locationID); err != nil {
			return nil, apperrors.NewDB("parse ref location id", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDB("load scene location refs", err)
	}
	return refs, nil
}

func (s *Store) loadSceneReferenceItemRefs(pid string) ([]model.SceneReferenceItemRef, error) {
	rows, err := s.db.Query(`SELECT r.scene_id, r.reference_item_id
		FROM scene_reference_item_refs r JOIN scenes s ON r.scene_id = s.id JOIN chapters c ON s.chapter_id = c.id
		WHERE c.project_id = ? ORDER BY r.rowid`, pid)
	if err != nil {
		return nil, apperrors.NewDB("load scene reference item refs", err)
	}
	defer rows.Close()

	var refs []model.SceneReferenceItemRef
	for rows.Next() {
		var sceneID, itemID string
		if err := rows.Scan(&sceneID, &itemID); err != nil {
			return nil, apperrors.NewDB("scan scene reference item ref", err)
		}
		ref := model.SceneReferenceItemRef{}
		if ref.SceneID, err = uuid.Parse(sceneID); err != nil {
			return nil, apperrors.NewDB("parse ref scene id", err)
		}
		if ref.ReferenceItemID, err = uuid.Parse(itemID); err != nil {
			return nil, apperrors.NewDB("parse ref item id", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDB("load scene reference item refs", err)
	}
	return refs, nil
}

func (s *Store) loadSceneReferenceStates(pid string) ([]model.SceneReferenceState, error) {
	rows, err := s.db.Query(`SELECT r.scene_id, r.reference_type, r.reference_id, r.expanded, r.position
		FROM scene_reference_states r JOIN scenes s ON r.scene_id = s.id JOIN chapters c ON s.chapter_id = c.id
		WHERE c.project_id = ? ORDER BY r.position, r.rowid`, pid)
	if err != nil {
		return nil, apperrors.NewDB("load scene reference states", err)
	}
	defer rows.Close()

	var states []model.SceneReferenceState
	for rows.Next() {
		var st model.SceneReferenceState
		var sceneID, refID string
		var expanded int
		if err := rows.Scan(&sceneID, &st.ReferenceType, &refID, &expanded, &st.Position); err != nil {
			return nil, apperrors.NewDB("scan scene reference state", err)
		}
		if st.SceneID, err = uuid.Parse(sceneID); err != nil {
			return nil, apperrors.NewDB("parse state scene id", err)
		}
		if st.ReferenceID, err = uuid.Parse(refID); err != nil {
			return nil, apperrors.NewDB("parse state reference id", err)
		}
		st.Expanded = expanded != 0
		states = append(states, st)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDB("load scene reference states", err)
	}
	return states, nil
}
