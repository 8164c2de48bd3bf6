package store

import (
	"database/sql"

	"github.com/google/uuid"

	apperrors "github.com/smith-and-web/kindling-sub000/core/errors"
	"github.com/smith-and-web/kindling-sub000/core/model"
)

const snapshotColumns = `id, project_id, name, description, trigger_type, created_at, file_path,
	compressed_size, uncompressed_size, chapter_count, scene_count, beat_count, word_count,
	schema_version, checksum`

// InsertSnapshot records metadata for an archive written to disk.
func (s *Store) InsertSnapshot(m model.SnapshotMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT INTO snapshots (`+snapshotColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID.String(), m.ProjectID.String(), m.Name, m.Description, m.Trigger, fmtTime(m.CreatedAt),
		m.FilePath, m.CompressedSize, m.UncompressedSize, m.ChapterCount, m.SceneCount, m.BeatCount,
		m.WordCount, m.SchemaVersion, m.Checksum)
	if err != nil {
		return apperrors.NewDB("insert snapshot", err)
	}
	return nil
}

// ListSnapshots returns a project's snapshot metadata, newest first.
func (s *Store) ListSnapshots(projectID uuid.UUID) ([]model.SnapshotMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT `+snapshotColumns+` FROM snapshots
		WHERE project_id = ? ORDER BY created_at DESC, rowid DESC`, projectID.String())
	if err != nil {
		return nil, apperrors.NewDB("list snapshots", err)
	}
	defer rows.Close()

	var metas []model.SnapshotMetadata
	for rows.Next() {
		m, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		metas = append(metas, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDB("list snapshots", err)
	}
	return metas, nil
}

// GetSnapshot loads one snapshot's metadata by id.
func (s *Store) GetSnapshot(id uuid.UUID) (model.SnapshotMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`SELECT `+snapshotColumns+` FROM snapshots WHERE id = ?`, id.String())
	m, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return model.SnapshotMetadata{}, apperrors.NewNotFound("snapshot", id.String())
	}
	return m, err
}

// DeleteSnapshotMeta removes a snapshot's metadata row. The caller handles
// the archive file.
func (s *Store) DeleteSnapshotMeta(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM snapshots WHERE id = ?`, id.String())
	if err != nil {
		return apperrors.NewDB("delete snapshot", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NewNotFound("snapshot", id.String())
	}
	return nil
}

func scanSnapshot(sc scanner) (model.SnapshotMetadata, error) {
	var m model.SnapshotMetadata
	var id, projectID, created string
	err := sc.Scan(&id, &projectID, &m.Name, &m.Description, &m.Trigger, &created, &m.FilePath,
		&m.CompressedSize, &m.UncompressedSize, &m.ChapterCount, &m.SceneCount, &m.BeatCount,
		&m.WordCount, &m.SchemaVersion, &m.Checksum)
	if err != nil {
		if err == sql.ErrNoRows {
			return m, err
		}
		return m, apperrors.NewDB("scan snapshot", err)
	}
	if m.ID, err = uuid.Parse(id); err != nil {
		return m, apperrors.NewDB("parse snapshot id", err)
	}
	if m.ProjectID, err = uuid.Parse(projectID); err != nil {
		return m, apperrors.NewDB("parse snapshot project id", err)
	}
	m.CreatedAt = parseTime(created)
	return m, nil
}
