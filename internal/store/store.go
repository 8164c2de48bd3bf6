// Package store is the relational projection of the canonical model: an
// embedded single-file SQLite database with foreign keys enforced, schema
// bootstrap plus idempotent migration, and transactional bundle operations.
//
// One Store guards one *sql.DB with a mutex. The workload is strictly
// single-user, so every public method holds the lock for the duration of its
// database work.
package store

import (
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/smith-and-web/kindling-sub000/core/errors"
	"github.com/smith-and-web/kindling-sub000/core/model"
	"github.com/smith-and-web/kindling-sub000/internal/sqlite"
)

// Store wraps the embedded database.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens (or creates) the database at path, bootstraps the schema, and
// runs the migration pass.
func Open(path string) (*Store, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, apperrors.NewDB("open database", err)
	}
	// SQLite supports one writer; serialize at the pool level too.
	db.SetMaxOpenConns(1)

	if err := bootstrap(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// withTx runs fn inside a transaction, rolling back on error. Callers must
// already hold the store lock.
func (s *Store) withTx(operation string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return apperrors.NewDB("begin "+operation, err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperrors.NewDB("commit "+operation, err)
	}
	return nil
}

// fmtTime renders a timestamp as RFC 3339 for TEXT storage.
func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime reads an RFC 3339 timestamp back out of TEXT storage.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// encodeStringList stores a string list as JSON text; the empty list is the
// empty string.
func encodeStringList(list []string) string {
	if len(list) == 0 {
		return ""
	}
	data, err := json.Marshal(list)
	if err != nil {
		return ""
	}
	return string(data)
}

func decodeStringList(s string) []string {
	if s == "" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(s), &list); err != nil {
		return nil
	}
	return list
}

// ListProjects returns every project ordered by creation time.
func (s *Store) ListProjects() ([]model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT id, name, source_type, source_path, created_at, modified_at,
		pen_name, genre, description, word_target, reference_types
		FROM projects ORDER BY created_at, rowid`)
	if err != nil {
		return nil, apperrors.NewDB("list projects", err)
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDB("list projects", err)
	}
	return projects, nil
}

// GetProject loads one project by id.
func (s *Store) GetProject(id uuid.UUID) (model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getProject(id)
}

func (s *Store) getProject(id uuid.UUID) (model.Project, error) {
	row := s.db.QueryRow(`SELECT id, name, source_type, source_path, created_at, modified_at,
		pen_name, genre, description, word_target, reference_types
		FROM projects WHERE id = ?`, id.String())
	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return model.Project{}, apperrors.NewNotFound("project", id.String())
	}
	return p, err
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanProject(sc scanner) (model.Project, error) {
	var p model.Project
	var id, created, modified, refTypes string
	err := sc.Scan(&id, &p.Name, &p.SourceType, &p.SourcePath, &created, &modified,
		&p.PenName, &p.Genre, &p.Description, &p.WordTarget, &refTypes)
	if err != nil {
		if err == sql.ErrNoRows {
			return p, err
		}
		return p, apperrors.NewDB("scan project", err)
	}
	p.ID, err = uuid.Parse(id)
	if err != nil {
		return p, apperrors.NewDB("parse project id", err)
	}
	p.CreatedAt = parseTime(created)
	p.ModifiedAt = parseTime(modified)
	p.ReferenceTypes = decodeStringList(refTypes)
	return p, nil
}

// TouchProject bumps a project's modified_at to now.
func (s *Store) TouchProject(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return touchProject(s.db, id, time.Now())
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func touchProject(ex execer, id uuid.UUID, at time.Time) error {
	if _, err := ex.Exec(`UPDATE projects SET modified_at = ? WHERE id = ?`, fmtTime(at), id.String()); err != nil {
		return apperrors.NewDB("touch project", err)
	}
	return nil
}

// UpdateSceneProse replaces a scene's prose and bumps the owning project's
// modified_at, in one transaction.
func (s *Store) UpdateSceneProse(sceneID uuid.UUID, prose string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx("update scene prose", func(tx *sql.Tx) error {
		res, err := tx.Exec(`UPDATE scenes SET prose = ? WHERE id = ?`, prose, sceneID.String())
		if err != nil {
			return apperrors.NewDB("update scene", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return apperrors.NewNotFound("scene", sceneID.String())
		}
		row := tx.QueryRow(`SELECT c.project_id FROM scenes s JOIN chapters c ON s.chapter_id = c.id WHERE s.id = ?`,
			sceneID.String())
		var projectID string
		if err := row.Scan(&projectID); err != nil {
			return apperrors.NewDB("resolve scene project", err)
		}
		pid, err := uuid.Parse(projectID)
		if err != nil {
			return apperrors.NewDB("parse project id", err)
		}
		return touchProject(tx, pid, time.Now())
	})
}

// DeleteProject removes a project; children and snapshot metadata follow by
// FK cascade.
func (s *Store) DeleteProject(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM projects WHERE id = ?`, id.String())
	if err != nil {
		return apperrors.NewDB("delete project", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NewNotFound("project", id.String())
	}
	return nil
}
