package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/profile-wizard/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS wizard_sessions (
	id           TEXT PRIMARY KEY,
	kind         TEXT NOT NULL,
	seed         TEXT NOT NULL,
	state        TEXT NOT NULL DEFAULT 'idle',
	job_id       TEXT,
	final_data   TEXT,
	persisted_id TEXT,
	error        TEXT,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_wizard_sessions_kind ON wizard_sessions(kind);
CREATE INDEX IF NOT EXISTS idx_wizard_sessions_state ON wizard_sessions(state);
CREATE INDEX IF NOT EXISTS idx_wizard_sessions_created ON wizard_sessions(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateSession(ctx context.Context, kind model.WizardKind, seed string) (*model.WizardSession, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO wizard_sessions (id, kind, seed, state, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, string(kind), seed, "idle", now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert session")
	}

	return &model.WizardSession{
		ID:        id,
		Kind:      kind,
		Seed:      seed,
		State:     "idle",
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) UpdateSessionState(ctx context.Context, id, state, jobID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE wizard_sessions SET state = ?, job_id = COALESCE(NULLIF(?, ''), job_id), updated_at = ? WHERE id = ?`,
		state, jobID, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update session state %s", id)
	}
	return checkRowsAffected(res, "session", id)
}

func (s *SQLiteStore) CompleteSession(ctx context.Context, id string, finalData map[string]any, persistedID string) error {
	dataJSON, err := json.Marshal(finalData)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal final data")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE wizard_sessions SET state = 'done', final_data = ?, persisted_id = ?, error = NULL, updated_at = ? WHERE id = ?`,
		string(dataJSON), persistedID, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete session %s", id)
	}
	return checkRowsAffected(res, "session", id)
}

func (s *SQLiteStore) FailSession(ctx context.Context, id, state, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE wizard_sessions SET state = ?, error = ?, updated_at = ? WHERE id = ?`,
		state, errMsg, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail session %s", id)
	}
	return checkRowsAffected(res, "session", id)
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*model.WizardSession, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind, seed, state, job_id, final_data, persisted_id, error, created_at, updated_at
		 FROM wizard_sessions WHERE id = ?`,
		id,
	)
	sess, err := scanSession(row)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get session %s", id)
	}
	return sess, nil
}

func (s *SQLiteStore) ListSessions(ctx context.Context, filter SessionFilter) ([]model.WizardSession, error) {
	query := `SELECT id, kind, seed, state, job_id, final_data, persisted_id, error, created_at, updated_at
	          FROM wizard_sessions WHERE 1=1`
	var args []any

	if filter.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(filter.Kind))
	}
	if filter.State != "" {
		query += ` AND state = ?`
		args = append(args, filter.State)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list sessions")
	}
	defer rows.Close()

	var sessions []model.WizardSession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan session")
		}
		sessions = append(sessions, *sess)
	}
	return sessions, eris.Wrap(rows.Err(), "sqlite: iterate sessions")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSession(row scannable) (*model.WizardSession, error) {
	var sess model.WizardSession
	var kind string
	var jobID, dataJSON, persistedID, errMsg sql.NullString
	err := row.Scan(&sess.ID, &kind, &sess.Seed, &sess.State, &jobID, &dataJSON, &persistedID, &errMsg, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		return nil, err
	}
	sess.Kind = model.WizardKind(kind)
	sess.JobID = jobID.String
	sess.PersistedID = persistedID.String
	sess.Error = errMsg.String
	if dataJSON.Valid && dataJSON.String != "" {
		if err := json.Unmarshal([]byte(dataJSON.String), &sess.FinalData); err != nil {
			return nil, eris.Wrap(err, "unmarshal final data")
		}
	}
	return &sess, nil
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
