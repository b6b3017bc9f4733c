package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/profile-wizard/internal/db"
	"github.com/sells-group/profile-wizard/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS wizard_sessions (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	kind         TEXT NOT NULL,
	seed         TEXT NOT NULL,
	state        TEXT NOT NULL DEFAULT 'idle',
	job_id       TEXT,
	final_data   JSONB,
	persisted_id TEXT,
	error        TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_wizard_sessions_kind ON wizard_sessions(kind);
CREATE INDEX IF NOT EXISTS idx_wizard_sessions_state ON wizard_sessions(state);
CREATE INDEX IF NOT EXISTS idx_wizard_sessions_created ON wizard_sessions(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateSession(ctx context.Context, kind model.WizardKind, seed string) (*model.WizardSession, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO wizard_sessions (id, kind, seed, state, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, string(kind), seed, "idle", now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert session")
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

func (s *PostgresStore) UpdateSessionState(ctx context.Context, id, state, jobID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE wizard_sessions SET state = $1, job_id = COALESCE(NULLIF($2, ''), job_id), updated_at = $3 WHERE id = $4`,
		state, jobID, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update session state %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("session not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) CompleteSession(ctx context.Context, id string, finalData map[string]any, persistedID string) error {
	dataJSON, err := json.Marshal(finalData)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal final data")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE wizard_sessions SET state = 'done', final_data = $1, persisted_id = $2, error = NULL, updated_at = $3 WHERE id = $4`,
		dataJSON, persistedID, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete session %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("session not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) FailSession(ctx context.Context, id, state, errMsg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE wizard_sessions SET state = $1, error = $2, updated_at = $3 WHERE id = $4`,
		state, errMsg, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail session %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("session not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) GetSession(ctx context.Context, id string) (*model.WizardSession, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, kind, seed, state, job_id, final_data, persisted_id, error, created_at, updated_at
		 FROM wizard_sessions WHERE id = $1`,
		id,
	)
	sess, err := scanPgSession(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get session %s", id)
	}
	return sess, nil
}

func (s *PostgresStore) ListSessions(ctx context.Context, filter SessionFilter) ([]model.WizardSession, error) {
	query := `SELECT id, kind, seed, state, job_id, final_data, persisted_id, error, created_at, updated_at
	          FROM wizard_sessions WHERE ($1 = '' OR kind = $1) AND ($2 = '' OR state = $2)
	          ORDER BY created_at DESC LIMIT $3 OFFSET $4`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.pool.Query(ctx, query, string(filter.Kind), filter.State, limit, filter.Offset)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list sessions")
	}
	defer rows.Close()

	var sessions []model.WizardSession
	for rows.Next() {
		sess, err := scanPgSession(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan session")
		}
		sessions = append(sessions, *sess)
	}
	return sessions, eris.Wrap(rows.Err(), "postgres: iterate sessions")
}

func scanPgSession(row pgx.Row) (*model.WizardSession, error) {
	var sess model.WizardSession
	var kind string
	var jobID, persistedID, errMsg *string
	var dataJSON []byte
	err := row.Scan(&sess.ID, &kind, &sess.Seed, &sess.State, &jobID, &dataJSON, &persistedID, &errMsg, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		return nil, err
	}
	sess.Kind = model.WizardKind(kind)
	if jobID != nil {
		sess.JobID = *jobID
	}
	if persistedID != nil {
		sess.PersistedID = *persistedID
	}
	if errMsg != nil {
		sess.Error = *errMsg
	}
	if len(dataJSON) > 0 {
		if err := json.Unmarshal(dataJSON, &sess.FinalData); err != nil {
			return nil, eris.Wrap(err, "unmarshal final data")
		}
	}
	return &sess, nil
}
