package store

import (
	"context"

	"github.com/sells-group/profile-wizard/internal/model"
)

// SessionFilter specifies criteria for listing wizard sessions.
type SessionFilter struct {
	Kind   model.WizardKind `json:"kind,omitempty"`
	State  string           `json:"state,omitempty"`
	Limit  int              `json:"limit,omitempty"`
	Offset int              `json:"offset,omitempty"`
}

// Store defines persistence for wizard sessions. Sessions record the
// lifecycle of each generation wizard run so the dashboard can show
// history; the generated data itself is persisted by the backend, not
// here.
type Store interface {
	CreateSession(ctx context.Context, kind model.WizardKind, seed string) (*model.WizardSession, error)
	UpdateSessionState(ctx context.Context, id, state, jobID string) error
	CompleteSession(ctx context.Context, id string, finalData map[string]any, persistedID string) error
	FailSession(ctx context.Context, id, state, errMsg string) error
	GetSession(ctx context.Context, id string) (*model.WizardSession, error)
	ListSessions(ctx context.Context, filter SessionFilter) ([]model.WizardSession, error)

	Migrate(ctx context.Context) error
	Close() error
}
