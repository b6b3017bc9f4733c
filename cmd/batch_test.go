package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/profile-wizard/internal/config"
	"github.com/sells-group/profile-wizard/internal/model"
	"github.com/sells-group/profile-wizard/internal/schema"
	"github.com/sells-group/profile-wizard/internal/store"
	"github.com/sells-group/profile-wizard/internal/wizard"
	"github.com/sells-group/profile-wizard/pkg/generation"
)

// mockClient implements generation.Client with injectable behavior.
type mockClient struct {
	startFunc   func(ctx context.Context, req generation.StartRequest) (*generation.StartResponse, error)
	statusFunc  func(ctx context.Context, jobID string) (*generation.StatusResponse, error)
	confirmFunc func(ctx context.Context, req generation.ConfirmRequest) (*generation.ConfirmResponse, error)
}

func (m *mockClient) Start(ctx context.Context, req generation.StartRequest) (*generation.StartResponse, error) {
	return m.startFunc(ctx, req)
}

func (m *mockClient) Status(ctx context.Context, jobID string) (*generation.StatusResponse, error) {
	return m.statusFunc(ctx, jobID)
}

func (m *mockClient) Confirm(ctx context.Context, req generation.ConfirmRequest) (*generation.ConfirmResponse, error) {
	return m.confirmFunc(ctx, req)
}

func happyClient() *mockClient {
	return &mockClient{
		startFunc: func(ctx context.Context, req generation.StartRequest) (*generation.StartResponse, error) {
			return &generation.StartResponse{JobID: "job-1", Status: generation.StatusPending}, nil
		},
		statusFunc: func(ctx context.Context, jobID string) (*generation.StatusResponse, error) {
			return &generation.StatusResponse{
				JobID:  jobID,
				Status: generation.StatusCompleted,
				Data:   map[string]any{"company_name": "Acme Corp"},
				Provenance: map[string]generation.FieldProvenance{
					"company_name": {Source: "website", Confidence: 0.9, Editable: true},
				},
			}, nil
		},
		confirmFunc: func(ctx context.Context, req generation.ConfirmRequest) (*generation.ConfirmResponse, error) {
			return &generation.ConfirmResponse{Success: true, PersistedID: "rec-1"}, nil
		},
	}
}

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seeds.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadSeeds(t *testing.T) {
	path := writeTempCSV(t, "url\nhttps://acme.example\n\nhttps://globex.example,note\n")

	seeds, err := readSeeds(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://acme.example", "https://globex.example"}, seeds)
}

func TestReadSeeds_SkipsBlankAndHeaderRows(t *testing.T) {
	path := writeTempCSV(t, "Seed\n  \nhttps://acme.example\n")

	seeds, err := readSeeds(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://acme.example"}, seeds)
}

func TestReadSeeds_MissingFile(t *testing.T) {
	_, err := readSeeds(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestParseEdits(t *testing.T) {
	edits, err := parseEdits([]string{"company_name=Acme Corp", "industry=Manufacturing"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"company_name": "Acme Corp",
		"industry":     "Manufacturing",
	}, edits)
}

func TestParseEdits_RejectsMalformed(t *testing.T) {
	_, err := parseEdits([]string{"noequals"})
	assert.Error(t, err)

	_, err = parseEdits([]string{"=value"})
	assert.Error(t, err)
}

func TestProcessBatch_ToleratesIndividualFailures(t *testing.T) {
	prev := cfg
	cfg = &config.Config{Batch: config.BatchConfig{MaxConcurrent: 2, StartsPerSec: 1000}}
	t.Cleanup(func() { cfg = prev })

	ctx := context.Background()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(ctx))

	kind := model.KindCompanyProfile
	fields := schema.Default().ForKind(kind)
	seeds := []string{"https://acme.example", "not a url", "https://globex.example"}

	err = processBatch(ctx, st, kind, seeds, 0, func() *wizard.Wizard {
		return wizard.New(kind, happyClient(), fields)
	})
	require.NoError(t, err, "one bad seed must not abort the batch")

	sessions, err := st.ListSessions(ctx, store.SessionFilter{Kind: kind})
	require.NoError(t, err)
	require.Len(t, sessions, 3)

	states := make(map[string]int)
	for _, s := range sessions {
		states[s.State]++
	}
	assert.Equal(t, 2, states["done"])
}

func TestProcessBatch_HonorsLimit(t *testing.T) {
	prev := cfg
	cfg = &config.Config{Batch: config.BatchConfig{MaxConcurrent: 1, StartsPerSec: 1000}}
	t.Cleanup(func() { cfg = prev })

	ctx := context.Background()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(ctx))

	kind := model.KindCompanyProfile
	fields := schema.Default().ForKind(kind)
	seeds := []string{"https://a.example", "https://b.example", "https://c.example"}

	err = processBatch(ctx, st, kind, seeds, 2, func() *wizard.Wizard {
		return wizard.New(kind, happyClient(), fields)
	})
	require.NoError(t, err)

	sessions, err := st.ListSessions(ctx, store.SessionFilter{Kind: kind})
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}
