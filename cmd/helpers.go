package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/profile-wizard/internal/model"
	"github.com/sells-group/profile-wizard/internal/schema"
	"github.com/sells-group/profile-wizard/internal/store"
	"github.com/sells-group/profile-wizard/internal/wizard"
	"github.com/sells-group/profile-wizard/pkg/generation"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.Path
		if path == "" {
			path = "profile-wizard.db"
		}
		return store.NewSQLite(path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Store.Pool)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func loadSchema() (*schema.Schema, error) {
	if cfg.Schema.Path == "" {
		return schema.Default(), nil
	}
	return schema.Load(cfg.Schema.Path)
}

func newGenerationClient() generation.Client {
	return generation.NewClient(cfg.Backend.BaseURL, cfg.Backend.Token)
}

func pollOptions() []generation.PollOption {
	return []generation.PollOption{
		generation.WithPollInterval(time.Duration(cfg.Backend.PollIntervalSecs) * time.Second),
		generation.WithMaxAttempts(cfg.Backend.MaxPollAttempts),
	}
}

// parseEdits turns repeated --edit key=value flags into a field map.
func parseEdits(edits []string) (map[string]string, error) {
	out := make(map[string]string, len(edits))
	for _, e := range edits {
		key, value, ok := strings.Cut(e, "=")
		if !ok || key == "" {
			return nil, eris.Errorf("invalid edit %q, expected key=value", e)
		}
		out[key] = value
	}
	return out, nil
}

// runWizardFlow drives one wizard end to end: submit, poll, apply edits,
// optionally confirm, and mirror each transition into the session store.
func runWizardFlow(ctx context.Context, st store.Store, kind model.WizardKind, seed string, edits map[string]string, confirm bool) error {
	sch, err := loadSchema()
	if err != nil {
		return eris.Wrap(err, "load schema")
	}

	rec, err := st.CreateSession(ctx, kind, seed)
	if err != nil {
		return eris.Wrap(err, "create session")
	}

	w := wizard.New(kind, newGenerationClient(), sch.ForKind(kind), pollOptions()...).
		WithContext(map[string]string{"session_id": rec.ID})

	if err := w.Submit(ctx, seed); err != nil {
		recordFailure(ctx, st, rec.ID, w)
		return eris.Wrap(err, "submit")
	}
	if err := st.UpdateSessionState(ctx, rec.ID, string(w.State()), w.Handle().JobID); err != nil {
		zap.L().Warn("record session state", zap.Error(err))
	}

	zap.L().Info("job submitted",
		zap.String("session_id", rec.ID),
		zap.String("job_id", w.Handle().JobID),
	)

	if err := w.Poll(ctx); err != nil {
		recordFailure(ctx, st, rec.ID, w)
		return eris.Wrap(err, "poll")
	}

	zap.L().Info("generation complete",
		zap.String("job_id", w.Handle().JobID),
		zap.Int("polls", w.PollCount()),
		zap.Int("fields", len(w.Buffer().Payload())),
	)

	printReview(w, sch.ForKind(kind))

	for key, value := range edits {
		if err := w.SetField(key, value); err != nil {
			return eris.Wrapf(err, "edit field %s", key)
		}
	}

	if !confirm {
		fmt.Fprintln(os.Stdout, "\nDry run: not confirming. Re-run with --confirm to persist.")
		if err := st.UpdateSessionState(ctx, rec.ID, string(w.State()), ""); err != nil {
			zap.L().Warn("record session state", zap.Error(err))
		}
		return nil
	}

	if err := w.Confirm(ctx); err != nil {
		recordFailure(ctx, st, rec.ID, w)
		return eris.Wrap(err, "confirm")
	}

	if err := st.CompleteSession(ctx, rec.ID, w.Buffer().Payload(), w.PersistedID()); err != nil {
		zap.L().Warn("record session completion", zap.Error(err))
	}

	zap.L().Info("saved",
		zap.String("session_id", rec.ID),
		zap.String("persisted_id", w.PersistedID()),
	)
	return nil
}

func recordFailure(ctx context.Context, st store.Store, id string, w *wizard.Wizard) {
	msg := ""
	if w.Err() != nil {
		msg = w.Err().Error()
	}
	if err := st.FailSession(ctx, id, string(w.State()), msg); err != nil {
		zap.L().Warn("record session failure", zap.Error(err))
	}
}

// printReview renders the generated fields with their confidence bands.
func printReview(w *wizard.Wizard, fields schema.FieldSet) {
	payload := w.Buffer().Payload()

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	fmt.Fprintln(out, "\nGenerated fields:")
	for _, key := range keys {
		prov := w.Provenance(key)
		band := model.ClassifyConfidence(prov.Confidence)

		marker := " "
		if !prov.Editable || !fields.Spec(key).IsEditable() {
			marker = "*"
		}
		fmt.Fprintf(out, "  %s %-24s %-8s %v\n", marker, key, band, payload[key])
	}

	if missing := w.MissingFields(); len(missing) > 0 {
		fmt.Fprintf(out, "\nMissing fields: %s\n", strings.Join(missing, ", "))
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
