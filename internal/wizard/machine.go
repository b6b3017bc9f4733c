// Package wizard implements the client-side controller for long-running
// generation jobs: a finite-state machine sequencing submit, poll,
// review, and confirm, with guarded transitions and an edit buffer that
// keeps user overrides decoupled from the generation result.
package wizard

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/profile-wizard/internal/model"
	"github.com/sells-group/profile-wizard/internal/schema"
	"github.com/sells-group/profile-wizard/pkg/generation"
)

// State names one step of the wizard lifecycle.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StatePolling    State = "polling"
	StateReviewing  State = "reviewing"
	StateSaving     State = "saving"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Wizard drives one generation job from seed input to persisted result.
// It is single-owner: callers invoke its methods sequentially, and it is
// the only mutator of its own state. The poller and submitter are
// stateless with respect to it.
type Wizard struct {
	kind     model.WizardKind
	client   generation.Client
	fields   schema.FieldSet
	context  map[string]string
	pollOpts []generation.PollOption

	state  State
	seed   string
	handle *model.JobHandle
	// epoch counts submissions and resets. A poll result captured under
	// an older epoch is discarded instead of mutating a wizard that has
	// since moved on.
	epoch uint64

	lastErr     error
	generated   map[string]any
	provenance  map[string]generation.FieldProvenance
	missing     []string
	buffer      *EditBuffer
	pollCount   int
	persistedID string
}

// New creates a wizard in the idle state.
func New(kind model.WizardKind, client generation.Client, fields schema.FieldSet, opts ...generation.PollOption) *Wizard {
	return &Wizard{
		kind:     kind,
		client:   client,
		fields:   fields,
		pollOpts: opts,
		state:    StateIdle,
	}
}

// WithContext attaches identifying context (account id, session id)
// forwarded to the backend on start and confirm.
func (w *Wizard) WithContext(ctx map[string]string) *Wizard {
	w.context = ctx
	return w
}

// State returns the current state.
func (w *Wizard) State() State { return w.state }

// Kind returns the wizard kind.
func (w *Wizard) Kind() model.WizardKind { return w.kind }

// Seed returns the seed input of the current submission.
func (w *Wizard) Seed() string { return w.seed }

// Handle returns the active job handle, nil when no job is active.
func (w *Wizard) Handle() *model.JobHandle { return w.handle }

// Err returns the last error captured by a failed transition.
func (w *Wizard) Err() error { return w.lastErr }

// Buffer returns the edit buffer, nil before the reviewing state.
func (w *Wizard) Buffer() *EditBuffer { return w.buffer }

// Generated returns the captured generation result. Callers must not
// mutate it; user edits go through SetField.
func (w *Wizard) Generated() map[string]any { return w.generated }

// Provenance returns the provenance entry for a field, applying the
// default for fields the server did not annotate.
func (w *Wizard) Provenance(field string) generation.FieldProvenance {
	return model.ProvenanceFor(w.provenance, field)
}

// MissingFields returns the server-reported unresolved fields plus any
// schema-required fields that are empty in the buffer. Advisory only:
// Confirm proceeds regardless, by product decision.
func (w *Wizard) MissingFields() []string {
	missing := append([]string(nil), w.missing...)
	if w.buffer != nil {
		seen := make(map[string]bool, len(missing))
		for _, f := range missing {
			seen[f] = true
		}
		for _, f := range w.buffer.EmptyRequired(w.fields.Required()) {
			if !seen[f] {
				missing = append(missing, f)
			}
		}
	}
	return missing
}

// PollCount returns how many status queries the last polling run made.
func (w *Wizard) PollCount() int { return w.pollCount }

// PersistedID returns the server-assigned id after a successful confirm.
func (w *Wizard) PersistedID() string { return w.persistedID }

// Submit validates the seed and starts a generation job. Legal only from
// idle or failed; a wizard that is polling rejects a second submission
// outright. Invalid seeds keep the wizard idle without touching the
// server.
func (w *Wizard) Submit(ctx context.Context, seed string) error {
	if w.state != StateIdle && w.state != StateFailed {
		return &TransitionError{State: w.state, Event: "submit"}
	}

	if err := ValidateSeed(w.kind, seed); err != nil {
		// Stay put; a validation error is not a failed state.
		return err
	}

	w.epoch++
	w.handle = nil
	w.lastErr = nil
	w.seed = seed
	w.state = StateSubmitting

	resp, err := w.client.Start(ctx, generation.StartRequest{
		Kind:    string(w.kind),
		Seed:    seed,
		Context: w.context,
	})
	if err != nil {
		w.fail(err)
		return err
	}
	if resp.JobID == "" {
		err := errors.New("wizard: server returned no job id")
		w.fail(err)
		return err
	}

	w.handle = &model.JobHandle{
		JobID:       resp.JobID,
		Status:      resp.Status,
		SubmittedAt: time.Now().UTC(),
	}
	w.state = StatePolling

	zap.L().Info("generation job submitted",
		zap.String("kind", string(w.kind)),
		zap.String("job_id", resp.JobID),
	)
	return nil
}

// Epoch returns the current submission epoch. Hosts that run the poll
// mechanism themselves capture it before polling and hand it back to
// ApplyPollResult, which discards results from a superseded run.
func (w *Wizard) Epoch() uint64 { return w.epoch }

// Poll runs the polling loop to a terminal outcome and applies it. On
// completion the generation result is captured and the edit buffer
// seeded, at this exact transition and not earlier. If the wizard was
// reset while the loop was in flight, the late result is discarded and
// ErrSuperseded returned.
func (w *Wizard) Poll(ctx context.Context) error {
	if w.state != StatePolling {
		return &TransitionError{State: w.state, Event: "poll"}
	}

	epoch := w.epoch
	jobID := w.handle.JobID

	res, err := generation.Poll(ctx, w.client, jobID, w.pollOpts...)
	return w.ApplyPollResult(epoch, res, err)
}

// ApplyPollResult interprets a finished polling run. The epoch acts as
// the liveness token: a result captured before a reset or resubmission
// must not mutate the wizard it no longer belongs to.
func (w *Wizard) ApplyPollResult(epoch uint64, res *generation.PollResult, err error) error {
	if epoch != w.epoch {
		zap.L().Debug("discarding stale poll result",
			zap.Uint64("epoch", epoch),
			zap.Uint64("current", w.epoch),
		)
		return ErrSuperseded
	}
	if w.state != StatePolling {
		return &TransitionError{State: w.state, Event: "apply poll result"}
	}

	if err != nil {
		var timeoutErr *generation.TimeoutError
		if errors.As(err, &timeoutErr) {
			w.pollCount = timeoutErr.Attempts
		}
		w.fail(err)
		return err
	}

	w.pollCount = res.Attempts
	w.handle.Status = generation.StatusCompleted
	w.generated = res.Data
	w.provenance = res.Provenance
	w.missing = res.MissingFields
	w.buffer = NewEditBuffer(res.Data)
	w.state = StateReviewing

	zap.L().Info("generation job completed",
		zap.String("kind", string(w.kind)),
		zap.String("job_id", w.handle.JobID),
		zap.Int("polls", res.Attempts),
		zap.Int("fields", len(res.Data)),
		zap.Strings("missing", res.MissingFields),
	)
	return nil
}

// SetField overrides one field in the edit buffer. Legal only while
// reviewing, and only for fields whose provenance and schema allow
// editing.
func (w *Wizard) SetField(key string, value any) error {
	if w.state != StateReviewing {
		return &TransitionError{State: w.state, Event: "edit"}
	}
	if !w.Provenance(key).Editable || !w.fields.Spec(key).IsEditable() {
		return &ValidationError{Field: key, Reason: "field is not editable"}
	}
	w.buffer.Set(key, value)
	return nil
}

// Confirm sends the edit buffer to the backend for persistence. On
// failure the wizard returns to reviewing, keeping all edits, because
// discarding user work over a transient save error is unacceptable.
func (w *Wizard) Confirm(ctx context.Context) error {
	if w.state != StateReviewing {
		return &TransitionError{State: w.state, Event: "confirm"}
	}

	w.state = StateSaving

	resp, err := w.client.Confirm(ctx, generation.ConfirmRequest{
		JobID:   w.handle.JobID,
		Kind:    string(w.kind),
		Data:    w.buffer.Payload(),
		Context: w.context,
	})
	if err != nil {
		w.state = StateReviewing
		w.lastErr = &PersistenceError{Err: err}
		return w.lastErr
	}

	w.persistedID = resp.PersistedID
	w.state = StateDone

	zap.L().Info("generation result persisted",
		zap.String("kind", string(w.kind)),
		zap.String("job_id", w.handle.JobID),
		zap.String("persisted_id", resp.PersistedID),
	)
	return nil
}

// Reset returns the wizard to idle, discarding the job handle, captured
// result, and edit buffer. It also invalidates any in-flight polling
// run, whose late result will then be discarded.
func (w *Wizard) Reset() {
	w.epoch++
	w.state = StateIdle
	w.seed = ""
	w.handle = nil
	w.lastErr = nil
	w.generated = nil
	w.provenance = nil
	w.missing = nil
	w.buffer = nil
	w.pollCount = 0
	w.persistedID = ""
}

func (w *Wizard) fail(err error) {
	w.state = StateFailed
	w.lastErr = err
	zap.L().Warn("wizard failed",
		zap.String("kind", string(w.kind)),
		zap.String("failure", string(ClassifyFailure(err))),
		zap.Error(err),
	)
}
