// Package devbackend is a local stand-in for the production generation
// service. It implements the start/status/confirm endpoints with
// configurable artificial latency so the wizard can be exercised end to
// end without the real backend.
package devbackend

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/profile-wizard/internal/model"
	"github.com/sells-group/profile-wizard/pkg/generation"
)

// Backend holds in-memory job state.
type Backend struct {
	mu      sync.Mutex
	jobs    map[string]*job
	latency time.Duration
	gen     Generator
	now     func() time.Time
}

type job struct {
	id          string
	kind        model.WizardKind
	seed        string
	submittedAt time.Time
	result      *Generated
	genErr      error
	persistedID string
}

// New creates a Backend that resolves jobs after the given latency.
func New(gen Generator, latency time.Duration) *Backend {
	return &Backend{
		jobs:    make(map[string]*job),
		latency: latency,
		gen:     gen,
		now:     time.Now,
	}
}

// WithNow sets a fixed clock for testing.
func (b *Backend) WithNow(now func() time.Time) *Backend {
	b.now = now
	return b
}

// Router returns the HTTP surface matching the production backend.
func (b *Backend) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/generation/jobs", b.handleStart)
	r.Get("/generation/jobs/{id}", b.handleStatus)
	r.Post("/generation/jobs/{id}/confirm", b.handleConfirm)
	return r
}

func (b *Backend) handleStart(w http.ResponseWriter, r *http.Request) {
	var req generation.StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	kind := model.WizardKind(req.Kind)
	if !kind.Valid() || req.Seed == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "kind and seed are required"})
		return
	}

	j := &job{
		id:          "job_" + uuid.New().String()[:8],
		kind:        kind,
		seed:        req.Seed,
		submittedAt: b.now(),
	}

	b.mu.Lock()
	b.jobs[j.id] = j
	b.mu.Unlock()

	zap.L().Info("dev job started",
		zap.String("job_id", j.id),
		zap.String("kind", req.Kind),
	)

	writeJSON(w, http.StatusAccepted, map[string]any{
		"jobId":   j.id,
		"status":  string(generation.StatusPending),
		"message": "generation queued",
	})
}

func (b *Backend) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	b.mu.Lock()
	j, ok := b.jobs[id]
	b.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return
	}

	elapsed := b.now().Sub(j.submittedAt)
	switch {
	case elapsed < b.latency/2:
		writeJSON(w, http.StatusOK, map[string]any{"jobId": j.id, "status": string(generation.StatusPending)})
		return
	case elapsed < b.latency:
		writeJSON(w, http.StatusOK, map[string]any{"jobId": j.id, "status": string(generation.StatusProcessing)})
		return
	}

	// Seeds containing "fail" simulate a generation failure.
	if strings.Contains(j.seed, "fail") {
		writeJSON(w, http.StatusOK, map[string]any{
			"jobId":  j.id,
			"status": string(generation.StatusFailed),
			"error":  "could not generate a profile from this seed",
		})
		return
	}

	b.mu.Lock()
	if j.result == nil && j.genErr == nil {
		j.result, j.genErr = b.gen.Generate(r.Context(), j.kind, j.seed)
	}
	result, genErr := j.result, j.genErr
	b.mu.Unlock()

	if genErr != nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"jobId":  j.id,
			"status": string(generation.StatusFailed),
			"error":  genErr.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"jobId":           j.id,
		"status":          string(generation.StatusCompleted),
		"data":            result.Data,
		"fieldProvenance": result.Provenance,
		"missingFields":   missingOrEmpty(result.MissingFields),
	})
}

func (b *Backend) handleConfirm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req generation.ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	b.mu.Lock()
	j, ok := b.jobs[id]
	if ok && j.persistedID == "" {
		j.persistedID = "rec_" + uuid.New().String()[:8]
	}
	b.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return
	}

	zap.L().Info("dev job confirmed",
		zap.String("job_id", id),
		zap.Int("fields", len(req.Data)),
	)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"persistedId": j.persistedID,
	})
}

// missingOrEmpty keeps the wire shape a JSON array rather than null.
func missingOrEmpty(missing []string) []string {
	if missing == nil {
		return []string{}
	}
	return missing
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
