// Package api exposes the wizard state machine as a session-scoped REST
// surface for the dashboard front end.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/profile-wizard/internal/model"
	"github.com/sells-group/profile-wizard/internal/schema"
	"github.com/sells-group/profile-wizard/internal/store"
	"github.com/sells-group/profile-wizard/internal/wizard"
	"github.com/sells-group/profile-wizard/pkg/generation"
)

// Server hosts wizard sessions. Each session wraps one Wizard behind a
// mutex; the wizard itself stays single-owner, the server serializes
// access to it.
type Server struct {
	client   generation.Client
	schema   *schema.Schema
	store    store.Store
	pollOpts []generation.PollOption
	origins  []string

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	mu     sync.Mutex
	w      *wizard.Wizard
	cancel context.CancelFunc
}

// NewServer creates a wizard API server.
func NewServer(client generation.Client, sch *schema.Schema, st store.Store, origins []string, pollOpts ...generation.PollOption) *Server {
	return &Server{
		client:   client,
		schema:   sch,
		store:    st,
		pollOpts: pollOpts,
		origins:  origins,
		sessions: make(map[string]*session),
	}
}

// Router builds the chi router for the wizard API.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/wizards", s.handleCreate)
	r.Get("/wizards", s.handleList)
	r.Get("/wizards/{id}", s.handleGet)
	r.Patch("/wizards/{id}/fields", s.handleEdit)
	r.Post("/wizards/{id}/confirm", s.handleConfirm)
	r.Post("/wizards/{id}/reset", s.handleReset)

	return r
}

type createRequest struct {
	Kind model.WizardKind `json:"kind"`
	Seed string           `json:"seed"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Kind.Valid() {
		writeError(w, http.StatusBadRequest, "unknown wizard kind")
		return
	}

	rec, err := s.store.CreateSession(r.Context(), req.Kind, req.Seed)
	if err != nil {
		zap.L().Error("create session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not create session")
		return
	}

	wiz := wizard.New(req.Kind, s.client, s.schema.ForKind(req.Kind), s.pollOpts...).
		WithContext(map[string]string{"session_id": rec.ID})
	sess := &session{w: wiz}

	s.mu.Lock()
	s.sessions[rec.ID] = sess
	s.mu.Unlock()

	sess.mu.Lock()
	err = wiz.Submit(r.Context(), req.Seed)
	view := s.viewLocked(rec.ID, wiz)
	snap := snapshotLocked(wiz)
	if err == nil {
		s.startPolling(rec.ID, sess)
	}
	sess.mu.Unlock()

	if err != nil {
		s.recordState(rec.ID, snap)
		var validationErr *wizard.ValidationError
		if errors.As(err, &validationErr) {
			writeError(w, http.StatusUnprocessableEntity, validationErr.Error())
			return
		}
		writeJSON(w, http.StatusBadGateway, view)
		return
	}

	s.recordState(rec.ID, snap)
	writeJSON(w, http.StatusAccepted, view)
}

// startPolling launches the poll mechanism on its own goroutine. The
// epoch captured here is the liveness token: if the session is reset
// before the run resolves, the late result is discarded.
func (s *Server) startPolling(id string, sess *session) {
	ctx, cancel := context.WithCancel(context.Background())
	sess.cancel = cancel

	epoch := sess.w.Epoch()
	jobID := sess.w.Handle().JobID

	go func() {
		defer cancel()
		res, err := generation.Poll(ctx, s.client, jobID, s.pollOpts...)

		sess.mu.Lock()
		applyErr := sess.w.ApplyPollResult(epoch, res, err)
		snap := snapshotLocked(sess.w)
		sess.mu.Unlock()

		if errors.Is(applyErr, wizard.ErrSuperseded) {
			return
		}
		s.recordState(id, snap)
	}()
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	filter := store.SessionFilter{
		Kind:  model.WizardKind(r.URL.Query().Get("kind")),
		State: r.URL.Query().Get("state"),
	}
	sessions, err := s.store.ListSessions(r.Context(), filter)
	if err != nil {
		zap.L().Error("list sessions", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not list sessions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok := s.session(id)
	if !ok {
		// Not live in memory; fall back to the persisted record.
		rec, err := s.store.GetSession(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeJSON(w, http.StatusOK, rec)
		return
	}

	sess.mu.Lock()
	view := s.viewLocked(id, sess.w)
	sess.mu.Unlock()
	writeJSON(w, http.StatusOK, view)
}

type editRequest struct {
	Fields map[string]any `json:"fields"`
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok := s.session(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	for key, value := range req.Fields {
		if err := sess.w.SetField(key, value); err != nil {
			writeError(w, statusForWizardError(err), err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, s.viewLocked(id, sess.w))
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok := s.session(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	sess.mu.Lock()
	err := sess.w.Confirm(r.Context())
	view := s.viewLocked(id, sess.w)
	snap := snapshotLocked(sess.w)
	var payload map[string]any
	var persistedID string
	if err == nil {
		payload = sess.w.Buffer().Payload()
		persistedID = sess.w.PersistedID()
	}
	sess.mu.Unlock()

	if err != nil {
		s.recordState(id, snap)
		var transitionErr *wizard.TransitionError
		if errors.As(err, &transitionErr) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		// Save failed but edits are intact; the client should retry.
		writeJSON(w, http.StatusBadGateway, view)
		return
	}

	if err := s.store.CompleteSession(r.Context(), id, payload, persistedID); err != nil {
		zap.L().Error("complete session", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok := s.session(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	sess.mu.Lock()
	if sess.cancel != nil {
		sess.cancel()
		sess.cancel = nil
	}
	sess.w.Reset()
	view := s.viewLocked(id, sess.w)
	snap := snapshotLocked(sess.w)
	sess.mu.Unlock()

	s.recordState(id, snap)
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) session(id string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// stateSnapshot carries the fields recordState needs out of the
// session mutex, so the store write never touches live wizard state.
type stateSnapshot struct {
	state string
	jobID string
	err   error
}

// snapshotLocked captures the wizard's state for a later store write;
// the session mutex must be held.
func snapshotLocked(w *wizard.Wizard) stateSnapshot {
	snap := stateSnapshot{
		state: string(w.State()),
		err:   w.Err(),
	}
	if h := w.Handle(); h != nil {
		snap.jobID = h.JobID
	}
	return snap
}

// recordState mirrors a wizard state snapshot into the store. Best
// effort: a store failure must not break the wizard flow.
func (s *Server) recordState(id string, snap stateSnapshot) {
	ctx := context.Background()

	var err error
	if snap.err != nil {
		err = s.store.FailSession(ctx, id, snap.state, snap.err.Error())
	} else {
		err = s.store.UpdateSessionState(ctx, id, snap.state, snap.jobID)
	}
	if err != nil {
		zap.L().Warn("record session state",
			zap.String("session_id", id),
			zap.Error(err),
		)
	}
}

// fieldView annotates one field for the review UI.
type fieldView struct {
	Value      any                  `json:"value"`
	Label      string               `json:"label"`
	Source     string               `json:"source,omitempty"`
	Confidence float64              `json:"confidence"`
	Band       model.ConfidenceBand `json:"band"`
	Editable   bool                 `json:"editable"`
	Required   bool                 `json:"required"`
}

// sessionView is the API representation of a live wizard.
type sessionView struct {
	ID            string               `json:"id"`
	Kind          model.WizardKind     `json:"kind"`
	State         wizard.State         `json:"state"`
	Job           *model.JobHandle     `json:"job,omitempty"`
	Fields        map[string]fieldView `json:"fields,omitempty"`
	MissingFields []string             `json:"missing_fields,omitempty"`
	PersistedID   string               `json:"persisted_id,omitempty"`
	Error         string               `json:"error,omitempty"`
	Failure       wizard.FailureKind   `json:"failure,omitempty"`
	Message       string               `json:"message,omitempty"`
}

// viewLocked builds a sessionView; the session mutex must be held.
func (s *Server) viewLocked(id string, w *wizard.Wizard) sessionView {
	view := sessionView{
		ID:            id,
		Kind:          w.Kind(),
		State:         w.State(),
		MissingFields: w.MissingFields(),
		PersistedID:   w.PersistedID(),
	}
	// Copy the handle so encoding it after the mutex is released never
	// races with the poll goroutine updating the live one.
	if h := w.Handle(); h != nil {
		handle := *h
		view.Job = &handle
	}

	if err := w.Err(); err != nil {
		kind := wizard.ClassifyFailure(err)
		view.Error = err.Error()
		view.Failure = kind
		view.Message = wizard.UserMessage(kind)
	}

	if buf := w.Buffer(); buf != nil {
		fields := s.schema.ForKind(w.Kind())
		view.Fields = make(map[string]fieldView, len(buf.Payload()))
		for key, value := range buf.Payload() {
			prov := w.Provenance(key)
			spec := fields.Spec(key)
			view.Fields[key] = fieldView{
				Value:      value,
				Label:      spec.Label,
				Source:     prov.Source,
				Confidence: prov.Confidence,
				Band:       model.ClassifyConfidence(prov.Confidence),
				Editable:   prov.Editable && spec.IsEditable(),
				Required:   prov.Required || spec.Required,
			}
		}
	}

	return view
}

func statusForWizardError(err error) int {
	var transitionErr *wizard.TransitionError
	if errors.As(err, &transitionErr) {
		return http.StatusConflict
	}
	var validationErr *wizard.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
