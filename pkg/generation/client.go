package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// JobStatus is the server-reported lifecycle state of a generation job.
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status is a final state.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Client defines the generation backend operations.
type Client interface {
	Start(ctx context.Context, req StartRequest) (*StartResponse, error)
	Status(ctx context.Context, jobID string) (*StatusResponse, error)
	Confirm(ctx context.Context, req ConfirmRequest) (*ConfirmResponse, error)
}

// StartRequest is the body for POST /generation/jobs.
type StartRequest struct {
	Kind    string            `json:"kind"`
	Seed    string            `json:"seed"`
	Context map[string]string `json:"context,omitempty"`
}

// StartResponse is the response from POST /generation/jobs.
type StartResponse struct {
	JobID   string    `json:"jobId"`
	Status  JobStatus `json:"status"`
	Message string    `json:"message,omitempty"`
}

// FieldProvenance describes where a generated field value came from.
type FieldProvenance struct {
	Value      any     `json:"value"`
	Source     string  `json:"source"`
	Confidence float64 `json:"confidence"`
	Editable   bool    `json:"editable"`
	Required   bool    `json:"required"`
}

// StatusResponse is the response from GET /generation/jobs/{id}.
// Data, Provenance and MissingFields are populated only when Status is
// completed; Error only when Status is failed.
type StatusResponse struct {
	JobID         string
	Status        JobStatus
	Data          map[string]any
	Provenance    map[string]FieldProvenance
	MissingFields []string
	Error         string
}

// ConfirmRequest is the body for POST /generation/jobs/{id}/confirm.
// Data carries the final (possibly user-edited) field set.
type ConfirmRequest struct {
	JobID   string            `json:"jobId"`
	Kind    string            `json:"kind"`
	Data    map[string]any    `json:"data"`
	Context map[string]string `json:"context,omitempty"`
}

// ConfirmResponse is the response from POST /generation/jobs/{id}/confirm.
type ConfirmResponse struct {
	Success     bool   `json:"success"`
	PersistedID string `json:"persistedId"`
}

// APIError is returned when the backend responds with a non-2xx status.
// It marks a transport-level failure, distinct from an in-payload job
// failure reported through StatusResponse.Error.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("generation: HTTP %d: %s", e.StatusCode, e.Body)
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// httpClient implements Client using net/http.
type httpClient struct {
	token   string
	baseURL string
	http    *http.Client
}

// NewClient creates a generation backend client authenticated with the
// given bearer token.
func NewClient(baseURL, token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Start(ctx context.Context, req StartRequest) (*StartResponse, error) {
	var raw map[string]any
	if err := c.post(ctx, "/generation/jobs", req, &raw); err != nil {
		return nil, eris.Wrap(err, "generation: start job")
	}
	return normalizeStart(raw), nil
}

func (c *httpClient) Status(ctx context.Context, jobID string) (*StatusResponse, error) {
	var raw map[string]any
	if err := c.get(ctx, fmt.Sprintf("/generation/jobs/%s", jobID), &raw); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("generation: get job status %s", jobID))
	}
	return normalizeStatus(raw), nil
}

func (c *httpClient) Confirm(ctx context.Context, req ConfirmRequest) (*ConfirmResponse, error) {
	var raw map[string]any
	if err := c.post(ctx, fmt.Sprintf("/generation/jobs/%s/confirm", req.JobID), req, &raw); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("generation: confirm job %s", req.JobID))
	}
	return normalizeConfirm(raw), nil
}

func (c *httpClient) post(ctx context.Context, path string, body any, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return eris.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	return c.do(req, out)
}

func (c *httpClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	return c.do(req, out)
}

func (c *httpClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "execute request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return eris.Wrap(err, "decode response")
	}

	return nil
}
