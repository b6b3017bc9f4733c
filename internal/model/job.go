package model

import (
	"time"

	"github.com/sells-group/profile-wizard/pkg/generation"
)

// JobHandle identifies one in-flight or completed generation job. A
// wizard holds at most one at a time; it is discarded on reset or when a
// new submission replaces it.
type JobHandle struct {
	JobID       string               `json:"job_id"`
	Status      generation.JobStatus `json:"status"`
	SubmittedAt time.Time            `json:"submitted_at"`
}
