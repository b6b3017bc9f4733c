package model

import "time"

// WizardKind selects which generation wizard a session drives. The four
// kinds share identical mechanics; they differ only in seed validation
// and field schema.
type WizardKind string

const (
	KindPersonalProfile WizardKind = "personal_profile"
	KindCompanyProfile  WizardKind = "company_profile"
	KindDataExport      WizardKind = "data_export"
	KindAccountDeletion WizardKind = "account_deletion"
)

// Valid reports whether k is a known wizard kind.
func (k WizardKind) Valid() bool {
	switch k {
	case KindPersonalProfile, KindCompanyProfile, KindDataExport, KindAccountDeletion:
		return true
	}
	return false
}

// WizardSession is the persisted record of one wizard run, kept so the
// dashboard can show history and resume context.
type WizardSession struct {
	ID          string         `json:"id"`
	Kind        WizardKind     `json:"kind"`
	Seed        string         `json:"seed"`
	State       string         `json:"state"`
	JobID       string         `json:"job_id,omitempty"`
	FinalData   map[string]any `json:"final_data,omitempty"`
	PersistedID string         `json:"persisted_id,omitempty"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
