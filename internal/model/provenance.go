package model

import "github.com/sells-group/profile-wizard/pkg/generation"

// ConfidenceBand buckets a provenance confidence score for display. The
// band drives a badge next to each field in the review step and is
// advisory only: it never blocks confirmation.
type ConfidenceBand string

const (
	BandHigh   ConfidenceBand = "high"   // from source
	BandMedium ConfidenceBand = "medium" // derived
	BandLow    ConfidenceBand = "low"    // needs review
)

const (
	highConfidenceThreshold   = 0.8
	mediumConfidenceThreshold = 0.5
)

// ClassifyConfidence maps a confidence score in [0,1] to its band.
func ClassifyConfidence(confidence float64) ConfidenceBand {
	switch {
	case confidence >= highConfidenceThreshold:
		return BandHigh
	case confidence >= mediumConfidenceThreshold:
		return BandMedium
	default:
		return BandLow
	}
}

// ProvenanceFor returns the provenance entry for a field, falling back
// to the documented default (editable, confidence 0) for fields the
// server reported no provenance for.
func ProvenanceFor(prov map[string]generation.FieldProvenance, field string) generation.FieldProvenance {
	if entry, ok := prov[field]; ok {
		return entry
	}
	return generation.FieldProvenance{Editable: true}
}
