package model

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/profile-wizard/pkg/generation"
)

func TestClassifyConfidence(t *testing.T) {
	tests := []struct {
		confidence float64
		want       ConfidenceBand
	}{
		{1.0, BandHigh},
		{0.92, BandHigh},
		{0.8, BandHigh}, // boundary is inclusive
		{0.79, BandMedium},
		{0.5, BandMedium}, // boundary is inclusive
		{0.49, BandLow},
		{0.0, BandLow},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyConfidence(tt.confidence), "confidence %v", tt.confidence)
	}
}

func TestProvenanceFor_Default(t *testing.T) {
	prov := map[string]generation.FieldProvenance{
		"known": {Source: "crm", Confidence: 0.9, Editable: false},
	}

	known := ProvenanceFor(prov, "known")
	assert.Equal(t, "crm", known.Source)
	assert.False(t, known.Editable)

	unknown := ProvenanceFor(prov, "unknown")
	assert.True(t, unknown.Editable, "unannotated fields default to editable")
	assert.Zero(t, unknown.Confidence)

	fromNil := ProvenanceFor(nil, "any")
	assert.True(t, fromNil.Editable)
}

func TestWizardKind_Valid(t *testing.T) {
	assert.True(t, KindPersonalProfile.Valid())
	assert.True(t, KindCompanyProfile.Valid())
	assert.True(t, KindDataExport.Valid())
	assert.True(t, KindAccountDeletion.Valid())
	assert.False(t, WizardKind("").Valid())
	assert.False(t, WizardKind("bogus").Valid())
}
