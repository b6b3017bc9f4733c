package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/profile-wizard/internal/model"
)

func TestValidateSeed(t *testing.T) {
	tests := []struct {
		name    string
		kind    model.WizardKind
		seed    string
		wantErr bool
	}{
		{"linkedin profile", model.KindPersonalProfile, "https://www.linkedin.com/in/jane-doe", false},
		{"linkedin no www", model.KindPersonalProfile, "https://linkedin.com/in/jane", false},
		{"linkedin company page rejected", model.KindPersonalProfile, "https://linkedin.com/company/acme", true},
		{"non-linkedin rejected", model.KindPersonalProfile, "https://example.com/in/jane", true},
		{"not a url", model.KindPersonalProfile, "jane doe", true},
		{"empty", model.KindPersonalProfile, "", true},
		{"whitespace only", model.KindPersonalProfile, "   ", true},

		{"company website", model.KindCompanyProfile, "https://acme.example.com", false},
		{"company http ok", model.KindCompanyProfile, "http://acme.example.com", false},
		{"company ftp rejected", model.KindCompanyProfile, "ftp://acme.example.com", true},
		{"company bare word rejected", model.KindCompanyProfile, "acme", true},

		{"export account id", model.KindDataExport, "acct-42", false},
		{"export empty", model.KindDataExport, "", true},
		{"deletion account id", model.KindAccountDeletion, "acct-42", false},

		{"unknown kind", model.WizardKind("bogus"), "whatever", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSeed(tt.kind, tt.seed)
			if tt.wantErr {
				assert.Error(t, err)
				var validationErr *ValidationError
				assert.ErrorAs(t, err, &validationErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
