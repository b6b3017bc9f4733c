package wizard

import (
	"net/url"
	"strings"

	"github.com/sells-group/profile-wizard/internal/model"
)

// ValidateSeed checks seed input shape for a wizard kind without
// contacting the server. Profile wizards take a URL seed; privacy
// wizards take an account identifier.
func ValidateSeed(kind model.WizardKind, seed string) error {
	seed = strings.TrimSpace(seed)
	if seed == "" {
		return &ValidationError{Field: "seed", Reason: "must not be empty"}
	}

	switch kind {
	case model.KindPersonalProfile:
		u, err := parseHTTPURL(seed)
		if err != nil {
			return err
		}
		if !strings.Contains(u.Host, "linkedin.com") || !strings.HasPrefix(u.Path, "/in/") {
			return &ValidationError{Field: "seed", Reason: "expected a LinkedIn profile URL like https://linkedin.com/in/name"}
		}
	case model.KindCompanyProfile:
		if _, err := parseHTTPURL(seed); err != nil {
			return err
		}
	case model.KindDataExport, model.KindAccountDeletion:
		// Account identifier: opaque, just non-empty.
	default:
		return &ValidationError{Field: "kind", Reason: "unknown wizard kind " + string(kind)}
	}

	return nil
}

func parseHTTPURL(seed string) (*url.URL, error) {
	u, err := url.Parse(seed)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, &ValidationError{Field: "seed", Reason: "expected an http(s) URL"}
	}
	return u, nil
}
