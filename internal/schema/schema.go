// Package schema loads per-wizard field definitions: display labels and
// the editable/required flags the review step is annotated with.
package schema

import (
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/profile-wizard/internal/model"
)

// FieldSpec declares review-step behavior for one generated field.
// Editable is a pointer so that "absent" can default to true.
type FieldSpec struct {
	Label    string `yaml:"label"`
	Editable *bool  `yaml:"editable,omitempty"`
	Required bool   `yaml:"required"`
}

// IsEditable resolves the editable flag with its default.
func (f FieldSpec) IsEditable() bool {
	return f.Editable == nil || *f.Editable
}

// FieldSet holds the field specs for one wizard kind.
type FieldSet struct {
	Fields map[string]FieldSpec `yaml:"fields"`
}

// Spec returns the spec for a field. Fields not declared in the schema
// default to editable, not required, with the key as label.
func (s FieldSet) Spec(key string) FieldSpec {
	if spec, ok := s.Fields[key]; ok {
		if spec.Label == "" {
			spec.Label = key
		}
		return spec
	}
	return FieldSpec{Label: key}
}

// Required returns the keys of all required fields in sorted order.
func (s FieldSet) Required() []string {
	var keys []string
	for k, spec := range s.Fields {
		if spec.Required {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Schema maps wizard kinds to their field sets.
type Schema struct {
	Wizards map[model.WizardKind]FieldSet `yaml:"wizards"`
}

// ForKind returns the field set for a wizard kind. Unknown kinds get an
// empty set, meaning every field is editable and none are required.
func (s *Schema) ForKind(kind model.WizardKind) FieldSet {
	if s == nil {
		return FieldSet{}
	}
	return s.Wizards[kind]
}

// Load reads a schema from a YAML file.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "schema: read %s", path)
	}

	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, eris.Wrapf(err, "schema: parse %s", path)
	}
	return &s, nil
}

// boolPtr is a convenience for building schemas in code.
func boolPtr(b bool) *bool { return &b }

// Default returns the built-in schema used when no schema file is
// configured. Privacy wizards mark everything read-only: the generated
// request record is reviewed but never edited.
func Default() *Schema {
	return &Schema{
		Wizards: map[model.WizardKind]FieldSet{
			model.KindPersonalProfile: {Fields: map[string]FieldSpec{
				"full_name": {Label: "Full name", Required: true},
				"headline":  {Label: "Headline"},
				"company":   {Label: "Company"},
				"role":      {Label: "Role"},
				"location":  {Label: "Location"},
				"summary":   {Label: "Summary"},
			}},
			model.KindCompanyProfile: {Fields: map[string]FieldSpec{
				"company_name": {Label: "Company name", Required: true},
				"website":      {Label: "Website", Required: true},
				"industry":     {Label: "Industry"},
				"description":  {Label: "Description"},
				"headcount":    {Label: "Headcount"},
				"location":     {Label: "Headquarters"},
			}},
			model.KindDataExport: {Fields: map[string]FieldSpec{
				"account_id":   {Label: "Account", Editable: boolPtr(false), Required: true},
				"export_scope": {Label: "Export scope", Editable: boolPtr(false)},
				"download_url": {Label: "Download URL", Editable: boolPtr(false)},
			}},
			model.KindAccountDeletion: {Fields: map[string]FieldSpec{
				"account_id":     {Label: "Account", Editable: boolPtr(false), Required: true},
				"scheduled_date": {Label: "Scheduled for", Editable: boolPtr(false)},
				"retained_data":  {Label: "Retained data", Editable: boolPtr(false)},
			}},
		},
	}
}
