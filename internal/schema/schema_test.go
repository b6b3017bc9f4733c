package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/profile-wizard/internal/model"
)

func TestFieldSet_SpecDefaults(t *testing.T) {
	fs := FieldSet{Fields: map[string]FieldSpec{
		"name":   {Label: "Name", Required: true},
		"locked": {Editable: boolPtr(false)},
	}}

	spec := fs.Spec("name")
	assert.Equal(t, "Name", spec.Label)
	assert.True(t, spec.Required)
	assert.True(t, spec.IsEditable())

	spec = fs.Spec("locked")
	assert.Equal(t, "locked", spec.Label, "missing label falls back to key")
	assert.False(t, spec.IsEditable())

	spec = fs.Spec("undeclared")
	assert.Equal(t, "undeclared", spec.Label)
	assert.True(t, spec.IsEditable())
	assert.False(t, spec.Required)
}

func TestFieldSet_Required(t *testing.T) {
	fs := FieldSet{Fields: map[string]FieldSpec{
		"b": {Required: true},
		"a": {Required: true},
		"c": {},
	}}
	assert.Equal(t, []string{"a", "b"}, fs.Required())
}

func TestSchema_ForKind(t *testing.T) {
	s := Default()

	personal := s.ForKind(model.KindPersonalProfile)
	assert.True(t, personal.Spec("full_name").Required)

	unknown := s.ForKind(model.WizardKind("bogus"))
	assert.Empty(t, unknown.Fields)

	var nilSchema *Schema
	assert.Empty(t, nilSchema.ForKind(model.KindPersonalProfile).Fields)
}

func TestDefault_PrivacyFieldsReadOnly(t *testing.T) {
	s := Default()
	for _, kind := range []model.WizardKind{model.KindDataExport, model.KindAccountDeletion} {
		fs := s.ForKind(kind)
		require.NotEmpty(t, fs.Fields, string(kind))
		for key := range fs.Fields {
			assert.False(t, fs.Spec(key).IsEditable(), "%s.%s must be read-only", kind, key)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	content := `wizards:
  personal_profile:
    fields:
      full_name:
        label: Full name
        required: true
      internal_score:
        editable: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := Load(path)
	require.NoError(t, err)

	fs := s.ForKind(model.KindPersonalProfile)
	assert.True(t, fs.Spec("full_name").Required)
	assert.False(t, fs.Spec("internal_score").IsEditable())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
