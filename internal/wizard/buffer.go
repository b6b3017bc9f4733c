package wizard

// EditBuffer is the locally mutable copy of generated data the user can
// override field by field before confirmation. It is seeded with a
// structural copy, so edits never write back into the generation result.
type EditBuffer struct {
	fields map[string]any
}

// NewEditBuffer deep-copies the generated data into a fresh buffer.
func NewEditBuffer(generated map[string]any) *EditBuffer {
	copied, _ := copyValue(generated).(map[string]any)
	if copied == nil {
		copied = make(map[string]any)
	}
	return &EditBuffer{fields: copied}
}

// Get returns the current value for a field.
func (b *EditBuffer) Get(key string) (any, bool) {
	v, ok := b.fields[key]
	return v, ok
}

// Set overrides a field value. Only the buffer is mutated.
func (b *EditBuffer) Set(key string, value any) {
	b.fields[key] = value
}

// Payload returns the buffer contents for submission. The buffer was
// seeded from the full generation result, so no re-merge is needed.
func (b *EditBuffer) Payload() map[string]any {
	return b.fields
}

// EmptyRequired returns which of the given keys are absent or empty in
// the buffer. Used to surface missing required fields at review; it
// never blocks confirmation.
func (b *EditBuffer) EmptyRequired(required []string) []string {
	var missing []string
	for _, key := range required {
		v, ok := b.fields[key]
		if !ok || v == nil || v == "" {
			missing = append(missing, key)
		}
	}
	return missing
}

// copyValue structurally copies JSON-shaped values: maps and slices are
// duplicated, scalars returned as-is.
func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = copyValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}
