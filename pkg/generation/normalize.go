package generation

// The backend and its upstream job runner do not agree on a naming
// convention: depending on the code path a response may carry jobId or
// job_id, fieldProvenance or field_provenance, and so on. All responses
// are normalized here, once, so nothing downstream ever branches on key
// spelling.

// pick returns the first present key from the candidate list.
func pick(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v, true
		}
	}
	return nil, false
}

func pickString(m map[string]any, keys ...string) string {
	v, ok := pick(m, keys...)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func pickBool(m map[string]any, def bool, keys ...string) bool {
	v, ok := pick(m, keys...)
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

func pickFloat(m map[string]any, keys ...string) float64 {
	v, ok := pick(m, keys...)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func pickMap(m map[string]any, keys ...string) map[string]any {
	v, ok := pick(m, keys...)
	if !ok {
		return nil
	}
	mm, _ := v.(map[string]any)
	return mm
}

func pickStrings(m map[string]any, keys ...string) []string {
	v, ok := pick(m, keys...)
	if !ok {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func normalizeStart(raw map[string]any) *StartResponse {
	return &StartResponse{
		JobID:   pickString(raw, "jobId", "job_id", "id"),
		Status:  JobStatus(pickString(raw, "status")),
		Message: pickString(raw, "message"),
	}
}

func normalizeStatus(raw map[string]any) *StatusResponse {
	resp := &StatusResponse{
		JobID:         pickString(raw, "jobId", "job_id", "id"),
		Status:        JobStatus(pickString(raw, "status")),
		Data:          pickMap(raw, "data", "result"),
		MissingFields: pickStrings(raw, "missingFields", "missing_fields"),
		Error:         pickString(raw, "error", "errorMessage", "error_message"),
	}

	if prov := pickMap(raw, "fieldProvenance", "field_provenance", "provenance"); prov != nil {
		resp.Provenance = make(map[string]FieldProvenance, len(prov))
		for field, v := range prov {
			entry, ok := v.(map[string]any)
			if !ok {
				continue
			}
			resp.Provenance[field] = normalizeProvenance(entry)
		}
	}

	return resp
}

// normalizeProvenance maps one raw provenance entry to the canonical
// shape. Absent editable defaults to true, absent confidence to 0.
func normalizeProvenance(entry map[string]any) FieldProvenance {
	value, _ := pick(entry, "value")
	return FieldProvenance{
		Value:      value,
		Source:     pickString(entry, "source", "origin"),
		Confidence: pickFloat(entry, "confidence", "confidence_score", "confidenceScore"),
		Editable:   pickBool(entry, true, "editable", "is_editable", "isEditable"),
		Required:   pickBool(entry, false, "required", "is_required", "isRequired"),
	}
}

func normalizeConfirm(raw map[string]any) *ConfirmResponse {
	return &ConfirmResponse{
		Success:     pickBool(raw, false, "success"),
		PersistedID: pickString(raw, "persistedId", "persisted_id", "id"),
	}
}
