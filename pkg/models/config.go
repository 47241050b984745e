package models

// CloneConfig deep-copies a JSON-like configuration map. Nested maps and
// slices are copied; scalars are shared.
func CloneConfig(config map[string]any) map[string]any {
	if config == nil {
		return nil
	}

	out := make(map[string]any, len(config))
	for k, v := range config {
		out[k] = CloneValue(v)
	}

	return out
}

// CloneValue deep-copies a JSON-like value.
func CloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CloneConfig(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = CloneValue(item)
		}

		return out
	case map[string]string:
		out := make(map[string]string, len(val))
		for k, s := range val {
			out[k] = s
		}

		return out
	case []string:
		return append([]string(nil), val...)
	case []map[string]any:
		out := make([]map[string]any, len(val))
		for i, item := range val {
			out[i] = CloneConfig(item)
		}

		return out
	default:
		return v
	}
}
