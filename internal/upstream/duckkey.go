package upstream

// get looks up key under both its snake_case and camelCase spellings,
// since upstream events use inconsistent casing. Do not pre-normalize the
// whole tree — outbound round-tripping needs to preserve caller casing.
func get(m map[string]any, snake, camel string) (any, bool) {
	if v, ok := m[snake]; ok {
		return v, true
	}
	if v, ok := m[camel]; ok {
		return v, true
	}
	return nil, false
}

func getString(m map[string]any, snake, camel string) string {
	v, ok := get(m, snake, camel)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func getMap(m map[string]any, snake, camel string) map[string]any {
	v, ok := get(m, snake, camel)
	if !ok {
		return nil
	}
	mm, _ := v.(map[string]any)
	return mm
}

func getSlice(m map[string]any, snake, camel string) []any {
	v, ok := get(m, snake, camel)
	if !ok {
		return nil
	}
	s, _ := v.([]any)
	return s
}
