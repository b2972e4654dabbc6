package notion

// Lookup walks v along path, where each step is a map key (string) or a slice index (int).
// It returns false as soon as a step is missing, null, or of the wrong shape.
func Lookup(v any, path ...any) (any, bool) {
	cur := v
	for _, step := range path {
		if cur == nil {
			return nil, false
		}
		switch key := step.(type) {
		case string:
			m, ok := asMap(cur)
			if !ok {
				return nil, false
			}
			cur, ok = m[key]
			if !ok {
				return nil, false
			}
		case int:
			s, ok := cur.([]any)
			if !ok || key < 0 || key >= len(s) {
				return nil, false
			}
			cur = s[key]
		default:
			return nil, false
		}
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// StringOr returns the string at path, or def when it is absent, not a string, or empty.
func StringOr(v any, def string, path ...any) string {
	x, ok := Lookup(v, path...)
	if !ok {
		return def
	}
	s, ok := x.(string)
	if !ok || s == "" {
		return def
	}
	return s
}

// BoolOr returns the bool at path, or def.
func BoolOr(v any, def bool, path ...any) bool {
	x, ok := Lookup(v, path...)
	if !ok {
		return def
	}
	b, ok := x.(bool)
	if !ok {
		return def
	}
	return b
}

// ListAt returns the array at path, or nil.
func ListAt(v any, path ...any) []any {
	x, ok := Lookup(v, path...)
	if !ok {
		return nil
	}
	s, _ := x.([]any)
	return s
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Object:
		return m, true
	default:
		return nil, false
	}
}
