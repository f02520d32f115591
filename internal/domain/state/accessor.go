package state

import "strings"

// Get resolves a dot-delimited path against a nested map tree. Missing keys
// or non-map intermediates yield nil; Get never panics. Array indices are
// not path-addressable.
func Get(root map[string]any, path string) any {
	if root == nil || path == "" {
		return nil
	}
	parts := strings.Split(path, ".")
	var current any = root
	for _, part := range parts {
		node, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = node[part]
		if !ok {
			return nil
		}
	}
	return current
}

// Set writes a value at a dot-delimited path, creating intermediate map
// nodes as needed. A non-map intermediate already present at a path segment
// is overwritten with a fresh map so Set never fails.
func Set(root map[string]any, path string, value any) {
	if root == nil || path == "" {
		return
	}
	parts := strings.Split(path, ".")
	node := root
	for _, part := range parts[:len(parts)-1] {
		next, ok := node[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			node[part] = next
		}
		node = next
	}
	node[parts[len(parts)-1]] = value
}

// ToFloat coerces numeric values decoded from YAML/JSON (which arrive as
// int, int64, or float64 depending on the decoder) into a float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
