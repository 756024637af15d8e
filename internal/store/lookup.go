package store

import "strconv"

// Lookup walks d one path segment at a time. Objects are indexed by key and
// arrays by decimal position. It reports false as soon as a segment is
// missing or the current value cannot be descended into.
func (d Data) Lookup(path []string) (any, bool) {
	if len(path) == 0 {
		return nil, false
	}
	var current any = map[string]any(d)
	for _, segment := range path {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) || strconv.Itoa(idx) != segment {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}
