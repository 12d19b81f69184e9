package extractor

import "strings"

// Prune removes empty values from a decoded JSON tree. Null and blank
// strings are dropped, maps and arrays that end up empty are dropped from
// their parent, and an entirely empty tree becomes nil. Numbers and booleans
// are kept as is.
func Prune(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		return v
	case map[string]any:
		for key, child := range v {
			if pruned := Prune(child); pruned == nil {
				delete(v, key)
			} else {
				v[key] = pruned
			}
		}
		if len(v) == 0 {
			return nil
		}
		return v
	case []any:
		out := make([]any, 0, len(v))
		for _, child := range v {
			if pruned := Prune(child); pruned != nil {
				out = append(out, pruned)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	default:
		return v
	}
}
