package entity

import (
	"encoding/json"
	"strings"
)

// CategoryUncategorized is the bucket used for messages that finished
// enrichment without any recognized category.
const CategoryUncategorized = "uncategorized"

// NormalizeCategories coerces the loosely typed category input seen in
// crawled payloads into a clean string slice. Accepted shapes: a string
// slice, a JSON-encoded array, a comma-separated list, or a single value.
// Unknown shapes normalize to nil.
func NormalizeCategories(raw any) []string {
	switch v := raw.(type) {
	case nil:
		return nil
	case []string:
		return trimAll(v)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, strings.TrimSpace(s))
			}
		}

		return out
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return []string{}
		}
		if parsed, ok := tryParseJSONArray(trimmed); ok {
			return parsed
		}
		if strings.Contains(trimmed, ",") {
			return trimAll(strings.Split(trimmed, ","))
		}

		return []string{trimmed}
	default:
		return nil
	}
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		out = append(out, strings.TrimSpace(value))
	}

	return out
}

func tryParseJSONArray(value string) ([]string, bool) {
	if !strings.HasPrefix(value, "[") || !strings.HasSuffix(value, "]") {
		return nil, false
	}

	var parsed []any
	if err := json.Unmarshal([]byte(value), &parsed); err != nil {
		return nil, false
	}

	out := make([]string, 0, len(parsed))
	for _, item := range parsed {
		if s, ok := item.(string); ok {
			out = append(out, strings.TrimSpace(s))
		}
	}

	return out, true
}
