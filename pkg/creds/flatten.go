package creds

import (
	"fmt"
	"sort"
	"strings"
)

// Line is one flattened credential field ready for display. Sensitive lines
// (the minted username/password) must be rendered obscured by default.
type Line struct {
	Key       string
	Value     string
	Sensitive bool
}

// sensitiveKeys marks credential fields for privileged/obscured display.
var sensitiveKeys = map[string]struct{}{
	"username": {},
	"password": {},
}

// Flatten walks a decoded backend payload depth-first and produces ordered
// key: value lines. Nested objects contribute dot-joined keys; sibling keys
// are emitted in sorted order so output is stable across calls.
func Flatten(data map[string]any) []Line {
	var lines []Line
	flattenInto(&lines, "", data)
	return lines
}

func flattenInto(lines *[]Line, prefix string, data map[string]any) {
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		switch value := data[key].(type) {
		case map[string]any:
			flattenInto(lines, path, value)
		default:
			_, sensitive := sensitiveKeys[strings.ToLower(key)]
			*lines = append(*lines, Line{
				Key:       path,
				Value:     valueString(value),
				Sensitive: sensitive,
			})
		}
	}
}

func valueString(value any) string {
	if value == nil {
		return ""
	}
	return fmt.Sprintf("%v", value)
}
