package handler

import (
	"strings"
)

// sanitizeSelections trims whitespace from service ids and drops empty ones.
// Keys that collide after trimming are combined so that any false wins.
func sanitizeSelections(selections map[string]bool) map[string]bool {
	out := make(map[string]bool, len(selections))
	for id, v := range selections {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if prev, ok := out[id]; ok {
			v = prev && v
		}
		out[id] = v
	}
	return out
}
