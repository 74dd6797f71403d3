package model

import (
	"sort"
	"strings"
)

// FieldErrors maps a draft field name to a human-readable problem with it.
// It implements error so validation results can travel through error returns.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	if len(f) == 0 {
		return "model: no field errors"
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+f[k])
	}
	return "model: " + strings.Join(parts, "; ")
}

func (f FieldErrors) add(field, message string) {
	if _, exists := f[field]; !exists {
		f[field] = message
	}
}
