package models

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationErrors maps a field name (or "base" for aggregate-level
// problems) to its error messages.
type ValidationErrors map[string][]string

func (v ValidationErrors) Add(field, message string) {
	v[field] = append(v[field], message)
}

func (v ValidationErrors) Any() bool {
	return len(v) > 0
}

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for field := range v {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s %s", field, strings.Join(v[field], ", ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
