package web

import (
	"strconv"
	"strings"

	"github.com/intelliment/puppet-integration/internal/domain"
)

// parseInt parses a string to int with a default value.
func parseInt(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// formIdentifiers converts submitted checkbox values to identifiers,
// skipping blanks.
func formIdentifiers(values []string) []domain.Identifier {
	ids := make([]domain.Identifier, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		ids = append(ids, domain.Identifier(v))
	}
	return ids
}

// formBool reports whether a checkbox-style form value is set.
func formBool(v string) bool {
	switch strings.ToLower(v) {
	case "true", "on", "1", "yes":
		return true
	default:
		return false
	}
}
