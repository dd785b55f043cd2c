package request

import (
	"strings"
	"time"
)

// ParseDatePtr parses an optional date form value into a *time.Time. Empty
// input yields nil without error. Accepts RFC3339 timestamps and bare
// "2006-01-02" dates.
func ParseDatePtr(raw string) (*time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}

	if parsed, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return &parsed, nil
	}

	parsed, err := time.Parse("2006-01-02", trimmed)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
