// Package unlock computes when education videos become available to a user.
//
// A user's program start date is resolved from several historical locations in
// the user record, then normalized to the start of its calendar day in the
// configured program timezone (UTC by default). Video unlock dates are either
// absolute overrides or day offsets from that start date.
package unlock

import (
	"time"
)

// Metadata keys consulted for the program start date. The second is a legacy
// location still populated by older user records.
const (
	metaProgramStart        = "programStart"
	metaLegacyEducationDate = "educationStartDate"
)

// Source carries the per-user fields consulted when resolving a program start
// date, in declining priority after the meta override.
type Source struct {
	Meta               map[string]any
	EducationStartDate *time.Time
	CreatedAt          time.Time
}

// StartDate resolves the user's program start date: the metadata override,
// then the explicit education start field, then the legacy metadata field,
// then the account creation time. Nil when none is present. The result is
// normalized to the start of its calendar day in loc. Malformed stored dates
// are treated as absent.
func StartDate(src Source, loc *time.Location) *time.Time {
	if start := parseDateValue(src.Meta[metaProgramStart]); start != nil {
		return startOfDay(*start, loc)
	}

	if src.EducationStartDate != nil {
		return startOfDay(*src.EducationStartDate, loc)
	}

	if start := parseDateValue(src.Meta[metaLegacyEducationDate]); start != nil {
		return startOfDay(*start, loc)
	}

	if !src.CreatedAt.IsZero() {
		return startOfDay(src.CreatedAt, loc)
	}

	return nil
}

// VideoUnlockDate computes the instant a video unlocks for a user.
//
// An explicit unlock date wins verbatim and ignores the start date entirely.
// Without a start date there is no gating and the result is nil. Otherwise
// the video unlocks offsetDays after the start, defaulting to order-1 days.
func VideoUnlockDate(explicit *time.Time, offsetDays *int, order int, start *time.Time) *time.Time {
	if explicit != nil {
		t := *explicit
		return &t
	}

	if start == nil {
		return nil
	}

	offset := order - 1
	if offsetDays != nil {
		offset = *offsetDays
	}
	if offset < 0 {
		offset = 0
	}

	t := start.AddDate(0, 0, offset)
	return &t
}

// Available reports whether a video with the given unlock date can be watched
// at instant now. An absent unlock date means no gating.
func Available(unlockDate *time.Time, now time.Time) bool {
	return unlockDate == nil || !unlockDate.After(now)
}

func startOfDay(t time.Time, loc *time.Location) *time.Time {
	if loc == nil {
		loc = time.UTC
	}

	local := t.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return &day
}

// parseDateValue interprets loosely typed metadata values as timestamps.
// Strings are tried as RFC3339 and then as bare dates.
func parseDateValue(value any) *time.Time {
	switch v := value.(type) {
	case nil:
		return nil
	case time.Time:
		if v.IsZero() {
			return nil
		}
		t := v
		return &t
	case *time.Time:
		if v == nil || v.IsZero() {
			return nil
		}
		t := *v
		return &t
	case string:
		if v == "" {
			return nil
		}
		if parsed, err := time.Parse(time.RFC3339, v); err == nil {
			return &parsed
		}
		if parsed, err := time.Parse("2006-01-02", v); err == nil {
			return &parsed
		}
		return nil
	default:
		return nil
	}
}
