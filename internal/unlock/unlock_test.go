package unlock

import (
	"testing"
	"time"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatal(err)
	}
	return parsed
}

func TestStartDatePriority(t *testing.T) {
	created := mustTime(t, "2026-01-10T15:04:05Z")
	explicit := mustTime(t, "2026-02-01T08:00:00Z")

	tests := []struct {
		name string
		src  Source
		want string
	}{
		{
			name: "meta override wins",
			src: Source{
				Meta:               map[string]any{"programStart": "2026-03-05T12:30:00Z"},
				EducationStartDate: &explicit,
				CreatedAt:          created,
			},
			want: "2026-03-05T00:00:00Z",
		},
		{
			name: "explicit field next",
			src: Source{
				EducationStartDate: &explicit,
				CreatedAt:          created,
			},
			want: "2026-02-01T00:00:00Z",
		},
		{
			name: "legacy meta field next",
			src: Source{
				Meta:      map[string]any{"educationStartDate": "2026-02-14"},
				CreatedAt: created,
			},
			want: "2026-02-14T00:00:00Z",
		},
		{
			name: "account creation as last resort",
			src:  Source{CreatedAt: created},
			want: "2026-01-10T00:00:00Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StartDate(tt.src, time.UTC)
			if got == nil {
				t.Fatal("expected a start date")
			}
			if !got.Equal(mustTime(t, tt.want)) {
				t.Fatalf("StartDate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStartDateAbsent(t *testing.T) {
	if got := StartDate(Source{}, time.UTC); got != nil {
		t.Fatalf("StartDate = %v, want nil", got)
	}
}

func TestStartDateMalformedMetaIsIgnored(t *testing.T) {
	created := mustTime(t, "2026-01-10T15:04:05Z")
	src := Source{
		Meta:      map[string]any{"programStart": "not-a-date", "educationStartDate": 42},
		CreatedAt: created,
	}

	got := StartDate(src, time.UTC)
	if got == nil || !got.Equal(mustTime(t, "2026-01-10T00:00:00Z")) {
		t.Fatalf("StartDate = %v, want creation day", got)
	}
}

func TestStartDateNormalizesInLocation(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Kyiv")
	if err != nil {
		t.Skip("tzdata unavailable")
	}

	// 23:30 UTC on Jan 10 is already Jan 11 in Kyiv.
	created := mustTime(t, "2026-01-10T23:30:00Z")
	got := StartDate(Source{CreatedAt: created}, loc)
	if got == nil {
		t.Fatal("expected a start date")
	}

	want := time.Date(2026, 1, 11, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("StartDate = %v, want %v", got, want)
	}
}

func TestVideoUnlockDateDefaultsToOrderOffset(t *testing.T) {
	start := mustTime(t, "2026-02-01T00:00:00Z")

	got := VideoUnlockDate(nil, nil, 5, &start)
	if got == nil {
		t.Fatal("expected an unlock date")
	}
	if want := start.AddDate(0, 0, 4); !got.Equal(want) {
		t.Fatalf("unlock = %v, want %v (order-1 days)", got, want)
	}
}

func TestVideoUnlockDateExplicitOffset(t *testing.T) {
	start := mustTime(t, "2026-02-01T00:00:00Z")
	offset := 10

	got := VideoUnlockDate(nil, &offset, 5, &start)
	if got == nil || !got.Equal(start.AddDate(0, 0, 10)) {
		t.Fatalf("unlock = %v, want start+10d", got)
	}
}

func TestVideoUnlockDateExplicitDateWins(t *testing.T) {
	start := mustTime(t, "2026-02-01T00:00:00Z")
	explicit := mustTime(t, "2027-01-01T00:00:00Z")
	offset := 2

	got := VideoUnlockDate(&explicit, &offset, 5, &start)
	if got == nil || !got.Equal(explicit) {
		t.Fatalf("unlock = %v, want explicit date verbatim", got)
	}

	// Explicit date applies even without a start date.
	got = VideoUnlockDate(&explicit, nil, 1, nil)
	if got == nil || !got.Equal(explicit) {
		t.Fatalf("unlock = %v, want explicit date", got)
	}
}

func TestVideoUnlockDateWithoutStart(t *testing.T) {
	if got := VideoUnlockDate(nil, nil, 3, nil); got != nil {
		t.Fatalf("unlock = %v, want nil (no gating)", got)
	}
}

func TestAvailable(t *testing.T) {
	now := mustTime(t, "2026-02-10T12:00:00Z")
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	if !Available(nil, now) {
		t.Fatal("absent unlock date must be available")
	}
	if !Available(&past, now) {
		t.Fatal("past unlock date must be available")
	}
	if !Available(&now, now) {
		t.Fatal("unlock date equal to now must be available")
	}
	if Available(&future, now) {
		t.Fatal("future unlock date must not be available")
	}
}
