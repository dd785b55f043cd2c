package request

import (
	"testing"
	"time"
)

func TestParseDatePtr(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantNil bool
		wantErr bool
	}{
		{name: "empty is absent", raw: "", wantNil: true},
		{name: "whitespace is absent", raw: "   ", wantNil: true},
		{name: "rfc3339", raw: "2026-02-01T08:30:00Z", want: "2026-02-01T08:30:00Z"},
		{name: "bare date", raw: "2026-02-14", want: "2026-02-14T00:00:00Z"},
		{name: "garbage", raw: "next tuesday", wantErr: true},
		{name: "partial date", raw: "2026-02", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDatePtr(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDatePtr(%q) = %v, want error", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDatePtr(%q): %v", tt.raw, err)
			}
			if tt.wantNil {
				if got != nil {
					t.Fatalf("ParseDatePtr(%q) = %v, want nil", tt.raw, got)
				}
				return
			}
			want, parseErr := time.Parse(time.RFC3339, tt.want)
			if parseErr != nil {
				t.Fatal(parseErr)
			}
			if got == nil || !got.Equal(want) {
				t.Fatalf("ParseDatePtr(%q) = %v, want %v", tt.raw, got, want)
			}
		})
	}
}
