package assets

import "testing"

func TestResolveURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		base string
		want string
	}{
		{"relative with slash", "/education-videos/a.mp4", "https://app.example.com", "https://app.example.com/education-videos/a.mp4"},
		{"relative without slash", "education-videos/a.mp4", "https://app.example.com", "https://app.example.com/education-videos/a.mp4"},
		{"base with trailing slash", "/a.mp4", "https://app.example.com/", "https://app.example.com/a.mp4"},
		{"absolute passes through", "https://cdn.example.com/v.mp4", "https://app.example.com", "https://cdn.example.com/v.mp4"},
		{"empty", "", "https://app.example.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveURL(tt.raw, tt.base); got != tt.want {
				t.Fatalf("ResolveURL(%q, %q) = %q, want %q", tt.raw, tt.base, got, tt.want)
			}
		})
	}
}

func TestMIMERoundTrip(t *testing.T) {
	if got := MIMEFromPath("/education-videos/clip.MP4"); got != "video/mp4" {
		t.Fatalf("MIMEFromPath = %q", got)
	}
	if got := MIMEFromPath("clip.txt"); got != "" {
		t.Fatalf("unknown extension should map to empty, got %q", got)
	}
	if got := ExtensionFromMIME("video/webm"); got != ".webm" {
		t.Fatalf("ExtensionFromMIME = %q", got)
	}
	if got := ExtensionFromMIME("application/pdf"); got != "" {
		t.Fatalf("unknown mime should map to empty, got %q", got)
	}
}

func TestSafeFileName(t *testing.T) {
	if name, ok := SafeFileName("clip.mp4"); !ok || name != "clip.mp4" {
		t.Fatalf("SafeFileName = %q, %v", name, ok)
	}

	// Traversal attempts reduce to the base name or get rejected outright.
	if name, ok := SafeFileName("nested/dir/clip.mp4"); !ok || name != "clip.mp4" {
		t.Fatalf("SafeFileName = %q, %v", name, ok)
	}

	for _, raw := range []string{"", "..", "../../etc/passwd/..", "a..b"} {
		if _, ok := SafeFileName(raw); ok {
			t.Fatalf("SafeFileName(%q) should be rejected", raw)
		}
	}
}
