package httprange

import (
	"net/http"
	"testing"
)

func TestResolveNoHeader(t *testing.T) {
	span := Resolve("", 1000)

	if span.Partial {
		t.Fatal("expected full response without a Range header")
	}
	if span.Status != http.StatusOK {
		t.Fatalf("status = %d, want %d", span.Status, http.StatusOK)
	}
	if span.Start != 0 || span.End != 999 || span.Length != 1000 {
		t.Fatalf("span = %+v, want full 0-999/1000", span)
	}
}

func TestResolvePartial(t *testing.T) {
	span := Resolve("bytes=200-399", 1000)

	if !span.Partial {
		t.Fatal("expected partial response")
	}
	if span.Status != http.StatusPartialContent {
		t.Fatalf("status = %d, want %d", span.Status, http.StatusPartialContent)
	}
	if span.Start != 200 || span.End != 399 || span.Length != 200 {
		t.Fatalf("span = %+v, want 200-399 length 200", span)
	}
	if got := span.ContentRange(1000); got != "bytes 200-399/1000" {
		t.Fatalf("ContentRange = %q", got)
	}
}

func TestResolveClampsEnd(t *testing.T) {
	span := Resolve("bytes=900-2000", 1000)

	if !span.Partial {
		t.Fatal("expected partial response")
	}
	if span.Start != 900 || span.End != 999 || span.Length != 100 {
		t.Fatalf("span = %+v, want 900-999 length 100", span)
	}
}

func TestResolveOpenEnded(t *testing.T) {
	span := Resolve("bytes=500-", 1000)

	if !span.Partial {
		t.Fatal("expected partial response")
	}
	if span.Start != 500 || span.End != 999 || span.Length != 500 {
		t.Fatalf("span = %+v, want 500-999 length 500", span)
	}
}

func TestResolveSuffixlessStart(t *testing.T) {
	span := Resolve("bytes=-399", 1000)

	if !span.Partial {
		t.Fatal("expected partial response")
	}
	if span.Start != 0 || span.End != 399 || span.Length != 400 {
		t.Fatalf("span = %+v, want 0-399 length 400", span)
	}
}

func TestResolveReversedFallsBackToFull(t *testing.T) {
	span := Resolve("bytes=500-100", 1000)

	if span.Partial {
		t.Fatal("reversed range should fall back to the full file")
	}
	if span.Start != 0 || span.End != 999 || span.Length != 1000 {
		t.Fatalf("span = %+v, want full range", span)
	}
}

func TestResolveGarbage(t *testing.T) {
	for _, header := range []string{"bites=0-10", "bytes=", "0-10", "bytes=abc"} {
		span := Resolve(header, 1000)
		if span.Partial {
			t.Fatalf("header %q should yield the full file", header)
		}
	}

	// Garbage tokens inside a well-formed header normalize to the defaults
	// and are still served as partial content covering the whole file.
	span := Resolve("bytes=abc-xyz", 1000)
	if !span.Partial || span.Start != 0 || span.End != 999 || span.Length != 1000 {
		t.Fatalf("span = %+v, want partial 0-999", span)
	}
}
