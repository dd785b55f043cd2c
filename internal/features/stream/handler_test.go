package stream

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"log/slog"

	"github.com/gin-gonic/gin"
)

func newTestServer(t *testing.T, files map[string][]byte) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), dir)
	r := gin.New()
	RegisterRoutes(r.Group(""), h)
	return r
}

func videoBytes(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

func TestServeFullFile(t *testing.T) {
	data := videoBytes(1000)
	r := newTestServer(t, map[string][]byte{"clip.mp4": data})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/education-videos/clip.mp4", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := w.Header().Get("Accept-Ranges"); got != "bytes" {
		t.Fatalf("Accept-Ranges = %q", got)
	}
	if got := w.Header().Get("Content-Type"); got != "video/mp4" {
		t.Fatalf("Content-Type = %q", got)
	}
	if got := w.Header().Get("Content-Length"); got != "1000" {
		t.Fatalf("Content-Length = %q", got)
	}
	if w.Body.Len() != len(data) {
		t.Fatalf("body length = %d, want %d", w.Body.Len(), len(data))
	}
}

func TestServePartialRange(t *testing.T) {
	data := videoBytes(1000)
	r := newTestServer(t, map[string][]byte{"clip.mp4": data})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/education-videos/clip.mp4", nil)
	req.Header.Set("Range", "bytes=200-399")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", w.Code)
	}
	if got := w.Header().Get("Content-Range"); got != "bytes 200-399/1000" {
		t.Fatalf("Content-Range = %q", got)
	}
	if got := w.Header().Get("Content-Length"); got != "200" {
		t.Fatalf("Content-Length = %q", got)
	}

	body := w.Body.Bytes()
	if len(body) != 200 || body[0] != data[200] || body[199] != data[399] {
		t.Fatalf("body does not match requested window")
	}
}

func TestServeClampsOversizedEnd(t *testing.T) {
	r := newTestServer(t, map[string][]byte{"clip.mp4": videoBytes(1000)})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/education-videos/clip.mp4", nil)
	req.Header.Set("Range", "bytes=900-2000")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", w.Code)
	}
	if got := w.Header().Get("Content-Range"); got != "bytes 900-999/1000" {
		t.Fatalf("Content-Range = %q", got)
	}
	if w.Body.Len() != 100 {
		t.Fatalf("body length = %d, want 100", w.Body.Len())
	}
}

func TestServeReversedRangeFallsBackToFull(t *testing.T) {
	r := newTestServer(t, map[string][]byte{"clip.mp4": videoBytes(1000)})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/education-videos/clip.mp4", nil)
	req.Header.Set("Range", "bytes=500-100")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 fallback", w.Code)
	}
	if w.Body.Len() != 1000 {
		t.Fatalf("body length = %d, want full file", w.Body.Len())
	}
}

func TestServeHeadOmitsBody(t *testing.T) {
	r := newTestServer(t, map[string][]byte{"clip.mp4": videoBytes(1000)})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodHead, "/education-videos/clip.mp4", nil)
	req.Header.Set("Range", "bytes=200-399")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", w.Code)
	}
	if got := w.Header().Get("Content-Range"); got != "bytes 200-399/1000" {
		t.Fatalf("Content-Range = %q", got)
	}
	if w.Body.Len() != 0 {
		t.Fatalf("body length = %d, want no body for HEAD", w.Body.Len())
	}
}

func TestServeRejectsTraversal(t *testing.T) {
	r := newTestServer(t, map[string][]byte{"clip.mp4": videoBytes(10)})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/education-videos/secret..mp4", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestServeMissingFile(t *testing.T) {
	r := newTestServer(t, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/education-videos/nope.mp4", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}
