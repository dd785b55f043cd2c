package httprange

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Span describes the byte window to serve for a request, together with the
// HTTP status to respond with.
type Span struct {
	Partial bool
	Status  int
	Start   int64
	End     int64
	Length  int64
}

// Resolve maps a Range header and the file's total size onto a byte span.
//
// Only the single-range form "bytes=<start>-<end>" is honored, with either
// side optional. A missing or unparseable header yields the full file. An
// invalid start falls back to 0 and an invalid or oversized end clamps to the
// last byte. A reversed range (start past end after normalization) is served
// as the full file rather than rejected, matching lenient player behavior.
func Resolve(header string, size int64) Span {
	full := Span{
		Partial: false,
		Status:  http.StatusOK,
		Start:   0,
		End:     size - 1,
		Length:  size,
	}

	if !strings.HasPrefix(header, "bytes=") {
		return full
	}

	startToken, endToken, found := strings.Cut(strings.TrimPrefix(header, "bytes="), "-")
	if !found {
		return full
	}

	start, err := strconv.ParseInt(startToken, 10, 64)
	if err != nil || start < 0 {
		start = 0
	}

	end, err := strconv.ParseInt(endToken, 10, 64)
	if err != nil || end >= size {
		end = size - 1
	}

	if start > end {
		return full
	}

	return Span{
		Partial: true,
		Status:  http.StatusPartialContent,
		Start:   start,
		End:     end,
		Length:  end - start + 1,
	}
}

// ContentRange formats the Content-Range header value for a partial span.
func (s Span) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", s.Start, s.End, size)
}
