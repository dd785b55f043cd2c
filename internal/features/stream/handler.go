package stream

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/peakform/education-server-go/pkg/assets"
	"github.com/peakform/education-server-go/pkg/httprange"
	"github.com/peakform/education-server-go/pkg/metrics"
	"github.com/peakform/education-server-go/pkg/response"
)

// Handler serves stored education video files with Range support.
type Handler struct {
	logger *slog.Logger
	dir    string
}

// NewHandler constructs a stream handler serving files from dir.
func NewHandler(logger *slog.Logger, dir string) *Handler {
	return &Handler{logger: logger, dir: dir}
}

// Serve streams a stored video file. Honors single-range Range headers and
// answers HEAD with identical headers and no body. Accept-Ranges is always
// advertised so players know seeking works.
func (h *Handler) Serve(c *gin.Context) {
	name, ok := assets.SafeFileName(c.Param("filename"))
	if !ok {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "Invalid file name.", nil)
		return
	}

	path := filepath.Join(h.dir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		response.ErrorWithLog(h.logger, c, http.StatusNotFound, "Video not found.", err)
		return
	}

	file, err := os.Open(path)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusNotFound, "Video not found.", err)
		return
	}
	defer file.Close()

	span := httprange.Resolve(c.GetHeader("Range"), info.Size())

	contentType := assets.MIMEFromPath(name)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.Header("Accept-Ranges", "bytes")
	c.Header("Content-Type", contentType)
	c.Header("Content-Length", strconv.FormatInt(span.Length, 10))
	if span.Partial {
		c.Header("Content-Range", span.ContentRange(info.Size()))
	}
	c.Status(span.Status)

	if c.Request.Method == http.MethodHead {
		return
	}

	if span.Start > 0 {
		if _, err := file.Seek(span.Start, io.SeekStart); err != nil {
			h.logger.Error("failed to seek video file", "file", name, "offset", span.Start, "error", err)
			return
		}
	}

	written, err := io.CopyN(c.Writer, file, span.Length)
	metrics.AddVideoBytes(written)
	if err != nil && !errors.Is(err, io.EOF) {
		// Players abort ranges constantly while seeking; not worth more than debug.
		h.logger.Debug("video stream interrupted", "file", name, "error", err)
	}
}
