package video

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/peakform/education-server-go/internal/features/progress"
	"github.com/peakform/education-server-go/internal/middleware"
	"github.com/peakform/education-server-go/internal/unlock"
	"github.com/peakform/education-server-go/pkg/assets"
	"github.com/peakform/education-server-go/pkg/cache"
	"github.com/peakform/education-server-go/pkg/mediaprobe"
	"github.com/peakform/education-server-go/pkg/pagination"
	"github.com/peakform/education-server-go/pkg/request"
	"github.com/peakform/education-server-go/pkg/response"
)

// publicPathPrefix is the URL path uploaded videos are served under.
const publicPathPrefix = "/education-videos"

const durationCacheTTL = 24 * time.Hour

// Options carries the handler's non-database dependencies.
type Options struct {
	// VideoDir is where uploaded files are written and probed.
	VideoDir string
	// AssetBaseURL overrides the request origin when building public URLs.
	AssetBaseURL string
	// Location is the timezone program start dates are normalized in.
	Location *time.Location
	// Prober extracts media durations; nil disables duration backfill.
	Prober mediaprobe.Prober
	// Cache memoizes probed durations; nil disables the memo.
	Cache cache.Client
}

// Handler processes education video HTTP requests.
type Handler struct {
	db      *gorm.DB
	logger  *slog.Logger
	dir     string
	baseURL string
	loc     *time.Location
	prober  mediaprobe.Prober
	cache   cache.Client
}

// NewHandler constructs a video handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger, opts Options) *Handler {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	return &Handler{
		db:      db,
		logger:  logger,
		dir:     opts.VideoDir,
		baseURL: strings.TrimRight(opts.AssetBaseURL, "/"),
		loc:     loc,
		prober:  opts.Prober,
		cache:   opts.Cache,
	}
}

// View is the catalog entry shape returned to clients, annotated with the
// requesting user's availability and viewing state.
type View struct {
	ID              uuid.UUID  `json:"id"`
	Order           int        `json:"order"`
	Title           string     `json:"title"`
	Description     *string    `json:"description,omitempty"`
	URL             string     `json:"url"`
	DurationSeconds *int       `json:"durationSeconds,omitempty"`
	UnlockDate      *time.Time `json:"unlockDate,omitempty"`
	Available       bool       `json:"available"`
	Viewed          bool       `json:"viewed"`
	ViewedAt        *time.Time `json:"viewed_at,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// List returns the catalog annotated for the authenticated user. Without
// page/limit parameters the full catalog is returned.
func (h *Handler) List(c *gin.Context) {
	usr, ok := middleware.GetUserFromContext(c)
	if !ok {
		response.ErrorWithLog(h.logger, c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	paginated := c.Query("page") != "" || c.Query("limit") != ""

	var (
		videos []EducationVideo
		meta   interface{}
		err    error
	)

	if paginated {
		params := pagination.Extract(c)
		var total int64
		videos, total, err = List(h.db, params)
		if err == nil {
			meta = pagination.MetadataFrom(total, params)
		}
	} else {
		videos, err = ListAll(h.db)
	}
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load videos", err)
		return
	}

	for i := range videos {
		h.backfillDuration(c.Request.Context(), &videos[i])
	}

	ids := make([]uuid.UUID, len(videos))
	for i, v := range videos {
		ids[i] = v.ID
	}

	progressMap, err := progress.MapForUser(h.db, usr.ID, ids)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load viewing progress", err)
		return
	}

	start := h.startDateFor(usr)
	now := time.Now()
	views := make([]View, 0, len(videos))
	for _, v := range videos {
		views = append(views, h.viewFor(c, v, start, progressMap, now))
	}

	response.Success(c, http.StatusOK, views, "", meta)
}

// Upload accepts a multipart form with title, optional description and
// unlockDate, and one video file. The file is written before the record is
// created; a failed insert leaves no record behind and removes the orphan.
func (h *Handler) Upload(c *gin.Context) {
	usr, ok := middleware.GetUserFromContext(c)
	if !ok {
		response.ErrorWithLog(h.logger, c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	if title == "" {
		h.respondError(c, ErrTitleRequired, "invalid upload payload")
		return
	}

	var description *string
	if desc := strings.TrimSpace(c.PostForm("description")); desc != "" {
		description = &desc
	}

	unlockDate, err := request.ParseDatePtr(c.PostForm("unlockDate"))
	if err != nil {
		h.respondError(c, ErrInvalidUnlockDate, "invalid upload payload")
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		h.respondError(c, ErrFileRequired, "invalid upload payload")
		return
	}
	if header.Size == 0 {
		h.respondError(c, ErrFileEmpty, "invalid upload payload")
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext == "" {
		ext = assets.ExtensionFromMIME(header.Header.Get("Content-Type"))
	}
	if ext == "" {
		// Browsers sometimes send bare names with a generic content type.
		ext = ".mp4"
	}
	fileName := uuid.NewString() + ext

	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to prepare video directory", err)
		return
	}

	dest := filepath.Join(h.dir, fileName)
	if err := c.SaveUploadedFile(header, dest); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to store video file", err)
		return
	}

	created, err := Create(h.db, CreateInput{
		Title:       title,
		Description: description,
		URL:         publicPathPrefix + "/" + fileName,
		UnlockDate:  unlockDate,
	})
	if err != nil {
		if removeErr := os.Remove(dest); removeErr != nil {
			h.logger.Warn("failed to remove orphan video file", "path", dest, "error", removeErr)
		}
		h.respondError(c, err, "failed to create video")
		return
	}

	h.probeAndPersistDuration(c.Request.Context(), &created, dest)

	start := h.startDateFor(usr)
	response.Created(c, h.viewFor(c, created, start, nil, time.Now()), "")
}

// Delete removes a video, its progress records, and its stored file. The
// record and progress deletes plus the order renumber run in one transaction;
// file removal is best effort afterwards.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("videoId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid video id", err)
		return
	}

	var removed EducationVideo
	err = h.db.Transaction(func(tx *gorm.DB) error {
		v, err := Get(tx, id)
		if err != nil {
			return err
		}
		if err := progress.DeleteByVideo(tx, id); err != nil {
			return err
		}
		if err := DeleteAndRenumber(tx, v); err != nil {
			return err
		}
		removed = v
		return nil
	})
	if err != nil {
		h.respondError(c, err, "failed to delete video")
		return
	}

	if path, ok := h.localPath(removed.URL); ok {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			h.logger.Warn("failed to remove video file", "videoId", id, "error", err)
		}
	}

	response.Success(c, http.StatusOK, gin.H{"id": id, "deleted": true}, "", nil)
}

// MarkViewed records that the authenticated user watched the video, provided
// it is unlocked for them.
func (h *Handler) MarkViewed(c *gin.Context) {
	usr, ok := middleware.GetUserFromContext(c)
	if !ok {
		response.ErrorWithLog(h.logger, c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	id, err := uuid.Parse(c.Param("videoId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid video id", err)
		return
	}

	v, err := Get(h.db, id)
	if err != nil {
		h.respondError(c, err, "failed to load video")
		return
	}

	now := time.Now()
	start := h.startDateFor(usr)
	unlockDate := unlock.VideoUnlockDate(v.UnlockDate, v.UnlockDaysOffset, v.Order, start)
	if !unlock.Available(unlockDate, now) {
		response.ErrorWithLog(h.logger, c, http.StatusForbidden, "Video is not unlocked yet", nil)
		return
	}

	record, err := progress.Upsert(h.db, usr.ID, id, now)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to record viewing progress", err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"id":        id,
		"viewed":    true,
		"viewed_at": record.ViewedAt,
	}, "", nil)
}

func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	status := http.StatusInternalServerError
	message := fallback

	switch {
	case errors.Is(err, ErrVideoNotFound):
		status = http.StatusNotFound
		message = "Video not found."
	case errors.Is(err, ErrTitleRequired):
		status = http.StatusBadRequest
		message = "Video title is required."
	case errors.Is(err, ErrCatalogFull):
		status = http.StatusBadRequest
		message = fmt.Sprintf("Video catalog is limited to %d videos.", MaxVideos)
	case errors.Is(err, ErrFileRequired):
		status = http.StatusBadRequest
		message = "A video file is required."
	case errors.Is(err, ErrFileEmpty):
		status = http.StatusBadRequest
		message = "Uploaded video file is empty."
	case errors.Is(err, ErrInvalidUnlockDate):
		status = http.StatusBadRequest
		message = "Unlock date must be an ISO date."
	}

	response.ErrorWithLog(h.logger, c, status, message, err)
}

func (h *Handler) startDateFor(usr *middleware.User) *time.Time {
	return unlock.StartDate(unlock.Source{
		Meta:               usr.MetaMap(),
		EducationStartDate: usr.EducationStartDate,
		CreatedAt:          usr.CreatedAt,
	}, h.loc)
}

func (h *Handler) viewFor(c *gin.Context, v EducationVideo, start *time.Time, prog map[uuid.UUID]progress.Progress, now time.Time) View {
	unlockDate := unlock.VideoUnlockDate(v.UnlockDate, v.UnlockDaysOffset, v.Order, start)

	view := View{
		ID:              v.ID,
		Order:           v.Order,
		Title:           v.Title,
		Description:     v.Description,
		URL:             assets.ResolveURL(v.URL, h.publicBase(c)),
		DurationSeconds: v.DurationSeconds,
		UnlockDate:      unlockDate,
		Available:       unlock.Available(unlockDate, now),
		CreatedAt:       v.CreatedAt,
	}

	if record, ok := prog[v.ID]; ok {
		viewedAt := record.ViewedAt
		view.Viewed = true
		view.ViewedAt = &viewedAt
	}

	return view
}

func (h *Handler) publicBase(c *gin.Context) string {
	if h.baseURL != "" {
		return h.baseURL
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	return scheme + "://" + c.Request.Host
}

// localPath maps a stored relative URL onto the file it names inside the
// video directory. External absolute URLs have no local file.
func (h *Handler) localPath(rawURL string) (string, bool) {
	lower := strings.ToLower(rawURL)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return "", false
	}

	name, ok := assets.SafeFileName(rawURL)
	if !ok {
		return "", false
	}

	return filepath.Join(h.dir, name), true
}

func durationCacheKey(id uuid.UUID) string {
	return "education:video-duration:" + id.String()
}

// backfillDuration lazily resolves a missing duration: redis memo first, then
// an ffprobe of the local file, persisting whatever it finds. Every failure is
// logged and swallowed; listings never fail over a missing duration.
func (h *Handler) backfillDuration(ctx context.Context, v *EducationVideo) {
	if v.DurationSeconds != nil {
		return
	}

	if h.cache != nil {
		if raw, err := h.cache.Get(ctx, durationCacheKey(v.ID)); err == nil {
			if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
				if err := SetDuration(h.db, v.ID, seconds); err != nil {
					h.logger.Warn("failed to persist video duration", "videoId", v.ID, "error", err)
					return
				}
				v.DurationSeconds = &seconds
				return
			}
		}
	}

	path, ok := h.localPath(v.URL)
	if !ok {
		return
	}

	h.probeAndPersistDuration(ctx, v, path)
}

func (h *Handler) probeAndPersistDuration(ctx context.Context, v *EducationVideo, path string) {
	if h.prober == nil {
		return
	}

	seconds, err := h.prober.Duration(ctx, path)
	if err != nil {
		h.logger.Warn("failed to probe video duration", "videoId", v.ID, "error", err)
		return
	}

	if err := SetDuration(h.db, v.ID, seconds); err != nil {
		h.logger.Warn("failed to persist video duration", "videoId", v.ID, "error", err)
		return
	}
	v.DurationSeconds = &seconds

	if h.cache != nil {
		if err := h.cache.Set(ctx, durationCacheKey(v.ID), strconv.Itoa(seconds), durationCacheTTL); err != nil {
			h.logger.Warn("failed to cache video duration", "videoId", v.ID, "error", err)
		}
	}
}
