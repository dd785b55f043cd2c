package video

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/peakform/education-server-go/pkg/pagination"
	"github.com/peakform/education-server-go/pkg/types"
)

// MaxVideos caps the catalog size. Uploads beyond this fail with ErrCatalogFull.
const MaxVideos = 60

// EducationVideo is a catalog entry. Order values stay a dense 1..count range;
// deletion renumbers the tail to close the gap.
type EducationVideo struct {
	types.BaseModel

	Order            int        `gorm:"type:int;not null;uniqueIndex;column:order" json:"order"`
	Title            string     `gorm:"type:varchar(200);not null" json:"title"`
	Description      *string    `gorm:"type:text" json:"description,omitempty"`
	URL              string     `gorm:"type:varchar(500);not null;column:url" json:"url"`
	UnlockDate       *time.Time `gorm:"column:unlock_date" json:"unlockDate,omitempty"`
	UnlockDaysOffset *int       `gorm:"column:unlock_days_offset" json:"unlockDaysOffset,omitempty"`
	DurationSeconds  *int       `gorm:"column:duration_seconds" json:"durationSeconds,omitempty"`
}

// TableName overrides the default table name.
func (EducationVideo) TableName() string { return "education_videos" }

// CreateInput carries data for creating a new catalog entry.
type CreateInput struct {
	Title       string
	Description *string
	URL         string
	UnlockDate  *time.Time
}

// List retrieves a page of the catalog in ascending order.
func List(db *gorm.DB, params pagination.Params) ([]EducationVideo, int64, error) {
	var total int64
	if err := db.Model(&EducationVideo{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var videos []EducationVideo
	err := db.Order(`"order" ASC`).
		Offset(params.Skip).
		Limit(params.Limit).
		Find(&videos).Error

	return videos, total, err
}

// ListAll retrieves the whole catalog in ascending order.
func ListAll(db *gorm.DB) ([]EducationVideo, error) {
	var videos []EducationVideo
	err := db.Order(`"order" ASC`).Find(&videos).Error
	return videos, err
}

// Get retrieves a video by ID.
func Get(db *gorm.DB, id uuid.UUID) (EducationVideo, error) {
	var v EducationVideo
	if err := db.First(&v, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return v, ErrVideoNotFound
		}
		return v, err
	}
	return v, nil
}

// Create inserts a new video at the next sequential order. The order
// computation and insert run in one transaction so concurrent uploads cannot
// claim the same slot or overshoot the catalog cap.
func Create(db *gorm.DB, input CreateInput) (EducationVideo, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return EducationVideo{}, ErrTitleRequired
	}

	var v EducationVideo
	err := db.Transaction(func(tx *gorm.DB) error {
		var maxOrder int
		if err := tx.Model(&EducationVideo{}).
			Select(`COALESCE(MAX("order"), 0)`).
			Scan(&maxOrder).Error; err != nil {
			return err
		}

		if maxOrder >= MaxVideos {
			return ErrCatalogFull
		}

		v = EducationVideo{
			BaseModel:   types.BaseModel{ID: uuid.New()},
			Order:       maxOrder + 1,
			Title:       title,
			Description: input.Description,
			URL:         input.URL,
			UnlockDate:  input.UnlockDate,
		}

		return tx.Create(&v).Error
	})
	if err != nil {
		return EducationVideo{}, err
	}

	return v, nil
}

// SetDuration persists a probed duration. The value is deterministic for a
// given file, so concurrent backfills converge and last write wins.
func SetDuration(db *gorm.DB, id uuid.UUID, seconds int) error {
	return db.Model(&EducationVideo{}).
		Where("id = ?", id).
		Update("duration_seconds", seconds).Error
}

// DeleteAndRenumber removes the video and shifts every later entry down one
// slot, restoring the dense ordering. Must run inside a transaction together
// with the progress cascade; the renumber is a single statement so concurrent
// deletes never leave gaps.
func DeleteAndRenumber(tx *gorm.DB, v EducationVideo) error {
	result := tx.Delete(&EducationVideo{}, "id = ?", v.ID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVideoNotFound
	}

	return tx.Exec(`UPDATE education_videos SET "order" = "order" - 1 WHERE "order" > ?`, v.Order).Error
}
