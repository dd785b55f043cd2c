package progress

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/peakform/education-server-go/pkg/types"
)

// Progress records that a user has viewed an education video. At most one
// row exists per (user, video) pair; repeat views refresh the timestamp.
type Progress struct {
	types.BaseModel

	UserID   uuid.UUID `gorm:"type:uuid;not null;column:user_id;uniqueIndex:idx_progress_user_video" json:"userId"`
	VideoID  uuid.UUID `gorm:"type:uuid;not null;column:video_id;uniqueIndex:idx_progress_user_video;index" json:"videoId"`
	ViewedAt time.Time `gorm:"not null;column:viewed_at" json:"viewedAt"`
}

// TableName overrides the default table name.
func (Progress) TableName() string { return "user_education_progress" }

// Upsert records a view, creating the row or refreshing viewed_at on the
// existing one. The conflict target is the unique (user_id, video_id) index,
// so concurrent calls converge on a single row. Returns the stored row.
func Upsert(db *gorm.DB, userID, videoID uuid.UUID, viewedAt time.Time) (Progress, error) {
	record := Progress{
		BaseModel: types.BaseModel{ID: uuid.New()},
		UserID:    userID,
		VideoID:   videoID,
		ViewedAt:  viewedAt,
	}

	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "video_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"viewed_at":  viewedAt,
			"updated_at": viewedAt,
		}),
	}).Create(&record).Error
	if err != nil {
		return Progress{}, err
	}

	// Re-read so the caller sees the authoritative row even when the insert
	// lost the conflict race.
	var stored Progress
	if err := db.First(&stored, "user_id = ? AND video_id = ?", userID, videoID).Error; err != nil {
		return Progress{}, err
	}

	return stored, nil
}

// MapForUser bulk-fetches a user's progress for the given videos, keyed by
// video id.
func MapForUser(db *gorm.DB, userID uuid.UUID, videoIDs []uuid.UUID) (map[uuid.UUID]Progress, error) {
	result := make(map[uuid.UUID]Progress, len(videoIDs))
	if len(videoIDs) == 0 {
		return result, nil
	}

	var records []Progress
	if err := db.Where("user_id = ? AND video_id IN ?", userID, videoIDs).Find(&records).Error; err != nil {
		return nil, err
	}

	for _, record := range records {
		result[record.VideoID] = record
	}

	return result, nil
}

// DeleteByVideo removes every progress row referencing the video. Used when
// a video is deleted from the catalog.
func DeleteByVideo(db *gorm.DB, videoID uuid.UUID) error {
	return db.Delete(&Progress{}, "video_id = ?", videoID).Error
}

// CountByVideo returns how many users have viewed the video.
func CountByVideo(db *gorm.DB, videoID uuid.UUID) (int64, error) {
	var total int64
	err := db.Model(&Progress{}).Where("video_id = ?", videoID).Count(&total).Error
	return total, err
}
