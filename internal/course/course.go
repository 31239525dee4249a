package course

import (
	"errors"

	"coursewell/internal/database/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotOwner    = errors.New("caller does not own this course")
	ErrBadDecision = errors.New("decision must be approve or reject")
)

func CreateCourse(db *gorm.DB, userID, title string) (*model.Course, error) {
	c := model.Course{
		ID:     uuid.NewString(),
		Title:  title,
		UserID: userID,
		Status: model.CourseStatusDraft,
	}
	if err := db.Create(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func GetCourse(db *gorm.DB, courseID string) (*model.Course, error) {
	var c model.Course
	if err := db.First(&c, "id = ?", courseID).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func ListPublishedCourses(db *gorm.DB) ([]model.Course, error) {
	var out []model.Course
	err := db.Where("status = ?", model.CourseStatusPublished).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func ListCoursesByCreator(db *gorm.DB, userID string) ([]model.Course, error) {
	var out []model.Course
	err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&out).Error
	return out, err
}

func ListCoursesByStatus(db *gorm.DB, status string) ([]model.Course, error) {
	var out []model.Course
	err := db.Where("status = ?", status).Order("created_at").Find(&out).Error
	return out, err
}

func UpdateCourseDetails(db *gorm.DB, courseID, description string, thumbnailURL *string) error {
	updates := map[string]interface{}{"description": description}
	if thumbnailURL != nil {
		updates["thumbnail_url"] = *thumbnailURL
	}
	return db.Model(&model.Course{}).Where("id = ?", courseID).Updates(updates).Error
}

func setStatus(db *gorm.DB, courseID, status string) error {
	return db.Model(&model.Course{}).Where("id = ?", courseID).Update("status", status).Error
}

func SubmitForReview(db *gorm.DB, courseID string) error {
	return setStatus(db, courseID, model.CourseStatusPendingReview)
}

// DecideCourse resolves a pending review: approve publishes, reject returns
// the course to its creator.
func DecideCourse(db *gorm.DB, courseID, decision string) error {
	switch decision {
	case "approve":
		return setStatus(db, courseID, model.CourseStatusPublished)
	case "reject":
		return setStatus(db, courseID, model.CourseStatusRejected)
	default:
		return ErrBadDecision
	}
}

func UnpublishCourse(db *gorm.DB, courseID string) error {
	return setStatus(db, courseID, model.CourseStatusDraft)
}

// EnsureShareLink returns the course's shareable link id, minting one on
// first request. An existing link is never rotated.
func EnsureShareLink(db *gorm.DB, courseID string) (string, error) {
	c, err := GetCourse(db, courseID)
	if err != nil {
		return "", err
	}
	if c.ShareableLinkID != nil && *c.ShareableLinkID != "" {
		return *c.ShareableLinkID, nil
	}
	linkID := uuid.NewString()
	if err := db.Model(&model.Course{}).Where("id = ?", courseID).
		Update("shareable_link_id", linkID).Error; err != nil {
		return "", err
	}
	return linkID, nil
}

func GetCourseByShareLink(db *gorm.DB, linkID string) (*model.Course, error) {
	var c model.Course
	if err := db.First(&c, "shareable_link_id = ?", linkID).Error; err != nil {
		return nil, err
	}
	return &c, nil
}
