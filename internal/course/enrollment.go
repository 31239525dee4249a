package course

import (
	"errors"

	"coursewell/internal/database/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrAlreadyEnrolled = errors.New("already enrolled in this course")
	ErrOwnCourse       = errors.New("cannot enroll in a course you created")
)

// Enroll registers a learner in a course with zero progress. Creators cannot
// enroll in their own course; re-enrolling is rejected.
func Enroll(db *gorm.DB, userID, courseID string) (*model.Enrollment, error) {
	c, err := GetCourse(db, courseID)
	if err != nil {
		return nil, err
	}
	if c.UserID == userID {
		return nil, ErrOwnCourse
	}

	existing, err := GetEnrollment(db, userID, courseID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyEnrolled
	}

	e := model.Enrollment{
		ID:       uuid.NewString(),
		UserID:   userID,
		CourseID: courseID,
	}
	if err := db.Create(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// GetEnrollment returns the learner's enrollment in a course, or nil when the
// learner is not enrolled.
func GetEnrollment(db *gorm.DB, userID, courseID string) (*model.Enrollment, error) {
	var e model.Enrollment
	err := db.First(&e, "user_id = ? AND course_id = ?", userID, courseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func GetEnrollmentByID(db *gorm.DB, enrollmentID string) (*model.Enrollment, error) {
	var e model.Enrollment
	err := db.First(&e, "id = ?", enrollmentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// MarkChapterComplete raises last_completed_chapter_number to chapterNumber.
// The guard in the WHERE clause makes repeated calls no-ops, so completion
// bookkeeping stays idempotent under re-entry.
func MarkChapterComplete(db *gorm.DB, enrollmentID string, chapterNumber int) error {
	return db.Model(&model.Enrollment{}).
		Where("id = ? AND last_completed_chapter_number < ?", enrollmentID, chapterNumber).
		Update("last_completed_chapter_number", chapterNumber).Error
}

// MarkCourseComplete stamps completed_at once; later calls never move it.
func MarkCourseComplete(db *gorm.DB, enrollmentID string) error {
	return db.Model(&model.Enrollment{}).
		Where("id = ? AND completed_at IS NULL", enrollmentID).
		Update("completed_at", gorm.Expr("NOW()")).Error
}
