package course

import (
	"errors"

	"coursewell/internal/database/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrBadRating = errors.New("rating must be between 1 and 5")

// SubmitReview records a review and updates the course's aggregate rating
// stats in the same transaction, locking the course row so concurrent
// submissions cannot lose an increment.
func SubmitReview(db *gorm.DB, courseID, userID string, rating int, comment string) (*model.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrBadRating
	}

	r := model.Review{
		ID:       uuid.NewString(),
		CourseID: courseID,
		UserID:   userID,
		Rating:   rating,
		Comment:  comment,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		var c model.Course
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&c, "id = ?", courseID).Error; err != nil {
			return err
		}
		if err := tx.Create(&r).Error; err != nil {
			return err
		}

		newSum := c.TotalRatingSum + rating
		newCount := c.ReviewCount + 1
		return tx.Model(&model.Course{}).Where("id = ?", courseID).Updates(map[string]interface{}{
			"total_rating_sum": newSum,
			"review_count":     newCount,
			"average_rating":   float64(newSum) / float64(newCount),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func ListReviews(db *gorm.DB, courseID string) ([]model.Review, error) {
	var out []model.Review
	err := db.Where("course_id = ?", courseID).Order("created_at DESC").Find(&out).Error
	return out, err
}
