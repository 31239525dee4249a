package model

import "time"

// Course statuses follow the review workflow:
// draft -> pending_review -> published | rejected -> draft (unpublish).
const (
	CourseStatusDraft         = "draft"
	CourseStatusPendingReview = "pending_review"
	CourseStatusPublished     = "published"
	CourseStatusRejected      = "rejected"
)

type Course struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	Title           string    `gorm:"size:255;not null" json:"title"`
	UserID          string    `gorm:"size:36;index;not null" json:"user_id"`
	Status          string    `gorm:"size:32;not null;default:draft" json:"status"`
	Description     string    `gorm:"type:text" json:"description"`
	ThumbnailURL    *string   `gorm:"size:1024" json:"thumbnail_url"`
	ShareableLinkID *string   `gorm:"size:36;uniqueIndex" json:"shareable_link_id"`
	LessonCount     int       `gorm:"not null;default:0" json:"lesson_count"`
	ReviewCount     int       `gorm:"not null;default:0" json:"review_count"`
	TotalRatingSum  int       `gorm:"not null;default:0" json:"total_rating_sum"`
	AverageRating   float64   `gorm:"not null;default:0" json:"average_rating"`
	CreatedAt       time.Time `json:"created_at"`
}

// Lesson is one chapter of a course. RawScript is the teacher-authored text;
// ParsedJSON is the step list produced by the upstream script parser.
type Lesson struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	CourseID      string    `gorm:"size:36;index;not null" json:"course_id"`
	ChapterNumber int       `gorm:"not null" json:"chapter_number"`
	Title         string    `gorm:"size:255;not null" json:"title"`
	RawScript     string    `gorm:"type:mediumtext" json:"raw_script"`
	EditorHTML    *string   `gorm:"type:mediumtext" json:"editor_html"`
	ParsedJSON    string    `gorm:"type:mediumtext" json:"parsed_json"`
	CreatedAt     time.Time `json:"created_at"`
}

type Enrollment struct {
	ID                         string     `gorm:"primaryKey;size:36" json:"id"`
	UserID                     string     `gorm:"size:36;index:idx_enrollment_user_course,unique;not null" json:"user_id"`
	CourseID                   string     `gorm:"size:36;index:idx_enrollment_user_course,unique;not null" json:"course_id"`
	LastCompletedChapterNumber int        `gorm:"not null;default:0" json:"last_completed_chapter_number"`
	CompletedAt                *time.Time `json:"completed_at"`
	CreatedAt                  time.Time  `json:"created_at"`
}

type Review struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CourseID  string    `gorm:"size:36;index;not null" json:"course_id"`
	UserID    string    `gorm:"size:36;index;not null" json:"user_id"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   string    `gorm:"type:text" json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatHistory is the durable conversation state for one (enrollment, lesson)
// pair: the playback pointer plus the serialized transcript. One row per pair.
type ChatHistory struct {
	ID                uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	EnrollmentID      string    `gorm:"size:36;index:idx_history_enrollment_lesson,unique;not null" json:"enrollment_id"`
	LessonID          string    `gorm:"size:36;index:idx_history_enrollment_lesson,unique;not null" json:"lesson_id"`
	CurrentStepIndex  int       `gorm:"not null;default:0" json:"current_step_index"`
	CurrentChunkIndex int       `gorm:"not null;default:0" json:"current_chunk_index"`
	HistoryJSON       string    `gorm:"type:mediumtext" json:"history_json"`
	UpdatedAt         time.Time `json:"updated_at"`
}
