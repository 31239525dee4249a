package course

import (
	"context"

	"coursewell/internal/chat"
	"coursewell/internal/database"
	"coursewell/internal/database/model"
	"coursewell/internal/lesson"
)

// Gateway adapts the course persistence layer to the chat engine's
// collaborator interfaces (lesson lookup, enrollment lookup, progress
// updates).
type Gateway struct{}

func (Gateway) Lesson(ctx context.Context, lessonID string) (*chat.LessonInfo, error) {
	l, err := database.GetEntityByID[model.Lesson](ctx, lessonID)
	if err != nil {
		return nil, err
	}
	steps, err := lesson.ParseSteps(l.ParsedJSON)
	if err != nil {
		return nil, err
	}
	db, err := database.GetDB()
	if err != nil {
		return nil, err
	}
	total, err := CountChapters(db.WithContext(ctx), l.CourseID)
	if err != nil {
		return nil, err
	}
	return &chat.LessonInfo{
		ID:            l.ID,
		CourseID:      l.CourseID,
		ChapterNumber: l.ChapterNumber,
		TotalChapters: total,
		RawScript:     l.RawScript,
		Steps:         steps,
	}, nil
}

func (Gateway) Enrollment(ctx context.Context, enrollmentID string) (*chat.Enrollment, error) {
	db, err := database.GetDB()
	if err != nil {
		return nil, err
	}
	e, err := GetEnrollmentByID(db.WithContext(ctx), enrollmentID)
	if err != nil || e == nil {
		return nil, err
	}
	return &chat.Enrollment{
		ID:                         e.ID,
		LastCompletedChapterNumber: e.LastCompletedChapterNumber,
		CompletedAt:                e.CompletedAt,
	}, nil
}

func (Gateway) MarkChapterComplete(ctx context.Context, enrollmentID string, chapterNumber int) error {
	db, err := database.GetDB()
	if err != nil {
		return err
	}
	return MarkChapterComplete(db.WithContext(ctx), enrollmentID, chapterNumber)
}

func (Gateway) MarkCourseComplete(ctx context.Context, enrollmentID string) error {
	db, err := database.GetDB()
	if err != nil {
		return err
	}
	return MarkCourseComplete(db.WithContext(ctx), enrollmentID)
}
