package course

import (
	"coursewell/internal/database/model"
	"coursewell/internal/lesson"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AddChapter appends a new chapter with the next chapter number and bumps the
// course's lesson count in the same transaction. parsedJSON must decode into
// a non-empty step list; the script-to-steps parser runs upstream.
func AddChapter(db *gorm.DB, courseID, title, rawScript string, editorHTML *string, parsedJSON string) (*model.Lesson, error) {
	if _, err := lesson.ParseSteps(parsedJSON); err != nil {
		return nil, err
	}

	l := model.Lesson{
		ID:         uuid.NewString(),
		CourseID:   courseID,
		Title:      title,
		RawScript:  rawScript,
		EditorHTML: editorHTML,
		ParsedJSON: parsedJSON,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		var last int
		row := tx.Model(&model.Lesson{}).
			Where("course_id = ?", courseID).
			Select("COALESCE(MAX(chapter_number), 0)").
			Row()
		if err := row.Scan(&last); err != nil {
			return err
		}
		l.ChapterNumber = last + 1

		if err := tx.Create(&l).Error; err != nil {
			return err
		}
		return tx.Model(&model.Course{}).Where("id = ?", courseID).
			Update("lesson_count", gorm.Expr("lesson_count + 1")).Error
	})
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// UpdateChapter replaces a chapter's script and step list wholesale. The
// caller must invalidate the lesson's retrieval index afterwards or QNA will
// answer from stale text.
func UpdateChapter(db *gorm.DB, lessonID, title, rawScript string, editorHTML *string, parsedJSON string) error {
	if _, err := lesson.ParseSteps(parsedJSON); err != nil {
		return err
	}
	updates := map[string]interface{}{
		"title":       title,
		"raw_script":  rawScript,
		"parsed_json": parsedJSON,
	}
	if editorHTML != nil {
		updates["editor_html"] = *editorHTML
	}
	return db.Model(&model.Lesson{}).Where("id = ?", lessonID).Updates(updates).Error
}

// DeleteChapter removes a chapter, renumbers the chapters after it, and
// decrements the course's lesson count, all in one transaction.
func DeleteChapter(db *gorm.DB, lessonID string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var l model.Lesson
		if err := tx.First(&l, "id = ?", lessonID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.Lesson{}, "id = ?", lessonID).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Lesson{}).
			Where("course_id = ? AND chapter_number > ?", l.CourseID, l.ChapterNumber).
			Update("chapter_number", gorm.Expr("chapter_number - 1")).Error; err != nil {
			return err
		}
		return tx.Model(&model.Course{}).Where("id = ?", l.CourseID).
			Update("lesson_count", gorm.Expr("lesson_count - 1")).Error
	})
}

func GetLesson(db *gorm.DB, lessonID string) (*model.Lesson, error) {
	var l model.Lesson
	if err := db.First(&l, "id = ?", lessonID).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func GetChapterByNumber(db *gorm.DB, courseID string, chapterNumber int) (*model.Lesson, error) {
	var l model.Lesson
	err := db.First(&l, "course_id = ? AND chapter_number = ?", courseID, chapterNumber).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func ListChapters(db *gorm.DB, courseID string) ([]model.Lesson, error) {
	var out []model.Lesson
	err := db.Where("course_id = ?", courseID).Order("chapter_number").Find(&out).Error
	return out, err
}

func CountChapters(db *gorm.DB, courseID string) (int, error) {
	var count int64
	err := db.Model(&model.Lesson{}).Where("course_id = ?", courseID).Count(&count).Error
	return int(count), err
}
