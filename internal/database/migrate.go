package database

import (
	"coursewell/internal/database/model"
)

// Migrate creates or updates the schema for all persisted models.
func Migrate() error {
	db, err := GetDB()
	if err != nil {
		return err
	}
	return db.AutoMigrate(
		&model.Course{},
		&model.Lesson{},
		&model.Enrollment{},
		&model.Review{},
		&model.ChatHistory{},
	)
}
