package main

import (
	"log"

	"coursewell/config"
	"coursewell/internal/database/model"

	"gorm.io/driver/mysql"
	"gorm.io/gen"
	"gorm.io/gorm"
)

// Regenerates the type-safe query builders under internal/database/query.
// Run it after changing anything in internal/database/model.
func main() {
	db, err := gorm.Open(mysql.Open(config.Cfg.Dns), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	g := gen.NewGenerator(gen.Config{
		OutPath:        "internal/database/query",
		ModelPkgPath:   "internal/database/model",
		Mode:           gen.WithDefaultQuery | gen.WithQueryInterface,
		FieldNullable:  true,
		FieldCoverable: true,
	})

	g.UseDB(db)

	g.ApplyBasic(
		model.Course{},
		model.Lesson{},
		model.Enrollment{},
		model.Review{},
		model.ChatHistory{},
	)

	g.Execute()
}
