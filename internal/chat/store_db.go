package chat

import (
	"context"
	"encoding/json"
	"errors"

	"coursewell/internal/database"
	"coursewell/internal/database/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DBStore persists conversation state in the chat_histories table, one row
// per (enrollment, lesson) pair with upsert semantics.
type DBStore struct{}

func NewDBStore() *DBStore {
	return &DBStore{}
}

func (s *DBStore) Load(ctx context.Context, id Identity) (*State, error) {
	db, err := database.GetDB()
	if err != nil {
		return nil, err
	}
	var h model.ChatHistory
	err = db.WithContext(ctx).
		Where("enrollment_id = ? AND lesson_id = ?", id.EnrollmentID, id.LessonID).
		First(&h).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &State{}, nil
	}
	if err != nil {
		return nil, err
	}

	st := &State{
		StepIndex:  h.CurrentStepIndex,
		ChunkIndex: h.CurrentChunkIndex,
	}
	if h.HistoryJSON != "" {
		if err := json.Unmarshal([]byte(h.HistoryJSON), &st.Transcript); err != nil {
			return nil, err
		}
	}
	return st, nil
}

func (s *DBStore) Save(ctx context.Context, id Identity, st *State) error {
	db, err := database.GetDB()
	if err != nil {
		return err
	}
	transcript := st.Transcript
	if transcript == nil {
		transcript = []TranscriptEntry{}
	}
	raw, err := json.Marshal(transcript)
	if err != nil {
		return err
	}
	h := model.ChatHistory{
		EnrollmentID:      id.EnrollmentID,
		LessonID:          id.LessonID,
		CurrentStepIndex:  st.StepIndex,
		CurrentChunkIndex: st.ChunkIndex,
		HistoryJSON:       string(raw),
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "enrollment_id"}, {Name: "lesson_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"current_step_index", "current_chunk_index", "history_json", "updated_at"}),
		}).
		Create(&h).Error
}

func (s *DBStore) Reset(ctx context.Context, id Identity) error {
	return s.Save(ctx, id, &State{})
}

func (s *DBStore) StepBack(ctx context.Context, id Identity) error {
	st, err := s.Load(ctx, id)
	if err != nil {
		return err
	}
	rewind(st)
	return s.Save(ctx, id, st)
}
