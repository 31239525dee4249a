package chat

import (
	"context"
	"sync"
)

const (
	SenderStudent = "student"
	SenderTutor   = "tutor"
)

const EntryText = "text"

// TranscriptEntry is one logged utterance or media reference. The JSON shape
// matches the history_json stored per (enrollment, lesson) pair.
type TranscriptEntry struct {
	Sender  string `json:"sender"`
	Kind    string `json:"type"`
	Content string `json:"content,omitempty"`
	URL     string `json:"url,omitempty"`
	Alt     string `json:"alt,omitempty"`
}

// State is the playback position plus the transcript for one identity.
// StepIndex == len(steps) denotes lesson complete. ChunkIndex is meaningful
// only while the current step is CONTENT and resets to 0 whenever StepIndex
// advances.
type State struct {
	StepIndex  int               `json:"step_index"`
	ChunkIndex int               `json:"chunk_index"`
	Transcript []TranscriptEntry `json:"transcript"`
}

func (s *State) appendStudent(content string) {
	s.Transcript = append(s.Transcript, TranscriptEntry{Sender: SenderStudent, Kind: EntryText, Content: content})
}

func (s *State) appendTutorText(content string) {
	s.Transcript = append(s.Transcript, TranscriptEntry{Sender: SenderTutor, Kind: EntryText, Content: content})
}

// Identity keys conversation state. Enrolled learners are keyed by
// (enrollment, lesson) and persisted durably; a previewing creator or admin
// has no enrollment and gets ephemeral state keyed by lesson alone.
type Identity struct {
	EnrollmentID string
	LessonID     string
}

func (id Identity) Preview() bool {
	return id.EnrollmentID == ""
}

func (id Identity) key() string {
	if id.Preview() {
		return "preview/" + id.LessonID
	}
	return id.EnrollmentID + "/" + id.LessonID
}

// StateStore is the conversation-state capability. Load returns a zeroed
// state when none exists. Save upserts. Reset returns the identity to
// (0, 0, []). StepBack is a best-effort single-step pointer undo; it does not
// truncate the transcript tail.
type StateStore interface {
	Load(ctx context.Context, id Identity) (*State, error)
	Save(ctx context.Context, id Identity, st *State) error
	Reset(ctx context.Context, id Identity) error
	StepBack(ctx context.Context, id Identity) error
}

// rewind moves the pointer back one position: within the current content
// step's chunks first, otherwise to the previous step (floor 0).
func rewind(st *State) {
	if st.ChunkIndex > 0 {
		st.ChunkIndex--
		return
	}
	if st.StepIndex > 0 {
		st.StepIndex--
	}
	st.ChunkIndex = 0
}

// MemoryStore keeps conversation state in process memory. It backs preview
// sessions for non-enrolled creators and admins; entries live until Clear or
// Reset, never surviving a restart.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State)}
}

func (m *MemoryStore) Load(ctx context.Context, id Identity) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[id.key()]
	if !ok {
		return &State{}, nil
	}
	out := st
	out.Transcript = append([]TranscriptEntry(nil), st.Transcript...)
	return &out, nil
}

func (m *MemoryStore) Save(ctx context.Context, id Identity, st *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	in := *st
	in.Transcript = append([]TranscriptEntry(nil), st.Transcript...)
	m.states[id.key()] = in
	return nil
}

func (m *MemoryStore) Reset(ctx context.Context, id Identity) error {
	return m.Save(ctx, id, &State{})
}

func (m *MemoryStore) StepBack(ctx context.Context, id Identity) error {
	st, err := m.Load(ctx, id)
	if err != nil {
		return err
	}
	rewind(st)
	return m.Save(ctx, id, st)
}

// Clear drops any preview state for a lesson. The chapter-view handler calls
// this on navigation so a previewer always restarts from the top.
func (m *MemoryStore) Clear(lessonID string) {
	m.mu.Lock()
	delete(m.states, Identity{LessonID: lessonID}.key())
	m.mu.Unlock()
}
