package bot

import "sync"

// dialogStep tracks where a user is in the two-step /add conversation.
type dialogStep int

const (
	stepNone dialogStep = iota
	stepAwaitingName
	stepAwaitingBirthday
)

// dialog is the in-flight state of one /add conversation.
type dialog struct {
	step       dialogStep
	friendName string
}

// dialogStore holds per-chat dialog state in memory, keyed by the chat
// user's ID.
//
// In-memory is a deliberate choice, mirroring how the original kept its
// conversation state: a restart forgets half-finished /add dialogs, which
// costs the user one retyped command. Persisting that would be machinery
// without payoff for a personal tool.
type dialogStore struct {
	mu       sync.Mutex
	sessions map[int64]*dialog
}

func newDialogStore() *dialogStore {
	return &dialogStore{sessions: make(map[int64]*dialog)}
}

// get returns the dialog for the user, or nil if none is active.
func (s *dialogStore) get(userID int64) *dialog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[userID]
}

// set stores (or replaces) the user's dialog state.
func (s *dialogStore) set(userID int64, d *dialog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = d
}

// clear forgets the user's dialog state.
func (s *dialogStore) clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}
