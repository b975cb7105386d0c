package bot

import (
	"sync"
	"time"

	"github.com/aldosari/medbooking_bot/internal/service"
)

// Step is the booking dialogue position. Absence of a session is the implicit
// idle state.
type Step int

const (
	StepSelectingCenter Step = iota + 1
	StepSelectingClinic
	StepSelectingTime
	StepCollectingName
	StepCollectingAge
	StepConfirming
)

// Session tracks one chat's booking progress. The step-scoped lists hold the
// exact ordered menus last shown to the user, so numeric choices resolve
// against what the user actually saw.
type Session struct {
	Step Step

	Centers []string
	Center  string

	Clinics []string
	Clinic  string

	Slots    []service.SlotOption
	SlotID   string
	Date     string
	SlotTime string

	PatientName string
	PatientAge  int

	UpdatedAt time.Time
}

// SessionStore keeps at most one session per chat id in process memory, with
// a TTL so abandoned mid-flow sessions do not linger forever. It also hands
// out the per-chat lock that serializes update handling.
type SessionStore struct {
	ttl time.Duration

	mu       sync.Mutex
	sessions map[int64]*Session
	locks    map[int64]*sync.Mutex
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		sessions: make(map[int64]*Session),
		locks:    make(map[int64]*sync.Mutex),
	}
}

// Lock acquires the chat's handling lock and returns the release func. Two
// rapid messages from the same user are processed one at a time.
func (s *SessionStore) Lock(chatID int64) func() {
	s.mu.Lock()
	l, ok := s.locks[chatID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[chatID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Get returns the chat's session, or nil when there is none or it expired.
func (s *SessionStore) Get(chatID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[chatID]
	if !ok {
		return nil
	}
	if s.ttl > 0 && time.Since(sess.UpdatedAt) >= s.ttl {
		delete(s.sessions, chatID)
		return nil
	}
	return sess
}

// Put stores the session, stamping its activity time.
func (s *SessionStore) Put(chatID int64, sess *Session) {
	sess.UpdatedAt = time.Now()
	s.mu.Lock()
	s.sessions[chatID] = sess
	s.mu.Unlock()
}

// Delete removes the chat's session, returning it to the idle state.
func (s *SessionStore) Delete(chatID int64) {
	s.mu.Lock()
	delete(s.sessions, chatID)
	s.mu.Unlock()
}

// Len reports how many sessions are held, including expired ones not yet
// swept by Get.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
