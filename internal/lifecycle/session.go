package lifecycle

import (
	"context"
	"sync"
	"time"

	"menus4all-staging-api/internal/models"
)

// DefaultAutosaveDelay matches the editor's quiet period: a pending autosave
// fires after this long without further edits.
const DefaultAutosaveDelay = 3 * time.Second

// Session tracks one menu being edited: the latest pending record, whether it
// has been flushed, and the debounce timer that defers the write while edits
// keep arriving. It replaces ad-hoc globals with an object the handlers own.
type Session struct {
	engine *Engine
	menuID string
	delay  time.Duration

	mu      sync.Mutex
	pending *models.MenuRecord
	timer   *time.Timer
	unsaved bool
	lastErr error
}

// SessionManager hands out one Session per menu id.
type SessionManager struct {
	engine *Engine
	delay  time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessionManager(engine *Engine, delay time.Duration) *SessionManager {
	if delay <= 0 {
		delay = DefaultAutosaveDelay
	}
	return &SessionManager{
		engine:   engine,
		delay:    delay,
		sessions: make(map[string]*Session),
	}
}

// Session returns the editing session for the menu, creating it on first use.
func (m *SessionManager) Session(menuID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[menuID]; ok {
		return s
	}
	s := &Session{engine: m.engine, menuID: menuID, delay: m.delay}
	m.sessions[menuID] = s
	return s
}

// Drop closes and forgets the session, abandoning any pending autosave.
func (m *SessionManager) Drop(menuID string) {
	m.mu.Lock()
	s, ok := m.sessions[menuID]
	delete(m.sessions, menuID)
	m.mu.Unlock()
	if ok {
		s.Close()
	}
}

// Edit records the latest state of the form and (re)schedules the autosave.
// Each call defers the pending write by the full quiet period.
func (s *Session) Edit(rec models.MenuRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = &rec
	s.unsaved = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, s.autosave)
}

func (s *Session) autosave() {
	s.mu.Lock()
	rec := s.pending
	s.mu.Unlock()
	if rec == nil {
		return
	}

	_, err := s.engine.Save(context.Background(), s.menuID, *rec)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
	if err != nil {
		s.engine.logger.Warn().Err(err).Str("menuID", s.menuID).Msg("autosave failed")
		return
	}
	// Edits that raced the save keep the session dirty.
	if s.pending == rec {
		s.unsaved = false
		s.pending = nil
	}
}

// Flush cancels any scheduled autosave and writes the pending record now.
// With nothing pending it is a no-op.
func (s *Session) Flush(ctx context.Context) (models.MenuRecord, error) {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	rec := s.pending
	s.pending = nil
	s.mu.Unlock()

	if rec == nil {
		return s.engine.Get(ctx, s.menuID)
	}

	saved, err := s.engine.Save(ctx, s.menuID, *rec)

	s.mu.Lock()
	s.lastErr = err
	s.unsaved = err != nil
	if err != nil && s.pending == nil {
		s.pending = rec
	}
	s.mu.Unlock()
	return saved, err
}

// HasUnsavedChanges reports whether an edit is still waiting to be written.
func (s *Session) HasUnsavedChanges() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsaved
}

// LastError returns the outcome of the most recent background save.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Close cancels the debounce timer without saving; an abandoned edit is
// simply lost, as when the editor navigates away.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = nil
	s.unsaved = false
}
