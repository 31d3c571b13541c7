// internal/session/manager.go
// Package session tracks in-memory chat sessions with per-session
// conversation history and idle expiry. Sessions do not survive restarts.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrSessionNotFound is returned for unknown or expired session IDs.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNoRepoPath means the project has no codebase attached yet.
	ErrNoRepoPath = errors.New("project has no repo_path set")
)

// Message is one turn of a session's conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Session is an active conversation bound to a project's repository.
type Session struct {
	ID           string    `json:"session_id"`
	Name         string    `json:"name,omitempty"`
	ProjectID    string    `json:"project_id"`
	RepoPath     string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
	History      []Message `json:"-"`
}

// Info is the session shape returned by list and get endpoints.
type Info struct {
	ID           string    `json:"session_id"`
	Name         string    `json:"name,omitempty"`
	ProjectID    string    `json:"project_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
	MessageCount int       `json:"message_count"`
}

// snapshot copies a session so callers can read it outside the manager's
// lock while concurrent chats keep mutating the stored one.
func (s *Session) snapshot() *Session {
	cp := *s
	cp.History = append([]Message(nil), s.History...)
	return &cp
}

func (s *Session) info() Info {
	return Info{
		ID:           s.ID,
		Name:         s.Name,
		ProjectID:    s.ProjectID,
		CreatedAt:    s.CreatedAt,
		LastAccessed: s.LastAccessed,
		MessageCount: len(s.History),
	}
}

// ProjectLookup resolves a project ID to its repo path. The store satisfies
// this through a small adapter so the manager stays storage-agnostic.
type ProjectLookup func(ctx context.Context, projectID string) (repoPath string, err error)

// Manager owns all active sessions. Safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	lookup   ProjectLookup
	timeout  time.Duration
	interval time.Duration
	logger   *zap.Logger

	stop chan struct{}
	done chan struct{}
}

// NewManager builds a manager. timeout is the idle expiry and interval the
// cleanup cadence; zero values get sensible defaults.
func NewManager(lookup ProjectLookup, timeout, interval time.Duration, logger *zap.Logger) *Manager {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Manager{
		sessions: make(map[string]*Session),
		lookup:   lookup,
		timeout:  timeout,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the background expiry loop.
func (m *Manager) Start() {
	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := m.CleanupExpired(); n > 0 {
					m.logger.Info("expired sessions removed", zap.Int("count", n))
				}
			case <-m.stop:
				return
			}
		}
	}()
}

// Stop halts the expiry loop and drops all sessions.
func (m *Manager) Stop() {
	close(m.stop)
	<-m.done

	m.mu.Lock()
	n := len(m.sessions)
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	m.logger.Info("all sessions closed", zap.Int("count", n))
}

// Create starts a session for a project. The project must exist and have a
// repo path attached.
func (m *Manager) Create(ctx context.Context, projectID, name string) (*Session, error) {
	repoPath, err := m.lookup(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if repoPath == "" {
		return nil, fmt.Errorf("project %s: %w", projectID, ErrNoRepoPath)
	}

	now := time.Now()
	s := &Session{
		ID:           uuid.NewString(),
		Name:         name,
		ProjectID:    projectID,
		RepoPath:     repoPath,
		CreatedAt:    now,
		LastAccessed: now,
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	cp := s.snapshot()
	m.mu.Unlock()

	m.logger.Info("session created",
		zap.String("session_id", cp.ID),
		zap.String("project_id", projectID))
	return cp, nil
}

// Get returns a copy of a session and bumps its last-accessed time.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
	}
	s.LastAccessed = time.Now()
	return s.snapshot(), nil
}

// Append records one exchange on a session's history.
func (m *Manager) Append(id string, userMsg, assistantMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
	}
	s.History = append(s.History,
		Message{Role: "user", Content: userMsg},
		Message{Role: "assistant", Content: assistantMsg})
	s.LastAccessed = time.Now()
	return nil
}

// Update renames a session and bumps its last-accessed time.
func (m *Manager) Update(id string, name *string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
	}
	if name != nil {
		s.Name = *name
	}
	s.LastAccessed = time.Now()
	return s.snapshot(), nil
}

// Delete removes a session.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
	}
	delete(m.sessions, id)
	return nil
}

// List returns session infos, optionally filtered by project.
func (m *Manager) List(projectID string) []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Info{}
	for _, s := range m.sessions {
		if projectID != "" && s.ProjectID != projectID {
			continue
		}
		out = append(out, s.info())
	}
	return out
}

// CleanupExpired drops sessions idle longer than the timeout and returns how
// many were removed.
func (m *Manager) CleanupExpired() int {
	cutoff := time.Now().Add(-m.timeout)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.LastAccessed.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// BuildChatPrompt prepends a session's conversation history to a new user
// message so the agent can answer with context.
func BuildChatPrompt(history []Message, newMessage string) string {
	if len(history) == 0 {
		return newMessage
	}
	var b strings.Builder
	b.WriteString("Previous conversation:\n")
	for i, msg := range history {
		if i > 0 {
			b.WriteString("\n\n")
		}
		role := msg.Role
		if role != "" && role[0] >= 'a' && role[0] <= 'z' {
			role = string(role[0]-'a'+'A') + role[1:]
		}
		b.WriteString(role)
		b.WriteString(": ")
		b.WriteString(msg.Content)
	}
	b.WriteString("\n\nUser's new question: ")
	b.WriteString(newMessage)
	b.WriteString("\n\nPlease respond to the user's new question, using the previous conversation context if relevant.")
	return b.String()
}
