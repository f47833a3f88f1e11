package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/CzPhantom10/Chromion-Hackathon/internal/intent"
)

type Status string

const (
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
)

// Message roles within a conversation.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var ErrNotFound = errors.New("session not found")

// Message is one conversational turn, kept in insertion order.
type Message struct {
	ID        string       `json:"id"`
	Role      string       `json:"role"`
	Content   string       `json:"content"`
	Intent    intent.Label `json:"intent,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// Feedback is a user rating attached to a session.
type Feedback struct {
	MessageID string    `json:"message_id,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is per-visitor conversational context. The manager owns the
// canonical copy; accessors return clones.
type Session struct {
	ID             string       `json:"session_id"`
	Status         Status       `json:"status"`
	CurrentPage    string       `json:"current_page,omitempty"`
	LastTopic      intent.Label `json:"last_topic,omitempty"`
	Messages       []Message    `json:"messages"`
	Feedback       []Feedback   `json:"feedback,omitempty"`
	StartedAt      time.Time    `json:"started_at"`
	LastActivityAt time.Time    `json:"last_activity_at"`
}

// Summary condenses a session for the summary endpoint and expiry logs.
type Summary struct {
	SessionID     string         `json:"session_id"`
	Duration      string         `json:"duration"`
	MessageCount  int            `json:"message_count"`
	Topics        []intent.Label `json:"topics_discussed"`
	FeedbackCount int            `json:"feedback_count"`
	AverageRating float64        `json:"average_rating,omitempty"`
}

// Manager owns all live sessions. A single lock serializes mutation, so
// message ordering within a session is append-only and race-free.
type Manager struct {
	mu                sync.RWMutex
	sessions          map[string]*Session
	inactivityTimeout time.Duration
	onExpire          func(*Session)
}

func NewManager(inactivityTimeout time.Duration) *Manager {
	if inactivityTimeout <= 0 {
		inactivityTimeout = 30 * time.Minute
	}
	return &Manager{
		sessions:          make(map[string]*Session),
		inactivityTimeout: inactivityTimeout,
	}
}

// SetExpireHook registers a callback invoked for each expired session.
func (m *Manager) SetExpireHook(hook func(*Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpire = hook
}

// GetOrCreate returns the session for id, creating it on first use. An
// empty id gets a fresh UUID. The bool reports whether it was created.
func (m *Manager) GetOrCreate(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id != "" {
		if s, ok := m.sessions[id]; ok && s.Status == StatusActive {
			return clone(s), false
		}
	}
	if id == "" {
		id = uuid.NewString()
	}

	now := time.Now().UTC()
	s := &Session{
		ID:             id,
		Status:         StatusActive,
		StartedAt:      now,
		LastActivityAt: now,
	}
	m.sessions[id] = s
	return clone(s), true
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(s), nil
}

// AppendMessage records one turn and refreshes activity.
func (m *Manager) AppendMessage(id, role, content string, label intent.Label) (Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Message{}, ErrNotFound
	}
	msg := Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Intent:    label,
		CreatedAt: time.Now().UTC(),
	}
	s.Messages = append(s.Messages, msg)
	s.LastActivityAt = msg.CreatedAt
	return msg, nil
}

// RecentMessages returns up to limit most recent turns in chronological order.
func (m *Manager) RecentMessages(id string, limit int) ([]Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	msgs := s.Messages
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// AddFeedback appends a rating entry and refreshes activity.
func (m *Manager) AddFeedback(id string, fb Feedback) (Feedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Feedback{}, ErrNotFound
	}
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now().UTC()
	}
	s.Feedback = append(s.Feedback, fb)
	s.LastActivityAt = fb.CreatedAt
	return fb, nil
}

// SetContext updates the page and last-matched topic for a session.
func (m *Manager) SetContext(id, currentPage string, lastTopic intent.Label) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	if currentPage != "" {
		s.CurrentPage = currentPage
	}
	if lastTopic != intent.LabelNone {
		s.LastTopic = lastTopic
	}
	return nil
}

// Reset removes a session explicitly.
func (m *Manager) Reset(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

// Summarize reports session analytics.
func (m *Manager) Summarize(id string) (Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return Summary{}, ErrNotFound
	}

	sum := Summary{
		SessionID:     s.ID,
		Duration:      time.Since(s.StartedAt).Round(time.Second).String(),
		MessageCount:  len(s.Messages),
		FeedbackCount: len(s.Feedback),
	}
	seen := make(map[intent.Label]bool)
	for _, msg := range s.Messages {
		if msg.Intent == intent.LabelNone || seen[msg.Intent] {
			continue
		}
		seen[msg.Intent] = true
		sum.Topics = append(sum.Topics, msg.Intent)
	}
	if len(s.Feedback) > 0 {
		total := 0
		for _, fb := range s.Feedback {
			total += fb.Rating
		}
		sum.AverageRating = float64(total) / float64(len(s.Feedback))
	}
	return sum, nil
}

func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, s := range m.sessions {
		if s.Status == StatusActive {
			count++
		}
	}
	return count
}

// StartJanitor expires and removes inactive sessions in the background.
func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.ExpireStale(time.Now().UTC())
			}
		}
	}()
}

// ExpireStale removes sessions inactive beyond the configured timeout.
func (m *Manager) ExpireStale(now time.Time) {
	var expired []*Session

	m.mu.Lock()
	for id, s := range m.sessions {
		if now.Sub(s.LastActivityAt) < m.inactivityTimeout {
			continue
		}
		s.Status = StatusExpired
		expired = append(expired, clone(s))
		delete(m.sessions, id)
	}
	hook := m.onExpire
	m.mu.Unlock()

	if hook != nil {
		for _, s := range expired {
			hook(s)
		}
	}
}

func clone(s *Session) *Session {
	c := *s
	c.Messages = make([]Message, len(s.Messages))
	copy(c.Messages, s.Messages)
	if len(s.Feedback) > 0 {
		c.Feedback = make([]Feedback, len(s.Feedback))
		copy(c.Feedback, s.Feedback)
	} else {
		c.Feedback = nil
	}
	return &c
}
