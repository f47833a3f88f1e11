package transcript

import (
	"context"
	"time"
)

// MessageRecord is one durable conversational turn.
type MessageRecord struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Intent    string    `json:"intent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedbackRecord is one durable feedback entry.
type FeedbackRecord struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	MessageID string    `json:"message_id,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists transcripts beyond session expiry for support review.
type Store interface {
	SaveMessage(ctx context.Context, record MessageRecord) error
	SaveFeedback(ctx context.Context, record FeedbackRecord) error
	RecentBySession(ctx context.Context, sessionID string, limit int) ([]MessageRecord, error)
	Close() error
}
