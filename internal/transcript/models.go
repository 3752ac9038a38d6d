package transcript

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Conversation mirrors a remote conversation that has been recorded locally.
// MessageCount is populated by list and get operations.
type Conversation struct {
	ID           string
	Title        string
	Model        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	MessageCount int
}

// Message is a single recorded chat message. ID is assigned on insert.
type Message struct {
	ID             int64
	ConversationID string
	Role           string // "user", "assistant", "tool"
	Content        string
	Model          string
	CreatedAt      time.Time
}
