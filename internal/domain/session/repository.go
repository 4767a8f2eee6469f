package session

import "context"

// Store keeps sessions keyed by conversation id.
type Store interface {
	// Load returns the stored session, or a fresh IDLE one for an unknown chat.
	Load(ctx context.Context, chatID int64) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Clear(ctx context.Context, chatID int64) error
}
