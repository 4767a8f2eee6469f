package player

import "context"

// Repository defines persistence for players.
type Repository interface {
	// GetOrCreate returns the player for externalID, inserting it on first sight.
	GetOrCreate(ctx context.Context, externalID int64, handle *string) (*Player, error)
	GetByID(ctx context.Context, id int64) (*Player, error)
	GetByExternalID(ctx context.Context, externalID int64) (*Player, error)
	UpdateHandle(ctx context.Context, id int64, handle *string) error
	SetNickname(ctx context.Context, id int64, nickname string) error
	SetBanned(ctx context.Context, id int64, banned bool) error
}
