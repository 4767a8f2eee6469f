package request

import (
	"errors"
	"strings"
	"time"
)

// Decision is a moderator verdict on a request.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

var ErrUnknownDecision = errors.New("unknown decision")

// ParseDecision accepts a case-insensitive decision name.
func ParseDecision(s string) (Decision, error) {
	switch d := Decision(strings.ToLower(strings.TrimSpace(s))); d {
	case DecisionApprove, DecisionReject:
		return d, nil
	default:
		return "", ErrUnknownDecision
	}
}

// Request is a player's intent to be matched for a (format, limit) pair, awaiting moderation.
// It is deleted exactly once, by whoever decides it first.
type Request struct {
	ID        int64     `json:"id"`
	PlayerID  int64     `json:"playerId"`
	FormatID  int64     `json:"formatId"`
	LimitID   int64     `json:"limitId"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewRequest creates a request stamped at now.
func NewRequest(playerID, formatID, limitID int64, now time.Time) *Request {
	return &Request{
		PlayerID:  playerID,
		FormatID:  formatID,
		LimitID:   limitID,
		CreatedAt: now.UTC(),
	}
}
