package player

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const maxNicknameLen = 64

// Player is the identity record of an end-user, keyed by the transport's external id.
type Player struct {
	ID         int64     `json:"id"`
	ExternalID int64     `json:"externalId"`
	Handle     *string   `json:"handle,omitempty"`
	Nickname   *string   `json:"nickname,omitempty"`
	Banned     bool      `json:"banned"`
	CreatedAt  time.Time `json:"createdAt"`
}

// HasNickname reports whether the player completed nickname capture.
func (p *Player) HasNickname() bool {
	return p.Nickname != nil && *p.Nickname != ""
}

// DisplayNickname returns the nickname or an empty string.
func (p *Player) DisplayNickname() string {
	if p.Nickname == nil {
		return ""
	}
	return *p.Nickname
}

// ContactURL returns a link that opens a private chat with the player.
func (p *Player) ContactURL() string {
	if p.Handle != nil && *p.Handle != "" {
		return "https://t.me/" + *p.Handle
	}
	return fmt.Sprintf("tg://user?id=%d", p.ExternalID)
}

// HandleChanged reports whether a freshly observed handle differs from the stored one.
func (p *Player) HandleChanged(handle *string) bool {
	if handle == nil || *handle == "" {
		return false
	}
	return p.Handle == nil || *p.Handle != *handle
}

func NormalizeNickname(nick string) string {
	return strings.TrimSpace(nick)
}

func ValidateNickname(nick string) error {
	if nick == "" {
		return errors.New("nickname is required")
	}
	if utf8.RuneCountInString(nick) > maxNicknameLen {
		return fmt.Errorf("nickname must be at most %d characters", maxNicknameLen)
	}
	return nil
}
