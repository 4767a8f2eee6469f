package session

import (
	"errors"
	"time"
)

// State is the step a conversation is waiting on.
type State string

const (
	StateIdle         State = "IDLE"
	StateAskNick      State = "ASK_NICK"
	StateChooseFormat State = "CHOOSE_FORMAT"
	StateChooseLimit  State = "CHOOSE_LIMIT"
	StateConfirm      State = "CONFIRM"
)

var (
	// ErrOutOfContext is returned for an event that does not match the current step or scratchpad.
	ErrOutOfContext      = errors.New("event does not match the conversation step")
	ErrInvalidTransition = errors.New("invalid state transition")
)

// Scratchpad holds the selections made so far.
type Scratchpad struct {
	FormatID *int64 `json:"formatId,omitempty"`
	LimitID  *int64 `json:"limitId,omitempty"`
}

// Session is the per-conversation state. It is transient: a missing session is an IDLE one.
type Session struct {
	ChatID     int64      `json:"chatId"`
	State      State      `json:"state"`
	Scratchpad Scratchpad `json:"scratchpad"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// New returns an IDLE session for chatID.
func New(chatID int64) *Session {
	return &Session{ChatID: chatID, State: StateIdle}
}

// CanTransitionTo checks if a transition to the target state is valid.
func (s *Session) CanTransitionTo(target State) bool {
	transitions := map[State][]State{
		StateIdle:         {StateAskNick, StateChooseFormat},
		StateAskNick:      {StateChooseFormat, StateIdle},
		StateChooseFormat: {StateChooseLimit, StateIdle},
		StateChooseLimit:  {StateChooseLimit, StateConfirm, StateIdle},
		StateConfirm:      {StateChooseFormat, StateChooseLimit, StateConfirm, StateIdle},
	}

	allowed, ok := transitions[s.State]
	if !ok {
		return false
	}
	for _, st := range allowed {
		if st == target {
			return true
		}
	}
	return false
}

func (s *Session) moveTo(target State) error {
	if !s.CanTransitionTo(target) {
		return ErrInvalidTransition
	}
	s.State = target
	return nil
}

// Reset returns the session to IDLE and drops every selection.
func (s *Session) Reset() {
	s.State = StateIdle
	s.Scratchpad = Scratchpad{}
}

// Begin restarts the flow; a player with a known nickname skips nickname capture.
func (s *Session) Begin(hasNickname bool) {
	s.Reset()
	if hasNickname {
		s.State = StateChooseFormat
		return
	}
	s.State = StateAskNick
}

// NicknameCaptured advances past nickname capture.
func (s *Session) NicknameCaptured() error {
	if s.State != StateAskNick {
		return ErrOutOfContext
	}
	return s.moveTo(StateChooseFormat)
}

// ChooseFormat records the format and asks for a limit. A format picked again from an
// earlier menu restarts the limit choice.
func (s *Session) ChooseFormat(formatID int64) error {
	switch s.State {
	case StateChooseFormat, StateChooseLimit, StateConfirm:
	default:
		return ErrOutOfContext
	}
	if err := s.moveTo(StateChooseLimit); err != nil {
		return err
	}
	s.Scratchpad.FormatID = &formatID
	s.Scratchpad.LimitID = nil
	return nil
}

// ChooseLimit records the limit; a format must already be chosen.
func (s *Session) ChooseLimit(limitID int64) error {
	if s.Scratchpad.FormatID == nil {
		return ErrOutOfContext
	}
	switch s.State {
	case StateChooseLimit, StateConfirm:
	default:
		return ErrOutOfContext
	}
	if err := s.moveTo(StateConfirm); err != nil {
		return err
	}
	s.Scratchpad.LimitID = &limitID
	return nil
}

// Decline discards the selections and re-asks the format.
func (s *Session) Decline() error {
	if s.State != StateConfirm {
		return ErrOutOfContext
	}
	s.Scratchpad = Scratchpad{}
	return s.moveTo(StateChooseFormat)
}

// Selection returns the confirmed pair when the session is waiting for confirmation.
func (s *Session) Selection() (formatID, limitID int64, ok bool) {
	if s.State != StateConfirm || s.Scratchpad.FormatID == nil || s.Scratchpad.LimitID == nil {
		return 0, 0, false
	}
	return *s.Scratchpad.FormatID, *s.Scratchpad.LimitID, true
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	c := *s
	if s.Scratchpad.FormatID != nil {
		f := *s.Scratchpad.FormatID
		c.Scratchpad.FormatID = &f
	}
	if s.Scratchpad.LimitID != nil {
		l := *s.Scratchpad.LimitID
		c.Scratchpad.LimitID = &l
	}
	return &c
}
