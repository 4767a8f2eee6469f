package messaging

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// CallbackKind identifies which affordance produced a selection.
type CallbackKind string

const (
	CallbackFormat     CallbackKind = "fmt"
	CallbackLimit      CallbackKind = "lim"
	CallbackConfirm    CallbackKind = "confirm"
	CallbackModeration CallbackKind = "mod"
)

const (
	ConfirmYes = "yes"
	ConfirmNo  = "no"
)

var ErrMalformedCallback = errors.New("malformed callback payload")

// Callback is a decoded selection payload.
type Callback struct {
	Kind   CallbackKind
	ID     int64
	Action string
}

func FormatData(formatID int64) string {
	return fmt.Sprintf("%s:%d", CallbackFormat, formatID)
}

func LimitData(limitID int64) string {
	return fmt.Sprintf("%s:%d", CallbackLimit, limitID)
}

func ConfirmData(answer string) string {
	return string(CallbackConfirm) + ":" + answer
}

func ModerationData(action string, requestID int64) string {
	return fmt.Sprintf("%s:%s:%d", CallbackModeration, action, requestID)
}

// ParseCallback decodes a payload produced by the helpers above.
func ParseCallback(data string) (Callback, error) {
	kind, rest, ok := strings.Cut(data, ":")
	if !ok {
		return Callback{}, ErrMalformedCallback
	}
	switch CallbackKind(kind) {
	case CallbackFormat, CallbackLimit:
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil || id <= 0 {
			return Callback{}, ErrMalformedCallback
		}
		return Callback{Kind: CallbackKind(kind), ID: id}, nil
	case CallbackConfirm:
		if rest == "" || strings.Contains(rest, ":") {
			return Callback{}, ErrMalformedCallback
		}
		return Callback{Kind: CallbackConfirm, Action: rest}, nil
	case CallbackModeration:
		action, idStr, ok := strings.Cut(rest, ":")
		if !ok || action == "" {
			return Callback{}, ErrMalformedCallback
		}
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			return Callback{}, ErrMalformedCallback
		}
		return Callback{Kind: CallbackModeration, ID: id, Action: action}, nil
	default:
		return Callback{}, ErrMalformedCallback
	}
}
