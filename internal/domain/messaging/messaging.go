package messaging

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_messenger.go -package=mocks . Messenger

import (
	"context"
	"errors"
)

// ErrMessageGone is returned by Delete when the message no longer exists.
var ErrMessageGone = errors.New("message already gone")

// Persistent menu labels. Pressing one arrives as plain text.
const (
	MenuStartOver = "Start over"
	MenuHelp      = "Help"
)

// Choice is one mutually exclusive affordance attached to a message.
// Either Data (a callback payload) or URL is set.
type Choice struct {
	Label string
	Data  string
	URL   string
}

// Message is an outbound text message.
type Message struct {
	Text    string
	HTML    bool
	Choices [][]Choice
	// Menu attaches the persistent start/help menu.
	Menu bool
}

// Column lays choices out one per row.
func Column(choices ...Choice) [][]Choice {
	rows := make([][]Choice, 0, len(choices))
	for _, c := range choices {
		rows = append(rows, []Choice{c})
	}
	return rows
}

// Messenger is the outbound side of the chat transport.
type Messenger interface {
	// Send delivers msg and returns the transport id of the sent message.
	Send(ctx context.Context, chatID int64, msg Message) (int64, error)
	// Delete retracts a message; ErrMessageGone signals it was already absent.
	Delete(ctx context.Context, chatID, messageID int64) error
	// Answer acknowledges a choice selection, optionally as a modal alert.
	Answer(ctx context.Context, callbackID, text string, alert bool) error
}
