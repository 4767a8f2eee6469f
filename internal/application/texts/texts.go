// Package texts holds the user-facing copy. Values interpolated into HTML messages are escaped here.
package texts

import (
	"fmt"
	"html"
	"strings"
)

// Escape makes s safe for HTML parse mode.
func Escape(s string) string {
	return html.EscapeString(s)
}

const (
	AskNick           = "Hi! Please send the nickname you use in the club app."
	AlreadyRegistered = "Welcome back! Your nickname is already saved."
	QuestionFormat    = "Which game would you like to gather a table for?"
	QuestionLimit     = "Which limit would you like to play?"
	ConfirmYes        = "Yes, correct"
	ConfirmNo         = "No, change"
	Banned            = "You are banned."
	StartOver         = "That choice is no longer current. Please start over."
	CatalogMissing    = "That format or limit is no longer available. Please start over."
	TextHint          = "Use the menu below or send /start to begin."
	Submitted         = "Your request has been sent for moderation."
	MalformedPayload  = "Malformed selection."
	MalformedCommand  = "Malformed command."
	Failure           = "Something went wrong. Please try again."
	ContactButton     = "Contact a manager"
)

const (
	ApproveButton        = "Approve"
	RejectButton         = "Reject"
	ModeratorsOnly       = "This action is available to moderators only."
	RequestNotFound      = "Request not found or already decided."
	RequestIntegrity     = "The request references data that no longer exists; it was discarded."
	UnknownAction        = "Unknown moderation action."
	SegmentMissing       = "No segment exists for this format and limit. Create it with /segment first."
	SegmentEmpty         = "This segment has no other players to notify."
	RequestRejected      = "Request rejected."
	PlayerNotFound       = "Player not found."
	NoSegments           = "No segments configured."
	BanOK                = "Player banned."
	UnbanOK              = "Player unbanned."
	SetNickOK            = "Player nickname updated."
	LinkOK               = "Format/limit link saved."
	profileLinkLabel     = "profile"
	segmentsHeader       = "Segments:"
	adminHelpText        = "Moderator commands:\n/ban <id>\n/unban <id>\n/setnick <id> <nickname>\n/addformat <name>\n/addlimit <name>\n/linklimit <format_id> <limit_id>\n/segment <format_id> <limit_id>\n/assign <id> <segment_id>\n/unassign <id> <segment_id>\n/user <id>\n/segments\n\n<id> is an internal player id or a Telegram user id."
	defaultContactHandle = "support"
)

// AdminHelp lists the moderator commands.
func AdminHelp() string {
	return adminHelpText
}

func contact(handle string) string {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if handle == "" {
		handle = defaultContactHandle
	}
	return "@" + handle
}

// ContactURL links to the manager's chat.
func ContactURL(handle string) string {
	return "https://t.me/" + strings.TrimPrefix(contact(handle), "@")
}

func Help(handle string) string {
	return "Message the manager: " + contact(handle)
}

func NoFormats(handle string) string {
	return "No formats are configured yet. Message the manager: " + contact(handle)
}

func NoLimits(handle string) string {
	return "No limits are configured for this format yet. Message the manager: " + contact(handle)
}

func Rejection(handle string) string {
	return "Unfortunately your request was not sent. To learn why, message the manager " + contact(handle)
}

// ConfirmSummary renders the HTML confirmation of the chosen pair.
func ConfirmSummary(format, limit string) string {
	return fmt.Sprintf("Please check your choice:\n\nFormat: <b>%s</b>\nLimit: <b>%s</b>", Escape(format), Escape(limit))
}

// ModeratorSummary renders the HTML request card sent to moderators. link is already HTML.
func ModeratorSummary(nickname, format, limit, link string) string {
	return fmt.Sprintf(
		"Player <b>%s</b> wants to gather a table\nFormat: <b>%s</b>\nLimit: <b>%s</b>\nPlayer link: %s",
		Escape(nickname), Escape(format), Escape(limit), link,
	)
}

// PlayerLink renders a contact link for a player: the public URL when the player has a handle,
// otherwise an HTML anchor to the deep link.
func PlayerLink(url string, hasHandle bool) string {
	if hasHandle {
		return Escape(url)
	}
	return fmt.Sprintf(`<a href="%s">%s</a>`, Escape(url), profileLinkLabel)
}

// Broadcast renders the HTML invitation sent to a segment.
func Broadcast(nickname, format, limit, depositLink string) string {
	nick := Escape(nickname)
	return fmt.Sprintf(
		"Player '%s' is waiting for you!\n\n'%s' is waiting at a '%s' + '%s' table.\n\nTo join, open the club app.\n\nNeed a deposit? Write HERE (%s)",
		nick, nick, Escape(format), Escape(limit), Escape(depositLink),
	)
}

func Broadcasted(delivered, recipients int) string {
	return fmt.Sprintf("Broadcast sent to %d of %d players.", delivered, recipients)
}

func FormatAdded(id int64) string {
	return fmt.Sprintf("Format added, id = %d.", id)
}

func LimitAdded(id int64) string {
	return fmt.Sprintf("Limit added, id = %d.", id)
}

func SegmentCreated(id, formatID, limitID int64) string {
	return fmt.Sprintf("Segment id = %d for format_id=%d, limit_id=%d.", id, formatID, limitID)
}

func Assigned(segmentID int64) string {
	return fmt.Sprintf("Player assigned to segment %d.", segmentID)
}

func Unassigned(segmentID int64) string {
	return fmt.Sprintf("Player removed from segment %d.", segmentID)
}

// PlayerInfo renders an admin card for a player.
func PlayerInfo(id, externalID int64, handle, nickname string, banned bool, segmentIDs []int64) string {
	segs := "-"
	if len(segmentIDs) > 0 {
		parts := make([]string, len(segmentIDs))
		for i, s := range segmentIDs {
			parts[i] = fmt.Sprint(s)
		}
		segs = strings.Join(parts, ", ")
	}
	return fmt.Sprintf(
		"Player:\ninternal_id: %d\ntg_id: %d\nusername: %s\nnick: %s\nis_banned: %t\nsegments: %s",
		id, externalID, orDash(handle), orDash(nickname), banned, segs,
	)
}

// SegmentLine is one row of the segment listing.
type SegmentLine struct {
	SegmentID  int64
	FormatID   int64
	FormatName string
	LimitID    int64
	LimitName  string
}

func SegmentList(lines []SegmentLine) string {
	if len(lines) == 0 {
		return NoSegments
	}
	var b strings.Builder
	b.WriteString(segmentsHeader)
	for _, l := range lines {
		fmt.Fprintf(&b, "\n#%d: format '%s' (id=%d), limit '%s' (id=%d)", l.SegmentID, l.FormatName, l.FormatID, l.LimitName, l.LimitID)
	}
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
