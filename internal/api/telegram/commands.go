package telegram

import (
	"context"
	"strconv"
	"strings"

	"github.com/tablecall/tablecall/internal/application/texts"
	"github.com/tablecall/tablecall/internal/domain/apperr"
)

var adminCommands = map[string]bool{
	"admin":     true,
	"ban":       true,
	"unban":     true,
	"setnick":   true,
	"addformat": true,
	"addlimit":  true,
	"linklimit": true,
	"segment":   true,
	"assign":    true,
	"unassign":  true,
	"user":      true,
	"segments":  true,
}

func isAdminCommand(command string) bool {
	return adminCommands[command]
}

func malformed() error {
	return apperr.Validation(texts.MalformedCommand)
}

// ints parses exactly n integer arguments.
func ints(args []string, n int) ([]int64, error) {
	if len(args) != n {
		return nil, malformed()
	}
	out := make([]int64, n)
	for i, a := range args {
		v, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return nil, malformed()
		}
		out[i] = v
	}
	return out, nil
}

// runAdminCommand executes a moderator command and returns the reply text.
func (r *Router) runAdminCommand(ctx context.Context, actorID int64, command string, args []string) (string, error) {
	if !r.requests.IsModerator(actorID) {
		return "", apperr.Unauthorized(texts.ModeratorsOnly)
	}

	switch command {
	case "admin":
		return texts.AdminHelp(), nil

	case "ban", "unban":
		v, err := ints(args, 1)
		if err != nil {
			return "", err
		}
		if command == "ban" {
			_, err = r.admin.Ban(ctx, v[0])
			return texts.BanOK, err
		}
		_, err = r.admin.Unban(ctx, v[0])
		return texts.UnbanOK, err

	case "setnick":
		if len(args) < 2 {
			return "", malformed()
		}
		v, err := ints(args[:1], 1)
		if err != nil {
			return "", err
		}
		_, err = r.admin.SetNickname(ctx, v[0], strings.Join(args[1:], " "))
		return texts.SetNickOK, err

	case "addformat", "addlimit":
		name := strings.Join(args, " ")
		if name == "" {
			return "", malformed()
		}
		if command == "addformat" {
			id, err := r.admin.AddFormat(ctx, name)
			return texts.FormatAdded(id), err
		}
		id, err := r.admin.AddLimit(ctx, name)
		return texts.LimitAdded(id), err

	case "linklimit":
		v, err := ints(args, 2)
		if err != nil {
			return "", err
		}
		return texts.LinkOK, r.admin.LinkLimit(ctx, v[0], v[1])

	case "segment":
		v, err := ints(args, 2)
		if err != nil {
			return "", err
		}
		id, err := r.admin.CreateSegment(ctx, v[0], v[1])
		return texts.SegmentCreated(id, v[0], v[1]), err

	case "assign", "unassign":
		v, err := ints(args, 2)
		if err != nil {
			return "", err
		}
		if command == "assign" {
			return texts.Assigned(v[1]), r.admin.Assign(ctx, v[0], v[1])
		}
		return texts.Unassigned(v[1]), r.admin.Unassign(ctx, v[0], v[1])

	case "user":
		v, err := ints(args, 1)
		if err != nil {
			return "", err
		}
		info, err := r.admin.PlayerInfo(ctx, v[0])
		if err != nil {
			return "", err
		}
		p := info.Player
		handle := ""
		if p.Handle != nil {
			handle = *p.Handle
		}
		return texts.PlayerInfo(p.ID, p.ExternalID, handle, p.DisplayNickname(), p.Banned, info.SegmentIDs), nil

	case "segments":
		summaries, err := r.admin.Segments(ctx)
		if err != nil {
			return "", err
		}
		lines := make([]texts.SegmentLine, 0, len(summaries))
		for _, s := range summaries {
			lines = append(lines, texts.SegmentLine{
				SegmentID:  s.SegmentID,
				FormatID:   s.FormatID,
				FormatName: s.FormatName,
				LimitID:    s.LimitID,
				LimitName:  s.LimitName,
			})
		}
		return texts.SegmentList(lines), nil
	}
	return "", malformed()
}
