package session

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tablecall/tablecall/internal/application/texts"
	"github.com/tablecall/tablecall/internal/domain/apperr"
	"github.com/tablecall/tablecall/internal/domain/catalog"
	"github.com/tablecall/tablecall/internal/domain/messaging"
	"github.com/tablecall/tablecall/internal/domain/player"
	domainSession "github.com/tablecall/tablecall/internal/domain/session"
)

// Actor identifies who sent an inbound event and where to reply.
type Actor struct {
	ChatID     int64
	ExternalID int64
	Handle     *string
}

// Submitter hands a confirmed selection to the request pipeline.
type Submitter interface {
	Submit(ctx context.Context, playerID, formatID, limitID int64) (int64, error)
}

// Service drives the per-conversation registration flow. Callers serialize events per chat.
type Service struct {
	players       player.Repository
	catalogs      catalog.Repository
	sessions      domainSession.Store
	submitter     Submitter
	messenger     messaging.Messenger
	contactHandle string
	logger        zerolog.Logger
}

// NewService creates a conversation service.
func NewService(
	players player.Repository,
	catalogs catalog.Repository,
	sessions domainSession.Store,
	submitter Submitter,
	messenger messaging.Messenger,
	contactHandle string,
	logger zerolog.Logger,
) *Service {
	return &Service{
		players:       players,
		catalogs:      catalogs,
		sessions:      sessions,
		submitter:     submitter,
		messenger:     messenger,
		contactHandle: contactHandle,
		logger:        logger.With().Str("service", "session").Logger(),
	}
}

// identify loads or creates the player and refreshes a changed handle.
func (s *Service) identify(ctx context.Context, a Actor) (*player.Player, error) {
	p, err := s.players.GetOrCreate(ctx, a.ExternalID, a.Handle)
	if err != nil {
		return nil, fmt.Errorf("get or create player: %w", err)
	}
	if p.HandleChanged(a.Handle) {
		if err := s.players.UpdateHandle(ctx, p.ID, a.Handle); err != nil {
			return nil, fmt.Errorf("refresh handle: %w", err)
		}
		p.Handle = a.Handle
	}
	return p, nil
}

// Refresh updates the stored handle of a known player without creating one.
func (s *Service) Refresh(ctx context.Context, a Actor) error {
	p, err := s.players.GetByExternalID(ctx, a.ExternalID)
	if err != nil {
		return fmt.Errorf("get player: %w", err)
	}
	if p == nil || !p.HandleChanged(a.Handle) {
		return nil
	}
	if err := s.players.UpdateHandle(ctx, p.ID, a.Handle); err != nil {
		return fmt.Errorf("refresh handle: %w", err)
	}
	return nil
}

// blocked sends the ban notice and forces the conversation back to IDLE.
func (s *Service) blocked(ctx context.Context, a Actor, p *player.Player) (bool, error) {
	if !p.Banned {
		return false, nil
	}
	if err := s.sessions.Clear(ctx, a.ChatID); err != nil {
		return true, fmt.Errorf("clear session: %w", err)
	}
	return true, s.reply(ctx, a, messaging.Message{Text: texts.Banned, Menu: true})
}

// Start restarts the flow from any state. greet adds the returning-player notice.
func (s *Service) Start(ctx context.Context, a Actor, greet bool) error {
	p, err := s.identify(ctx, a)
	if err != nil {
		return err
	}
	if banned, err := s.blocked(ctx, a, p); banned || err != nil {
		return err
	}

	sess, err := s.sessions.Load(ctx, a.ChatID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	sess.Begin(p.HasNickname())
	if sess.State == domainSession.StateAskNick {
		if err := s.save(ctx, sess); err != nil {
			return err
		}
		return s.reply(ctx, a, messaging.Message{Text: texts.AskNick, Menu: true})
	}

	if greet {
		if err := s.reply(ctx, a, messaging.Message{Text: texts.AlreadyRegistered, Menu: true}); err != nil {
			return err
		}
	}
	return s.askFormat(ctx, a, sess)
}

// Help shows the help text without touching the session.
func (s *Service) Help(ctx context.Context, a Actor) error {
	p, err := s.identify(ctx, a)
	if err != nil {
		return err
	}
	if p.Banned {
		return s.reply(ctx, a, messaging.Message{Text: texts.Banned, Menu: true})
	}
	return s.reply(ctx, a, messaging.Message{
		Text:    texts.Help(s.contactHandle),
		Choices: messaging.Column(messaging.Choice{Label: texts.ContactButton, URL: texts.ContactURL(s.contactHandle)}),
	})
}

// Text handles free text. Only nickname capture consumes it.
func (s *Service) Text(ctx context.Context, a Actor, text string) error {
	p, err := s.identify(ctx, a)
	if err != nil {
		return err
	}
	if banned, err := s.blocked(ctx, a, p); banned || err != nil {
		return err
	}

	sess, err := s.sessions.Load(ctx, a.ChatID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if sess.State != domainSession.StateAskNick {
		return s.reply(ctx, a, messaging.Message{Text: texts.TextHint, Menu: true})
	}

	nick := player.NormalizeNickname(text)
	if err := player.ValidateNickname(nick); err != nil {
		return apperr.Validation(err.Error())
	}
	if err := s.players.SetNickname(ctx, p.ID, nick); err != nil {
		return fmt.Errorf("set nickname: %w", err)
	}
	if err := sess.NicknameCaptured(); err != nil {
		return s.startOver(ctx, a, sess, texts.StartOver)
	}
	return s.askFormat(ctx, a, sess)
}

// Select handles a format, limit or confirmation choice.
func (s *Service) Select(ctx context.Context, a Actor, data string) error {
	p, err := s.identify(ctx, a)
	if err != nil {
		return err
	}
	if banned, err := s.blocked(ctx, a, p); banned || err != nil {
		return err
	}

	cb, err := messaging.ParseCallback(data)
	if err != nil {
		return apperr.Validation(texts.MalformedPayload)
	}
	sess, err := s.sessions.Load(ctx, a.ChatID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	switch cb.Kind {
	case messaging.CallbackFormat:
		if err := sess.ChooseFormat(cb.ID); err != nil {
			return s.startOver(ctx, a, sess, texts.StartOver)
		}
		return s.askLimit(ctx, a, sess, cb.ID)

	case messaging.CallbackLimit:
		if err := sess.ChooseLimit(cb.ID); err != nil {
			return s.startOver(ctx, a, sess, texts.StartOver)
		}
		return s.confirm(ctx, a, sess)

	case messaging.CallbackConfirm:
		switch cb.Action {
		case messaging.ConfirmNo:
			if err := sess.Decline(); err != nil {
				return s.startOver(ctx, a, sess, texts.StartOver)
			}
			return s.askFormat(ctx, a, sess)
		case messaging.ConfirmYes:
			return s.submit(ctx, a, p, sess)
		}
	}
	return apperr.Validation(texts.MalformedPayload)
}

func (s *Service) askFormat(ctx context.Context, a Actor, sess *domainSession.Session) error {
	formats, err := s.catalogs.ListFormats(ctx)
	if err != nil {
		return fmt.Errorf("list formats: %w", err)
	}
	if len(formats) == 0 {
		return s.startOver(ctx, a, sess, texts.NoFormats(s.contactHandle))
	}
	if err := s.save(ctx, sess); err != nil {
		return err
	}
	choices := make([]messaging.Choice, 0, len(formats))
	for _, f := range formats {
		choices = append(choices, messaging.Choice{Label: f.Name, Data: messaging.FormatData(f.ID)})
	}
	return s.reply(ctx, a, messaging.Message{Text: texts.QuestionFormat, Choices: messaging.Column(choices...)})
}

func (s *Service) askLimit(ctx context.Context, a Actor, sess *domainSession.Session, formatID int64) error {
	limits, err := s.catalogs.ListLimitsForFormat(ctx, formatID)
	if err != nil {
		return fmt.Errorf("list limits: %w", err)
	}
	if len(limits) == 0 {
		return s.startOver(ctx, a, sess, texts.NoLimits(s.contactHandle))
	}
	if err := s.save(ctx, sess); err != nil {
		return err
	}
	choices := make([]messaging.Choice, 0, len(limits))
	for _, l := range limits {
		choices = append(choices, messaging.Choice{Label: l.Name, Data: messaging.LimitData(l.ID)})
	}
	return s.reply(ctx, a, messaging.Message{Text: texts.QuestionLimit, Choices: messaging.Column(choices...)})
}

// confirm renders the summary. A limit not offered under the chosen format is stale.
func (s *Service) confirm(ctx context.Context, a Actor, sess *domainSession.Session) error {
	formatID, limitID, ok := sess.Selection()
	if !ok {
		return s.startOver(ctx, a, sess, texts.StartOver)
	}
	limits, err := s.catalogs.ListLimitsForFormat(ctx, formatID)
	if err != nil {
		return fmt.Errorf("list limits: %w", err)
	}
	if !containsEntity(limits, limitID) {
		return s.startOver(ctx, a, sess, texts.StartOver)
	}
	f, err := s.catalogs.GetFormat(ctx, formatID)
	if err != nil {
		return fmt.Errorf("get format: %w", err)
	}
	l, err := s.catalogs.GetLimit(ctx, limitID)
	if err != nil {
		return fmt.Errorf("get limit: %w", err)
	}
	if f == nil || l == nil {
		return s.startOver(ctx, a, sess, texts.CatalogMissing)
	}
	if err := s.save(ctx, sess); err != nil {
		return err
	}
	return s.reply(ctx, a, messaging.Message{
		Text: texts.ConfirmSummary(f.Name, l.Name),
		HTML: true,
		Choices: [][]messaging.Choice{{
			{Label: texts.ConfirmYes, Data: messaging.ConfirmData(messaging.ConfirmYes)},
			{Label: texts.ConfirmNo, Data: messaging.ConfirmData(messaging.ConfirmNo)},
		}},
	})
}

func (s *Service) submit(ctx context.Context, a Actor, p *player.Player, sess *domainSession.Session) error {
	formatID, limitID, ok := sess.Selection()
	if !ok {
		return s.startOver(ctx, a, sess, texts.StartOver)
	}
	requestID, err := s.submitter.Submit(ctx, p.ID, formatID, limitID)
	if err != nil {
		return fmt.Errorf("submit request: %w", err)
	}
	s.logger.Info().Int64("request_id", requestID).Int64("player_id", p.ID).Msg("selection confirmed")
	if err := s.sessions.Clear(ctx, a.ChatID); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return s.reply(ctx, a, messaging.Message{Text: texts.Submitted, Menu: true})
}

// startOver resets the conversation to IDLE and tells the user why.
func (s *Service) startOver(ctx context.Context, a Actor, sess *domainSession.Session, notice string) error {
	sess.Reset()
	if err := s.sessions.Clear(ctx, a.ChatID); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return s.reply(ctx, a, messaging.Message{Text: notice, Menu: true})
}

func (s *Service) save(ctx context.Context, sess *domainSession.Session) error {
	if err := s.sessions.Save(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// reply delivers a message to the actor. A delivery failure is logged, not returned:
// the state change it follows is already committed.
func (s *Service) reply(ctx context.Context, a Actor, msg messaging.Message) error {
	if _, err := s.messenger.Send(ctx, a.ChatID, msg); err != nil {
		s.logger.Error().Err(err).Int64("chat_id", a.ChatID).Msg("failed to deliver reply")
	}
	return nil
}

func containsEntity(entities []*catalog.Entity, id int64) bool {
	for _, e := range entities {
		if e.ID == id {
			return true
		}
	}
	return false
}
