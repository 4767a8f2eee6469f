package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appAdmin "github.com/tablecall/tablecall/internal/application/admin"
	appRequest "github.com/tablecall/tablecall/internal/application/request"
	appSession "github.com/tablecall/tablecall/internal/application/session"
	"github.com/tablecall/tablecall/internal/application/texts"
	"github.com/tablecall/tablecall/internal/domain/apperr"
	"github.com/tablecall/tablecall/internal/domain/messaging"
)

// Router turns inbound updates into service calls and renders their failures.
type Router struct {
	sessions   *appSession.Service
	requests   *appRequest.Service
	admin      *appAdmin.Service
	messenger  messaging.Messenger
	dispatcher *Dispatcher
	logger     zerolog.Logger
}

// NewRouter creates an update router.
func NewRouter(
	sessions *appSession.Service,
	requests *appRequest.Service,
	admin *appAdmin.Service,
	messenger messaging.Messenger,
	dispatcher *Dispatcher,
	logger zerolog.Logger,
) *Router {
	return &Router{
		sessions:   sessions,
		requests:   requests,
		admin:      admin,
		messenger:  messenger,
		dispatcher: dispatcher,
		logger:     logger.With().Str("service", "router").Logger(),
	}
}

// Run consumes updates until ctx is done or the channel closes, then drains in-flight work.
func (r *Router) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	defer r.dispatcher.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			r.Dispatch(ctx, u)
		}
	}
}

// Dispatch queues u on its conversation lane. Non-private updates are dropped.
func (r *Router) Dispatch(ctx context.Context, u tgbotapi.Update) {
	chatID, ok := privateChat(u)
	if !ok {
		return
	}
	r.dispatcher.Submit(ctx, chatID, func(ctx context.Context) {
		r.Handle(ctx, u)
	})
}

func privateChat(u tgbotapi.Update) (int64, bool) {
	switch {
	case u.Message != nil:
		if u.Message.Chat == nil || !u.Message.Chat.IsPrivate() || u.Message.From == nil {
			return 0, false
		}
		return u.Message.Chat.ID, true
	case u.CallbackQuery != nil:
		m := u.CallbackQuery.Message
		if m == nil || m.Chat == nil || !m.Chat.IsPrivate() || u.CallbackQuery.From == nil {
			return 0, false
		}
		return m.Chat.ID, true
	}
	return 0, false
}

// Handle processes one update synchronously.
func (r *Router) Handle(ctx context.Context, u tgbotapi.Update) {
	chatID, ok := privateChat(u)
	if !ok {
		return
	}
	log := r.logger.With().Str("event_id", uuid.NewString()).Int64("chat_id", chatID).Logger()

	if u.CallbackQuery != nil {
		r.handleCallback(ctx, chatID, u.CallbackQuery, log)
		return
	}
	r.handleMessage(ctx, chatID, u.Message, log)
}

func actorOf(chatID int64, from *tgbotapi.User) appSession.Actor {
	a := appSession.Actor{ChatID: chatID, ExternalID: from.ID}
	if from.UserName != "" {
		handle := from.UserName
		a.Handle = &handle
	}
	return a
}

func (r *Router) handleMessage(ctx context.Context, chatID int64, m *tgbotapi.Message, log zerolog.Logger) {
	a := actorOf(chatID, m.From)
	var err error
	switch {
	case m.IsCommand():
		err = r.handleCommand(ctx, a, m.Command(), m.CommandArguments(), log)
	case m.Text == messaging.MenuStartOver:
		err = r.sessions.Start(ctx, a, false)
	case m.Text == messaging.MenuHelp:
		err = r.sessions.Help(ctx, a)
	default:
		err = r.sessions.Text(ctx, a, m.Text)
	}
	if err == nil {
		return
	}
	if msg, ok := apperr.UserMessage(err); ok {
		log.Debug().Err(err).Msg("message rejected")
		r.reply(ctx, chatID, msg, log)
		return
	}
	log.Error().Err(err).Msg("message handling failed")
	r.reply(ctx, chatID, texts.Failure, log)
}

func (r *Router) handleCommand(ctx context.Context, a appSession.Actor, command, args string, log zerolog.Logger) error {
	switch command {
	case "start":
		return r.sessions.Start(ctx, a, true)
	case "help":
		return r.sessions.Help(ctx, a)
	}
	if isAdminCommand(command) {
		r.refresh(ctx, a, log)
		out, err := r.runAdminCommand(ctx, a.ExternalID, command, strings.Fields(args))
		if err != nil {
			return err
		}
		r.reply(ctx, a.ChatID, out, log)
		return nil
	}
	r.reply(ctx, a.ChatID, texts.TextHint, log)
	return nil
}

func (r *Router) handleCallback(ctx context.Context, chatID int64, cq *tgbotapi.CallbackQuery, log zerolog.Logger) {
	var (
		notice string
		err    error
	)
	if strings.HasPrefix(cq.Data, string(messaging.CallbackModeration)+":") {
		r.refresh(ctx, actorOf(chatID, cq.From), log)
		notice, err = r.moderate(ctx, cq)
	} else {
		err = r.sessions.Select(ctx, actorOf(chatID, cq.From), cq.Data)
	}

	alert := notice != ""
	if err != nil {
		alert = true
		if msg, ok := apperr.UserMessage(err); ok {
			log.Debug().Err(err).Str("data", cq.Data).Msg("selection rejected")
			notice = msg
		} else {
			log.Error().Err(err).Str("data", cq.Data).Msg("selection handling failed")
			notice = texts.Failure
		}
	}
	if err := r.messenger.Answer(ctx, cq.ID, notice, alert); err != nil {
		log.Warn().Err(err).Msg("failed to answer callback")
	}
}

// refresh keeps a known player's handle current on paths that bypass the conversation flow.
func (r *Router) refresh(ctx context.Context, a appSession.Actor, log zerolog.Logger) {
	if err := r.sessions.Refresh(ctx, a); err != nil {
		log.Warn().Err(err).Msg("failed to refresh handle")
	}
}

func (r *Router) moderate(ctx context.Context, cq *tgbotapi.CallbackQuery) (string, error) {
	cb, err := messaging.ParseCallback(cq.Data)
	if err != nil {
		return "", apperr.Validation(texts.MalformedPayload)
	}
	res, err := r.requests.Decide(ctx, cb.ID, cb.Action, cq.From.ID)
	if err != nil {
		return "", err
	}
	return res.Notice, nil
}

func (r *Router) reply(ctx context.Context, chatID int64, text string, log zerolog.Logger) {
	if _, err := r.messenger.Send(ctx, chatID, messaging.Message{Text: text, Menu: true}); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to deliver reply")
	}
}
