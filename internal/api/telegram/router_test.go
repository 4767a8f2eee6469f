package telegram

import (
	"context"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	appAdmin "github.com/tablecall/tablecall/internal/application/admin"
	appRequest "github.com/tablecall/tablecall/internal/application/request"
	appSegment "github.com/tablecall/tablecall/internal/application/segment"
	appSession "github.com/tablecall/tablecall/internal/application/session"
	"github.com/tablecall/tablecall/internal/application/texts"
	clockmocks "github.com/tablecall/tablecall/internal/dependencies/mocks"
	"github.com/tablecall/tablecall/internal/domain/messaging"
	msgmocks "github.com/tablecall/tablecall/internal/domain/messaging/mocks"
	domainRequest "github.com/tablecall/tablecall/internal/domain/request"
	"github.com/tablecall/tablecall/internal/infrastructure/memory"
	"github.com/tablecall/tablecall/internal/infrastructure/sqlite"
)

const moderatorID = int64(900)

type sent struct {
	chatID int64
	msg    messaging.Message
}

type answer struct {
	text  string
	alert bool
}

type routerFixture struct {
	ctx      context.Context
	store    *sqlite.Store
	router   *Router
	mu       sync.Mutex
	sent     []sent
	answers  []answer
	catalogs *sqlite.CatalogRepository
	players  *sqlite.PlayerRepository
	requests *sqlite.RequestRepository
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	ctx := context.Background()
	store, err := sqlite.Open(ctx, sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	f := &routerFixture{
		ctx:      ctx,
		store:    store,
		catalogs: sqlite.NewCatalogRepository(store),
		players:  sqlite.NewPlayerRepository(store),
		requests: sqlite.NewRequestRepository(store),
	}

	messenger := msgmocks.NewMockMessenger(gomock.NewController(t))
	messenger.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes().
		DoAndReturn(func(_ context.Context, chatID int64, m messaging.Message) (int64, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.sent = append(f.sent, sent{chatID: chatID, msg: m})
			return int64(len(f.sent)), nil
		})
	messenger.EXPECT().Answer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes().
		DoAndReturn(func(_ context.Context, _ string, text string, alert bool) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.answers = append(f.answers, answer{text: text, alert: alert})
			return nil
		})

	clk := clockmocks.NewMockClock(time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC))
	resolver := appSegment.NewResolver(sqlite.NewSegmentRepository(store), zerolog.Nop())
	cfg := appRequest.DefaultConfig()
	cfg.Moderators = []int64{moderatorID}
	requests := appRequest.NewService(f.requests, f.players, f.catalogs, sqlite.NewDeletionRepository(store),
		resolver, messenger, clk, cfg, zerolog.Nop())
	sessions := appSession.NewService(f.players, f.catalogs, memory.NewSessionStore(time.Hour, clk),
		requests, messenger, "manager", zerolog.Nop())
	admin := appAdmin.NewService(f.players, f.catalogs, resolver, zerolog.Nop())

	f.router = NewRouter(sessions, requests, admin, messenger, NewDispatcher(zerolog.Nop()), zerolog.Nop())
	return f
}

func (f *routerFixture) lastSent(t *testing.T) sent {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

func (f *routerFixture) lastAnswer(t *testing.T) answer {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.answers)
	return f.answers[len(f.answers)-1]
}

func privateMessage(from int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: from, Type: "private"},
		From: &tgbotapi.User{ID: from, UserName: "user"},
		Text: text,
	}}
}

func command(from int64, text string) tgbotapi.Update {
	u := privateMessage(from, text)
	length := len(text)
	for i, r := range text {
		if r == ' ' {
			length = i
			break
		}
	}
	u.Message.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}}
	return u
}

func callback(from int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb-1",
		From: &tgbotapi.User{ID: from},
		Message: &tgbotapi.Message{
			MessageID: 1,
			Chat:      &tgbotapi.Chat{ID: from, Type: "private"},
		},
		Data: data,
	}}
}

func TestStartAsksForNickname(t *testing.T) {
	f := newRouterFixture(t)
	f.router.Handle(f.ctx, command(100, "/start"))

	last := f.lastSent(t)
	assert.Equal(t, int64(100), last.chatID)
	assert.Equal(t, texts.AskNick, last.msg.Text)
}

func TestNonPrivateUpdatesAreIgnored(t *testing.T) {
	f := newRouterFixture(t)
	u := command(100, "/start")
	u.Message.Chat.Type = "group"
	f.router.Handle(f.ctx, u)
	f.router.Dispatch(f.ctx, u)
	f.router.dispatcher.Wait()

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Empty(t, f.sent)
}

func TestUnknownCommandGetsHint(t *testing.T) {
	f := newRouterFixture(t)
	f.router.Handle(f.ctx, command(100, "/dance"))
	assert.Equal(t, texts.TextHint, f.lastSent(t).msg.Text)
}

func TestAdminCommandRequiresModerator(t *testing.T) {
	f := newRouterFixture(t)
	f.router.Handle(f.ctx, command(100, "/addformat Holdem"))
	assert.Equal(t, texts.ModeratorsOnly, f.lastSent(t).msg.Text)

	formats, err := f.catalogs.ListFormats(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, formats)
}

func TestModeratorBuildsCatalog(t *testing.T) {
	f := newRouterFixture(t)
	f.router.Handle(f.ctx, command(moderatorID, "/addformat Pot Limit Omaha"))
	assert.Equal(t, texts.FormatAdded(1), f.lastSent(t).msg.Text)

	f.router.Handle(f.ctx, command(moderatorID, "/addlimit PL200"))
	assert.Equal(t, texts.LimitAdded(1), f.lastSent(t).msg.Text)

	f.router.Handle(f.ctx, command(moderatorID, "/linklimit 1 1"))
	assert.Equal(t, texts.LinkOK, f.lastSent(t).msg.Text)

	f.router.Handle(f.ctx, command(moderatorID, "/segment 1 1"))
	assert.Equal(t, texts.SegmentCreated(1, 1, 1), f.lastSent(t).msg.Text)

	formats, err := f.catalogs.ListFormats(f.ctx)
	require.NoError(t, err)
	require.Len(t, formats, 1)
	assert.Equal(t, "Pot Limit Omaha", formats[0].Name)
}

func TestMalformedAdminCommand(t *testing.T) {
	f := newRouterFixture(t)
	f.router.Handle(f.ctx, command(moderatorID, "/ban abc"))
	assert.Equal(t, texts.MalformedCommand, f.lastSent(t).msg.Text)

	f.router.Handle(f.ctx, command(moderatorID, "/segment 1"))
	assert.Equal(t, texts.MalformedCommand, f.lastSent(t).msg.Text)
}

func TestSegmentCommandOnMissingCatalog(t *testing.T) {
	f := newRouterFixture(t)
	f.router.Handle(f.ctx, command(moderatorID, "/segment 5 6"))
	assert.Equal(t, "Format 5 not found.", f.lastSent(t).msg.Text)
}

func TestBanBlocksStart(t *testing.T) {
	f := newRouterFixture(t)
	f.router.Handle(f.ctx, command(moderatorID, "/ban 100"))
	assert.Equal(t, texts.BanOK, f.lastSent(t).msg.Text)

	f.router.Handle(f.ctx, command(100, "/start"))
	assert.Equal(t, texts.Banned, f.lastSent(t).msg.Text)
}

func TestModerationCallbackRequiresModerator(t *testing.T) {
	f := newRouterFixture(t)
	f.router.Handle(f.ctx, callback(100, messaging.ModerationData("approve", 1)))

	a := f.lastAnswer(t)
	assert.Equal(t, texts.ModeratorsOnly, a.text)
	assert.True(t, a.alert)
}

func TestMalformedCallback(t *testing.T) {
	f := newRouterFixture(t)
	f.router.Handle(f.ctx, callback(moderatorID, "mod:approve"))
	assert.Equal(t, texts.MalformedPayload, f.lastAnswer(t).text)

	f.router.Handle(f.ctx, callback(100, "garbage"))
	assert.Equal(t, texts.MalformedPayload, f.lastAnswer(t).text)
}

func TestModeratorRejectsRequest(t *testing.T) {
	f := newRouterFixture(t)
	formatID, err := f.catalogs.CreateFormat(f.ctx, "Holdem")
	require.NoError(t, err)
	limitID, err := f.catalogs.CreateLimit(f.ctx, "NL100")
	require.NoError(t, err)
	p, err := f.players.GetOrCreate(f.ctx, 100, nil)
	require.NoError(t, err)
	req := domainRequest.NewRequest(p.ID, formatID, limitID, time.Now())
	require.NoError(t, f.requests.Create(f.ctx, req))

	f.router.Handle(f.ctx, callback(moderatorID, messaging.ModerationData("reject", req.ID)))
	a := f.lastAnswer(t)
	assert.Equal(t, texts.RequestRejected, a.text)
	assert.True(t, a.alert)
	assert.Equal(t, int64(100), f.lastSent(t).chatID)

	f.router.Handle(f.ctx, callback(moderatorID, messaging.ModerationData("reject", req.ID)))
	assert.Equal(t, texts.RequestNotFound, f.lastAnswer(t).text)
}

func TestMenuButtons(t *testing.T) {
	f := newRouterFixture(t)
	f.router.Handle(f.ctx, privateMessage(100, messaging.MenuHelp))
	assert.Contains(t, f.lastSent(t).msg.Text, "manager")
}

func TestRunStopsWhenChannelCloses(t *testing.T) {
	f := newRouterFixture(t)
	updates := make(chan tgbotapi.Update, 2)
	updates <- command(100, "/start")
	updates <- command(200, "/start")
	close(updates)

	f.router.Run(f.ctx, updates)

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Len(t, f.sent, 2)
}

func TestModerationCallbackRefreshesHandle(t *testing.T) {
	f := newRouterFixture(t)
	_, err := f.players.GetOrCreate(f.ctx, moderatorID, nil)
	require.NoError(t, err)

	u := callback(moderatorID, messaging.ModerationData("approve", 404))
	u.CallbackQuery.From.UserName = "lead_mod"
	f.router.Handle(f.ctx, u)
	assert.Equal(t, texts.RequestNotFound, f.lastAnswer(t).text)

	p, err := f.players.GetByExternalID(f.ctx, moderatorID)
	require.NoError(t, err)
	require.NotNil(t, p.Handle)
	assert.Equal(t, "lead_mod", *p.Handle)
}
