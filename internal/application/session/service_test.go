package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/tablecall/tablecall/internal/application/texts"
	clockmocks "github.com/tablecall/tablecall/internal/dependencies/mocks"
	"github.com/tablecall/tablecall/internal/domain/apperr"
	"github.com/tablecall/tablecall/internal/domain/messaging"
	msgmocks "github.com/tablecall/tablecall/internal/domain/messaging/mocks"
	domainSession "github.com/tablecall/tablecall/internal/domain/session"
	"github.com/tablecall/tablecall/internal/infrastructure/memory"
	"github.com/tablecall/tablecall/internal/infrastructure/sqlite"
)

type mockSubmitter struct {
	mock.Mock
}

func (m *mockSubmitter) Submit(ctx context.Context, playerID, formatID, limitID int64) (int64, error) {
	args := m.Called(ctx, playerID, formatID, limitID)
	return args.Get(0).(int64), args.Error(1)
}

type outbox struct {
	mu   sync.Mutex
	sent []messaging.Message
}

func (o *outbox) last() messaging.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.sent) == 0 {
		return messaging.Message{}
	}
	return o.sent[len(o.sent)-1]
}

func (o *outbox) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.sent)
}

type harness struct {
	ctx       context.Context
	players   *sqlite.PlayerRepository
	catalogs  *sqlite.CatalogRepository
	sessions  *memory.SessionStore
	submitter *mockSubmitter
	out       *outbox
	svc       *Service
	actor     Actor
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	store, err := sqlite.Open(ctx, sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	h := &harness{
		ctx:       ctx,
		players:   sqlite.NewPlayerRepository(store),
		catalogs:  sqlite.NewCatalogRepository(store),
		sessions:  memory.NewSessionStore(time.Hour, clockmocks.NewMockClock(time.Now())),
		submitter: new(mockSubmitter),
		out:       &outbox{},
		actor:     Actor{ChatID: 100, ExternalID: 100},
	}
	messenger := msgmocks.NewMockMessenger(gomock.NewController(t))
	messenger.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes().
		DoAndReturn(func(_ context.Context, _ int64, m messaging.Message) (int64, error) {
			h.out.mu.Lock()
			defer h.out.mu.Unlock()
			h.out.sent = append(h.out.sent, m)
			return int64(len(h.out.sent)), nil
		})
	h.svc = NewService(h.players, h.catalogs, h.sessions, h.submitter, messenger, "manager", zerolog.Nop())
	return h
}

func (h *harness) state(t *testing.T) domainSession.State {
	t.Helper()
	s, err := h.sessions.Load(h.ctx, h.actor.ChatID)
	require.NoError(t, err)
	return s.State
}

func (h *harness) seedCatalog(t *testing.T) (formatID, limitID int64) {
	t.Helper()
	var err error
	formatID, err = h.catalogs.CreateFormat(h.ctx, "Holdem")
	require.NoError(t, err)
	limitID, err = h.catalogs.CreateLimit(h.ctx, "NL100")
	require.NoError(t, err)
	require.NoError(t, h.catalogs.LinkLimit(h.ctx, formatID, limitID))
	return formatID, limitID
}

func (h *harness) ban(t *testing.T) {
	t.Helper()
	p, err := h.players.GetOrCreate(h.ctx, h.actor.ExternalID, nil)
	require.NoError(t, err)
	require.NoError(t, h.players.SetBanned(h.ctx, p.ID, true))
}

func choiceData(m messaging.Message) []string {
	var out []string
	for _, row := range m.Choices {
		for _, c := range row {
			out = append(out, c.Data)
		}
	}
	return out
}

func TestNewPlayerCompletesRegistrationFlow(t *testing.T) {
	h := newHarness(t)
	formatID, limitID := h.seedCatalog(t)

	require.NoError(t, h.svc.Start(h.ctx, h.actor, true))
	assert.Equal(t, texts.AskNick, h.out.last().Text)
	assert.Equal(t, domainSession.StateAskNick, h.state(t))

	require.NoError(t, h.svc.Text(h.ctx, h.actor, "  Ace "))
	p, err := h.players.GetByExternalID(h.ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "Ace", p.DisplayNickname())
	assert.Equal(t, texts.QuestionFormat, h.out.last().Text)
	assert.Equal(t, []string{messaging.FormatData(formatID)}, choiceData(h.out.last()))
	assert.Equal(t, domainSession.StateChooseFormat, h.state(t))

	require.NoError(t, h.svc.Select(h.ctx, h.actor, messaging.FormatData(formatID)))
	assert.Equal(t, []string{messaging.LimitData(limitID)}, choiceData(h.out.last()))
	assert.Equal(t, domainSession.StateChooseLimit, h.state(t))

	require.NoError(t, h.svc.Select(h.ctx, h.actor, messaging.LimitData(limitID)))
	assert.Equal(t, texts.ConfirmSummary("Holdem", "NL100"), h.out.last().Text)
	assert.Equal(t, domainSession.StateConfirm, h.state(t))

	h.submitter.On("Submit", mock.Anything, p.ID, formatID, limitID).Return(int64(1), nil).Once()
	require.NoError(t, h.svc.Select(h.ctx, h.actor, messaging.ConfirmData(messaging.ConfirmYes)))
	assert.Equal(t, texts.Submitted, h.out.last().Text)
	assert.Equal(t, domainSession.StateIdle, h.state(t))
	h.submitter.AssertExpectations(t)
}

func TestBannedPlayerNeverLeavesIdle(t *testing.T) {
	h := newHarness(t)
	h.seedCatalog(t)
	h.ban(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, h.svc.Start(h.ctx, h.actor, i == 0))
		assert.Equal(t, texts.Banned, h.out.last().Text)
		assert.Equal(t, domainSession.StateIdle, h.state(t))
	}
	assert.Equal(t, 3, h.out.count())

	require.NoError(t, h.svc.Help(h.ctx, h.actor))
	assert.Equal(t, texts.Banned, h.out.last().Text)
}

func TestBanMidFlowAbortsToIdle(t *testing.T) {
	h := newHarness(t)
	formatID, _ := h.seedCatalog(t)
	require.NoError(t, h.svc.Start(h.ctx, h.actor, true))
	require.NoError(t, h.svc.Text(h.ctx, h.actor, "Ace"))

	h.ban(t)
	require.NoError(t, h.svc.Select(h.ctx, h.actor, messaging.FormatData(formatID)))
	assert.Equal(t, texts.Banned, h.out.last().Text)
	assert.Equal(t, domainSession.StateIdle, h.state(t))
}

func TestReturningPlayerSkipsNickname(t *testing.T) {
	h := newHarness(t)
	h.seedCatalog(t)
	p, err := h.players.GetOrCreate(h.ctx, 100, nil)
	require.NoError(t, err)
	require.NoError(t, h.players.SetNickname(h.ctx, p.ID, "Ace"))

	require.NoError(t, h.svc.Start(h.ctx, h.actor, true))
	require.Equal(t, 2, h.out.count())
	assert.Equal(t, texts.AlreadyRegistered, h.out.sent[0].Text)
	assert.Equal(t, texts.QuestionFormat, h.out.last().Text)
	assert.Equal(t, domainSession.StateChooseFormat, h.state(t))

	require.NoError(t, h.svc.Start(h.ctx, h.actor, false))
	assert.Equal(t, 3, h.out.count())
}

func TestLimitBeforeFormatStartsOver(t *testing.T) {
	h := newHarness(t)
	_, limitID := h.seedCatalog(t)

	require.NoError(t, h.svc.Select(h.ctx, h.actor, messaging.LimitData(limitID)))
	assert.Equal(t, texts.StartOver, h.out.last().Text)
	assert.Equal(t, domainSession.StateIdle, h.state(t))
}

func TestLimitFromAnotherFormatStartsOver(t *testing.T) {
	h := newHarness(t)
	formatID, _ := h.seedCatalog(t)
	otherLimit, err := h.catalogs.CreateLimit(h.ctx, "PL50")
	require.NoError(t, err)

	require.NoError(t, h.svc.Start(h.ctx, h.actor, true))
	require.NoError(t, h.svc.Text(h.ctx, h.actor, "Ace"))
	require.NoError(t, h.svc.Select(h.ctx, h.actor, messaging.FormatData(formatID)))
	require.NoError(t, h.svc.Select(h.ctx, h.actor, messaging.LimitData(otherLimit)))

	assert.Equal(t, texts.StartOver, h.out.last().Text)
	assert.Equal(t, domainSession.StateIdle, h.state(t))
}

func TestMalformedPayloadLeavesStateUnchanged(t *testing.T) {
	h := newHarness(t)
	h.seedCatalog(t)
	require.NoError(t, h.svc.Start(h.ctx, h.actor, true))
	require.NoError(t, h.svc.Text(h.ctx, h.actor, "Ace"))
	sent := h.out.count()

	err := h.svc.Select(h.ctx, h.actor, "fmt:abc")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, domainSession.StateChooseFormat, h.state(t))
	assert.Equal(t, sent, h.out.count())

	err = h.svc.Select(h.ctx, h.actor, "confirm:maybe")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, domainSession.StateChooseFormat, h.state(t))
}

func TestDeclineDiscardsSelections(t *testing.T) {
	h := newHarness(t)
	formatID, limitID := h.seedCatalog(t)
	plo, err := h.catalogs.CreateFormat(h.ctx, "PLO")
	require.NoError(t, err)
	pl50, err := h.catalogs.CreateLimit(h.ctx, "PL50")
	require.NoError(t, err)
	require.NoError(t, h.catalogs.LinkLimit(h.ctx, plo, pl50))

	require.NoError(t, h.svc.Start(h.ctx, h.actor, true))
	require.NoError(t, h.svc.Text(h.ctx, h.actor, "Ace"))
	require.NoError(t, h.svc.Select(h.ctx, h.actor, messaging.FormatData(formatID)))
	require.NoError(t, h.svc.Select(h.ctx, h.actor, messaging.LimitData(limitID)))

	require.NoError(t, h.svc.Select(h.ctx, h.actor, messaging.ConfirmData(messaging.ConfirmNo)))
	assert.Equal(t, texts.QuestionFormat, h.out.last().Text)
	assert.Equal(t, domainSession.StateChooseFormat, h.state(t))

	// Confirming now has nothing to confirm.
	require.NoError(t, h.svc.Select(h.ctx, h.actor, messaging.ConfirmData(messaging.ConfirmYes)))
	assert.Equal(t, texts.StartOver, h.out.last().Text)

	require.NoError(t, h.svc.Start(h.ctx, h.actor, false))
	require.NoError(t, h.svc.Select(h.ctx, h.actor, messaging.FormatData(plo)))
	require.NoError(t, h.svc.Select(h.ctx, h.actor, messaging.LimitData(pl50)))

	p, err := h.players.GetByExternalID(h.ctx, 100)
	require.NoError(t, err)
	h.submitter.On("Submit", mock.Anything, p.ID, plo, pl50).Return(int64(2), nil).Once()
	require.NoError(t, h.svc.Select(h.ctx, h.actor, messaging.ConfirmData(messaging.ConfirmYes)))
	h.submitter.AssertExpectations(t)
}

func TestHelpDoesNotTouchState(t *testing.T) {
	h := newHarness(t)
	h.seedCatalog(t)
	require.NoError(t, h.svc.Start(h.ctx, h.actor, true))

	require.NoError(t, h.svc.Help(h.ctx, h.actor))
	last := h.out.last()
	assert.Equal(t, texts.Help("manager"), last.Text)
	require.Len(t, last.Choices, 1)
	assert.Equal(t, "https://t.me/manager", last.Choices[0][0].URL)
	assert.Equal(t, domainSession.StateAskNick, h.state(t))
}

func TestEmptyCatalogResetsToIdle(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.svc.Start(h.ctx, h.actor, true))
	require.NoError(t, h.svc.Text(h.ctx, h.actor, "Ace"))
	assert.Equal(t, texts.NoFormats("manager"), h.out.last().Text)
	assert.Equal(t, domainSession.StateIdle, h.state(t))

	formatID, err := h.catalogs.CreateFormat(h.ctx, "Stud")
	require.NoError(t, err)
	require.NoError(t, h.svc.Start(h.ctx, h.actor, false))
	require.NoError(t, h.svc.Select(h.ctx, h.actor, messaging.FormatData(formatID)))
	assert.Equal(t, texts.NoLimits("manager"), h.out.last().Text)
	assert.Equal(t, domainSession.StateIdle, h.state(t))
}

func TestBlankNicknameIsRejected(t *testing.T) {
	h := newHarness(t)
	h.seedCatalog(t)
	require.NoError(t, h.svc.Start(h.ctx, h.actor, true))

	err := h.svc.Text(h.ctx, h.actor, "   ")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, domainSession.StateAskNick, h.state(t))
}

func TestTextOutsideNicknameStepGetsHint(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.svc.Text(h.ctx, h.actor, "hello"))
	assert.Equal(t, texts.TextHint, h.out.last().Text)
	assert.Equal(t, domainSession.StateIdle, h.state(t))
}

func TestHandleIsRefreshed(t *testing.T) {
	h := newHarness(t)
	h.seedCatalog(t)
	old, updated := "old_name", "new_name"

	h.actor.Handle = &old
	require.NoError(t, h.svc.Start(h.ctx, h.actor, true))
	h.actor.Handle = &updated
	require.NoError(t, h.svc.Text(h.ctx, h.actor, "Ace"))

	p, err := h.players.GetByExternalID(h.ctx, 100)
	require.NoError(t, err)
	require.NotNil(t, p.Handle)
	assert.Equal(t, "new_name", *p.Handle)
}

func TestSubmitFailureKeepsConfirmation(t *testing.T) {
	h := newHarness(t)
	formatID, limitID := h.seedCatalog(t)
	require.NoError(t, h.svc.Start(h.ctx, h.actor, true))
	require.NoError(t, h.svc.Text(h.ctx, h.actor, "Ace"))
	require.NoError(t, h.svc.Select(h.ctx, h.actor, messaging.FormatData(formatID)))
	require.NoError(t, h.svc.Select(h.ctx, h.actor, messaging.LimitData(limitID)))

	h.submitter.On("Submit", mock.Anything, mock.Anything, formatID, limitID).Return(int64(0), errors.New("db down")).Once()
	err := h.svc.Select(h.ctx, h.actor, messaging.ConfirmData(messaging.ConfirmYes))
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.Equal(t, domainSession.StateConfirm, h.state(t))
}

func TestHelpRefreshesHandle(t *testing.T) {
	h := newHarness(t)
	old, updated := "old_name", "new_name"

	h.actor.Handle = &old
	require.NoError(t, h.svc.Start(h.ctx, h.actor, true))
	h.actor.Handle = &updated
	require.NoError(t, h.svc.Help(h.ctx, h.actor))

	p, err := h.players.GetByExternalID(h.ctx, 100)
	require.NoError(t, err)
	require.NotNil(t, p.Handle)
	assert.Equal(t, "new_name", *p.Handle)
	assert.Equal(t, domainSession.StateAskNick, h.state(t))
}

func TestRefreshOnlyTouchesKnownPlayers(t *testing.T) {
	h := newHarness(t)
	updated := "new_name"
	h.actor.Handle = &updated

	require.NoError(t, h.svc.Refresh(h.ctx, h.actor))
	p, err := h.players.GetByExternalID(h.ctx, 100)
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = h.players.GetOrCreate(h.ctx, 100, nil)
	require.NoError(t, err)
	require.NoError(t, h.svc.Refresh(h.ctx, h.actor))
	p, err = h.players.GetByExternalID(h.ctx, 100)
	require.NoError(t, err)
	require.NotNil(t, p.Handle)
	assert.Equal(t, "new_name", *p.Handle)
	assert.Zero(t, h.out.count())
}
