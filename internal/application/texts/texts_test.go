package texts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfirmSummaryEscapesNames(t *testing.T) {
	got := ConfirmSummary("Hold<em>", "NL&100")
	assert.Contains(t, got, "<b>Hold&lt;em&gt;</b>")
	assert.Contains(t, got, "<b>NL&amp;100</b>")
}

func TestPlayerLink(t *testing.T) {
	assert.Equal(t, "https://t.me/ace", PlayerLink("https://t.me/ace", true))
	assert.Equal(t, `<a href="tg://user?id=9">profile</a>`, PlayerLink("tg://user?id=9", false))
}

func TestContactHandleNormalized(t *testing.T) {
	assert.Equal(t, "Message the manager: @boss", Help("@boss"))
	assert.Equal(t, "https://t.me/boss", ContactURL(" boss "))
	assert.Equal(t, "Message the manager: @support", Help(""))
}

func TestBroadcastMentionsNicknameAndDeposit(t *testing.T) {
	got := Broadcast("Ace", "Holdem", "NL100", "https://t.me/cashier")
	assert.Contains(t, got, "'Ace'")
	assert.Contains(t, got, "'Holdem' + 'NL100'")
	assert.Contains(t, got, "https://t.me/cashier")
}

func TestPlayerInfoAndSegmentList(t *testing.T) {
	info := PlayerInfo(1, 100, "", "Ace", true, []int64{3, 4})
	assert.Contains(t, info, "username: -")
	assert.Contains(t, info, "segments: 3, 4")
	assert.Contains(t, info, "is_banned: true")

	assert.Equal(t, NoSegments, SegmentList(nil))
	list := SegmentList([]SegmentLine{{SegmentID: 2, FormatID: 1, FormatName: "Holdem", LimitID: 5, LimitName: "NL100"}})
	assert.Contains(t, list, "#2: format 'Holdem' (id=1), limit 'NL100' (id=5)")
}
