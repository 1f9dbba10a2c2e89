package discord

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silverpine/guildbank/internal/domain"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

type sentMessage struct {
	path string
	body string
}

// newTestBot wires a bot whose session never reaches Discord: the REST
// client is stubbed and the gateway is never opened.
func newTestBot(t *testing.T, ctx context.Context, fake *fakeService, channelID string) (*Bot, *[]sentMessage) {
	t.Helper()

	bot, err := NewBot(ctx, "token", channelID, "", newTestDispatcher(fake), NewFormatter())
	require.NoError(t, err)

	bot.session.State.User = &discordgo.User{ID: "999"}

	sent := &[]sentMessage{}
	bot.session.Client = &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
		}
		*sent = append(*sent, sentMessage{path: r.URL.Path, body: string(body)})
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader("{}")),
			Header:     make(http.Header),
		}, nil
	})}
	return bot, sent
}

func message(authorID, channelID, content string) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{Message: &discordgo.Message{
		ChannelID: channelID,
		Content:   content,
		Author:    &discordgo.User{ID: authorID},
	}}
}

type runContextKey struct{}

func TestHandleMessageForwardsRunContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), runContextKey{}, "guildbank"))
	defer cancel()

	fake := &fakeService{balance: domain.Amounts{domain.Gold: 1}}
	bot, sent := newTestBot(t, ctx, fake, "")

	bot.handleMessage(bot.session, message("5", "chan-7", "+account"))

	require.NotNil(t, fake.balanceCtx)
	assert.Equal(t, "guildbank", fake.balanceCtx.Value(runContextKey{}))

	require.Len(t, *sent, 1)
	assert.Contains(t, (*sent)[0].path, "/channels/chan-7/messages")
	assert.Contains(t, (*sent)[0].body, "**Balance**")

	// Shutdown must be visible to commands already in flight.
	cancel()
	assert.ErrorIs(t, fake.balanceCtx.Err(), context.Canceled)
}

func TestHandleMessageIgnoresForeignTraffic(t *testing.T) {
	t.Parallel()

	fake := &fakeService{}
	bot, sent := newTestBot(t, context.Background(), fake, "bank-channel")

	// Own message, wrong channel, non-numeric author, no author.
	bot.handleMessage(bot.session, message("999", "bank-channel", "+account"))
	bot.handleMessage(bot.session, message("5", "lounge", "+account"))
	bot.handleMessage(bot.session, message("not-a-snowflake", "bank-channel", "+account"))
	bot.handleMessage(bot.session, &discordgo.MessageCreate{Message: &discordgo.Message{ChannelID: "bank-channel", Content: "+account"}})

	assert.Nil(t, fake.balanceCtx)
	assert.Empty(t, *sent)
}
