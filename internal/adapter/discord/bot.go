package discord

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"github.com/silverpine/guildbank/internal/domain"
	"github.com/silverpine/guildbank/internal/logger"
)

// Bot connects the dispatcher to a Discord session. It listens on one
// channel, ignores its own messages and answers in the channel the command
// came from.
type Bot struct {
	session    *discordgo.Session
	dispatcher *Dispatcher
	format     *Formatter
	channelID  string
	guildID    string

	// ctx bounds command execution; discordgo handlers carry no context of
	// their own, so shutdown has to reach in-flight commands through here.
	ctx context.Context
}

func NewBot(ctx context.Context, token, channelID, guildID string, dispatcher *Dispatcher, format *Formatter) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	bot := &Bot{
		session:    session,
		dispatcher: dispatcher,
		format:     format,
		channelID:  channelID,
		guildID:    guildID,
		ctx:        ctx,
	}

	session.AddHandler(bot.handleReady)
	session.AddHandler(bot.handleMessage)
	session.Identify.Intents = discordgo.IntentGuildMessages | discordgo.IntentMessageContent

	return bot, nil
}

func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord connection: %w", err)
	}
	return nil
}

func (b *Bot) Stop() error {
	return b.session.Close()
}

// handleReady sets the bot presence and swaps denomination names for the
// guild's coin emojis when the guild defines emojis named platinum, gold,
// electrum, silver and copper.
func (b *Bot) handleReady(s *discordgo.Session, _ *discordgo.Ready) {
	if err := s.UpdateGameStatus(0, "with the guild vault ("+b.dispatcher.Prefix()+"bank)"); err != nil {
		logger.Warn("presence update failed", logger.Fields{"error": err.Error()})
	}

	if b.guildID == "" {
		return
	}

	emojis, err := s.GuildEmojis(b.guildID)
	if err != nil {
		logger.Warn("guild emoji lookup failed", logger.Fields{
			"guildId": b.guildID,
			"error":   err.Error(),
		})
		return
	}
	for _, denom := range domain.Denominations() {
		for _, emoji := range emojis {
			if emoji.Name == denom.String() {
				b.format.SetEmoji(denom, emoji.MessageFormat())
			}
		}
	}
}

func (b *Bot) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == s.State.User.ID {
		return
	}
	if b.channelID != "" && m.ChannelID != b.channelID {
		return
	}

	actorID, err := strconv.ParseInt(m.Author.ID, 10, 64)
	if err != nil {
		return
	}

	reply, handled := b.dispatcher.Execute(b.ctx, actorID, m.Content)
	if !handled || reply == "" {
		return
	}
	if _, err := s.ChannelMessageSend(m.ChannelID, reply); err != nil {
		logger.Error("discord reply failed", err, logger.Fields{"channelId": m.ChannelID})
	}
}
