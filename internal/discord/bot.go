// Package discord connects the command registry and the player to the
// Discord gateway.
package discord

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/keshon/badante/internal/command"
	"github.com/keshon/badante/pkg/cmd"
)

const intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsGuildVoiceStates |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsMessageContent

// NewSession creates a gateway session with the intents the bot needs.
func NewSession(token string) (*discordgo.Session, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	dg.Identify.Intents = intents
	dg.StateEnabled = true
	return dg, nil
}

// Bot routes prefixed chat messages to registered commands.
type Bot struct {
	session  *discordgo.Session
	api      messenger
	registry *cmd.Registry
	prefix   string
	filter   *WordFilter
	log      zerolog.Logger

	ctx context.Context
}

func NewBot(s *discordgo.Session, registry *cmd.Registry, prefix string, filter *WordFilter, log zerolog.Logger) *Bot {
	return &Bot{
		session:  s,
		api:      s,
		registry: registry,
		prefix:   prefix,
		filter:   filter,
		log:      log,
		ctx:      context.Background(),
	}
}

// Run opens the gateway and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	b.ctx = ctx
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onMessageCreate)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer b.session.Close()

	<-ctx.Done()
	b.log.Info().Msg("shutdown signal received, closing gateway")
	return nil
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	b.log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("✅ discord bot is running")
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil {
		return
	}
	if u := s.State.User; u != nil && m.Author.ID == u.ID {
		return
	}
	voiceChannelID := ""
	if m.GuildID != "" {
		if vs, err := s.State.VoiceState(m.GuildID, m.Author.ID); err == nil {
			voiceChannelID = vs.ChannelID
		}
	}
	b.handleMessage(m.Message, voiceChannelID)
}

// handleMessage applies the word filter and dispatches a prefixed command.
func (b *Bot) handleMessage(m *discordgo.Message, voiceChannelID string) {
	if word, ok := b.filter.Match(m.Content); ok {
		b.log.Info().Str("guild", m.GuildID).Str("user", m.Author.Username).Msg("deleting filtered message")
		if err := b.api.ChannelMessageDelete(m.ChannelID, m.ID); err != nil {
			b.log.Warn().Err(err).Str("channel", m.ChannelID).Msg("failed to delete filtered message")
		}
		b.reply(m.ChannelID, fmt.Sprintf("%s said %s.", m.Author.Mention(), word))
	}

	name, args, ok := cmd.Parse(b.prefix, m.Content)
	if !ok {
		return
	}
	c := b.registry.Get(name)
	if c == nil {
		b.log.Debug().Str("command", name).Msg("unknown command")
		return
	}

	mc := &command.MessageContext{
		GuildID:        m.GuildID,
		ChannelID:      m.ChannelID,
		UserID:         m.Author.ID,
		Username:       m.Author.Username,
		VoiceChannelID: voiceChannelID,
		Prefix:         b.prefix,
		Reply: func(message string) error {
			return b.reply(m.ChannelID, message)
		},
	}
	b.dispatch(c, &cmd.Invocation{Name: name, Args: args, Data: mc})
}

func (b *Bot) dispatch(c cmd.Command, inv *cmd.Invocation) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().
				Str("command", c.Name()).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("command panicked")
		}
	}()

	if err := c.Run(b.ctx, inv); err != nil {
		b.log.Error().Err(err).Str("command", c.Name()).Msg("error running command")
	}
}

func (b *Bot) reply(channelID, message string) error {
	if _, err := b.api.ChannelMessageSend(channelID, message); err != nil {
		b.log.Warn().Err(err).Str("channel", channelID).Msg("failed to send reply")
		return err
	}
	return nil
}
