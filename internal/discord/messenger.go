package discord

import (
	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

// messenger is the REST surface used for text replies. *discordgo.Session
// implements it.
type messenger interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
}

// Notifier posts player status messages to text channels.
type Notifier struct {
	api messenger
	log zerolog.Logger
}

func NewNotifier(api messenger, log zerolog.Logger) *Notifier {
	return &Notifier{api: api, log: log}
}

func (n *Notifier) Notify(channelID, message string) {
	if channelID == "" || message == "" {
		return
	}
	if _, err := n.api.ChannelMessageSend(channelID, message); err != nil {
		n.log.Warn().Err(err).Str("channel", channelID).Msg("failed to send notification")
	}
}
