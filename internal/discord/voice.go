package discord

import (
	"github.com/bwmarrin/discordgo"
)

// voiceConn is the part of a discordgo voice connection the transport drives.
type voiceConn interface {
	Channel() string
	Opus() chan<- []byte
	Speaking(bool) error
	ChangeChannel(channelID string, mute, deaf bool) error
	Disconnect() error
}

type dgVoice struct {
	vc *discordgo.VoiceConnection
}

func (d dgVoice) Channel() string {
	d.vc.RLock()
	defer d.vc.RUnlock()
	return d.vc.ChannelID
}

func (d dgVoice) Opus() chan<- []byte { return d.vc.OpusSend }

func (d dgVoice) Speaking(b bool) error { return d.vc.Speaking(b) }

func (d dgVoice) ChangeChannel(channelID string, mute, deaf bool) error {
	return d.vc.ChangeChannel(channelID, mute, deaf)
}

func (d dgVoice) Disconnect() error { return d.vc.Disconnect() }

// voiceHandle is the player.VoiceHandle handed out by VoiceTransport.
type voiceHandle struct {
	guildID string
	conn    voiceConn
}

func (h *voiceHandle) GuildID() string   { return h.guildID }
func (h *voiceHandle) ChannelID() string { return h.conn.Channel() }
