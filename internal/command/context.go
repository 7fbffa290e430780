// Package command holds the chat context passed to every command.
package command

import (
	"github.com/keshon/badante/pkg/cmd"
)

// MessageContext is the Invocation payload for prefix commands.
type MessageContext struct {
	GuildID   string
	ChannelID string
	UserID    string
	Username  string

	// VoiceChannelID is the author's current voice channel, empty if none.
	VoiceChannelID string

	Prefix string

	// Reply posts a message in the channel the command came from.
	Reply func(message string) error
}

// Categorized is implemented by commands listed under a heading in help.
type Categorized interface {
	Category() string
}

// From extracts the MessageContext carried by inv.
func From(inv *cmd.Invocation) (*MessageContext, bool) {
	if inv == nil {
		return nil, false
	}
	mc, ok := inv.Data.(*MessageContext)
	return mc, ok && mc != nil
}

// Send replies and drops the error; delivery failures are logged by the
// adapter that built Reply.
func (m *MessageContext) Send(message string) {
	if m.Reply != nil {
		_ = m.Reply(message)
	}
}
