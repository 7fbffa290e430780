package music

import (
	"context"
	"fmt"

	"github.com/keshon/badante/pkg/cmd"
)

type QueueCommand struct{ Player Player }

func (c *QueueCommand) Name() string        { return "queue" }
func (c *QueueCommand) Description() string { return "Show the queue" }
func (c *QueueCommand) Category() string    { return category }

func (c *QueueCommand) Run(_ context.Context, inv *cmd.Invocation) error {
	mc, err := messageContext(inv)
	if err != nil {
		return err
	}

	snap := c.Player.Snapshot(mc.GuildID)
	if len(snap.Queue) == 0 {
		mc.Send("📭 The queue is empty.")
		return nil
	}
	msg := fmt.Sprintf("🎶 **Queue:**\n%s", numbered(snap.Queue, false))
	if snap.Current != nil {
		msg = fmt.Sprintf("▶️ Now playing: **%s**\n", snap.Current.Display()) + msg
	}
	mc.Send(msg)
	return nil
}

type ClearCommand struct{ Player Player }

func (c *ClearCommand) Name() string        { return "clear" }
func (c *ClearCommand) Description() string { return "Empty the queue" }
func (c *ClearCommand) Category() string    { return category }

func (c *ClearCommand) Run(_ context.Context, inv *cmd.Invocation) error {
	mc, err := messageContext(inv)
	if err != nil {
		return err
	}
	c.Player.Clear(mc.GuildID)
	mc.Send("🗑️ Queue cleared.")
	return nil
}
