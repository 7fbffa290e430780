package music

import (
	"context"

	"github.com/keshon/badante/pkg/cmd"
)

type NextCommand struct{ Player Player }

func (c *NextCommand) Name() string        { return "next" }
func (c *NextCommand) Aliases() []string   { return []string{"skip"} }
func (c *NextCommand) Description() string { return "Skip to the next track" }
func (c *NextCommand) Category() string    { return category }

func (c *NextCommand) Run(_ context.Context, inv *cmd.Invocation) error {
	mc, err := messageContext(inv)
	if err != nil {
		return err
	}
	return c.Player.Skip(mc.GuildID)
}

type PrevCommand struct{ Player Player }

func (c *PrevCommand) Name() string        { return "prev" }
func (c *PrevCommand) Description() string { return "Go back to the previous track" }
func (c *PrevCommand) Category() string    { return category }

func (c *PrevCommand) Run(_ context.Context, inv *cmd.Invocation) error {
	mc, err := messageContext(inv)
	if err != nil {
		return err
	}
	if err := c.Player.Previous(mc.GuildID); err != nil {
		return err
	}
	c.Player.StartIfIdle(mc.GuildID)
	return nil
}

type PauseCommand struct{ Player Player }

func (c *PauseCommand) Name() string        { return "pause" }
func (c *PauseCommand) Description() string { return "Pause playback" }
func (c *PauseCommand) Category() string    { return category }

func (c *PauseCommand) Run(_ context.Context, inv *cmd.Invocation) error {
	mc, err := messageContext(inv)
	if err != nil {
		return err
	}
	if err := c.Player.Pause(mc.GuildID); err != nil {
		return err
	}
	mc.Send("⏸️ Paused.")
	return nil
}

type ResumeCommand struct{ Player Player }

func (c *ResumeCommand) Name() string        { return "resume" }
func (c *ResumeCommand) Description() string { return "Resume playback" }
func (c *ResumeCommand) Category() string    { return category }

func (c *ResumeCommand) Run(_ context.Context, inv *cmd.Invocation) error {
	mc, err := messageContext(inv)
	if err != nil {
		return err
	}
	if err := c.Player.Resume(mc.GuildID); err != nil {
		return err
	}
	mc.Send("▶️ Resumed.")
	return nil
}

type LeaveCommand struct{ Player Player }

func (c *LeaveCommand) Name() string        { return "leave" }
func (c *LeaveCommand) Aliases() []string   { return []string{"stop"} }
func (c *LeaveCommand) Description() string { return "Leave the voice channel" }
func (c *LeaveCommand) Category() string    { return category }

func (c *LeaveCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, err := messageContext(inv)
	if err != nil {
		return err
	}
	if err := c.Player.Leave(ctx, mc.GuildID); err != nil {
		return err
	}
	mc.Send("⏹️ Disconnected.")
	return nil
}
