package middleware

import (
	"context"

	"github.com/keshon/badante/internal/command"
	"github.com/keshon/badante/internal/music/player"
	"github.com/keshon/badante/pkg/cmd"
)

// WithErrorReply answers a failed command with its chat message. The error
// is consumed.
func WithErrorReply() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			err := c.Run(ctx, inv)
			if err == nil {
				return nil
			}
			if mc, ok := command.From(inv); ok {
				mc.Send(player.UserMessage(err))
				return nil
			}
			return err
		})
	}
}
