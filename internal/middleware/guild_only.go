package middleware

import (
	"context"

	"github.com/keshon/badante/internal/command"
	"github.com/keshon/badante/pkg/cmd"
)

// WithGuildOnly drops commands sent outside a server.
func WithGuildOnly() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			mc, ok := command.From(inv)
			if !ok {
				return nil
			}
			if mc.GuildID == "" {
				mc.Send("❌ This command only works in a server.")
				return nil
			}
			return c.Run(ctx, inv)
		})
	}
}
