package middleware

import (
	"context"
	"time"

	"github.com/keshon/badante/internal/command"
	"github.com/keshon/badante/pkg/cmd"
	"github.com/rs/zerolog"
)

// WithCommandLogger logs every invocation with its outcome and duration.
func WithCommandLogger(log zerolog.Logger) cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			start := time.Now()
			err := c.Run(ctx, inv)

			ev := log.Info()
			if err != nil {
				ev = log.Warn().Err(err)
			}
			if mc, ok := command.From(inv); ok {
				ev = ev.Str("guild", mc.GuildID).Str("user", mc.Username).Str("user_id", mc.UserID)
			}
			ev.Str("command", c.Name()).
				Str("called_as", inv.Name).
				Strs("args", inv.Args).
				Dur("took", time.Since(start)).
				Msg("command executed")
			return err
		})
	}
}
