package music

import (
	"context"
	"fmt"

	"github.com/keshon/badante/pkg/cmd"
)

type SearchCommand struct{ Player Player }

func (c *SearchCommand) Name() string        { return "yt" }
func (c *SearchCommand) Description() string { return "Search YouTube videos" }
func (c *SearchCommand) Usage() string       { return "<query>" }
func (c *SearchCommand) Category() string    { return category }

func (c *SearchCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, err := messageContext(inv)
	if err != nil {
		return err
	}
	query := inv.Raw()
	if query == "" {
		mc.Send(fmt.Sprintf("Usage: `%s%s %s`", mc.Prefix, c.Name(), c.Usage()))
		return nil
	}

	tracks, err := c.Player.Search(ctx, mc.GuildID, query)
	if err != nil {
		return err
	}
	mc.Send(fmt.Sprintf("**Results for:** `%s`\n%s\nUse `%splay <number>` to add one to the queue.",
		query, numbered(tracks, true), mc.Prefix))
	return nil
}

type PlaylistSearchCommand struct{ Player Player }

func (c *PlaylistSearchCommand) Name() string        { return "ytpl" }
func (c *PlaylistSearchCommand) Description() string { return "Search YouTube playlists" }
func (c *PlaylistSearchCommand) Usage() string       { return "<query>" }
func (c *PlaylistSearchCommand) Category() string    { return category }

func (c *PlaylistSearchCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, err := messageContext(inv)
	if err != nil {
		return err
	}
	query := inv.Raw()
	if query == "" {
		mc.Send(fmt.Sprintf("Usage: `%s%s %s`", mc.Prefix, c.Name(), c.Usage()))
		return nil
	}

	lists, err := c.Player.SearchPlaylists(ctx, mc.GuildID, query)
	if err != nil {
		return err
	}
	mc.Send(fmt.Sprintf("**Playlists found:**\n%s\nUse `%splaylist <number>` to add one.",
		numbered(lists, false), mc.Prefix))
	return nil
}
