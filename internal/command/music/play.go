package music

import (
	"context"
	"fmt"
	"strconv"

	"github.com/keshon/badante/internal/music/media"
	"github.com/keshon/badante/internal/music/player"
	"github.com/keshon/badante/pkg/cmd"
)

type PlayCommand struct{ Player Player }

func (c *PlayCommand) Name() string { return "play" }
func (c *PlayCommand) Description() string {
	return "Add a search result, a video or a playlist to the queue"
}
func (c *PlayCommand) Usage() string    { return "<number|url|query>" }
func (c *PlayCommand) Category() string { return category }

func (c *PlayCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, err := messageContext(inv)
	if err != nil {
		return err
	}
	arg := inv.Raw()
	if arg == "" {
		mc.Send(fmt.Sprintf("Usage: `%s%s %s`", mc.Prefix, c.Name(), c.Usage()))
		return nil
	}

	if mc.VoiceChannelID == "" {
		return player.ErrNotInVoiceChannel
	}

	// Join voice only once the tracks are resolved.
	var tracks []media.Track
	if n, convErr := strconv.Atoi(arg); convErr == nil {
		t, err := c.Player.SelectFromSearch(mc.GuildID, n)
		if err != nil {
			return err
		}
		tracks = []media.Track{t}
	} else {
		tracks, err = c.Player.Resolve(ctx, arg)
		if err != nil {
			return err
		}
	}

	if _, err := c.Player.EnsureVoice(ctx, mc.GuildID, mc.VoiceChannelID); err != nil {
		return err
	}
	c.Player.SetTextChannel(mc.GuildID, mc.ChannelID)
	c.Player.Enqueue(mc.GuildID, tracks...)
	if len(tracks) == 1 {
		mc.Send(fmt.Sprintf("🎵 Added to queue: **%s**", tracks[0].Display()))
	} else {
		mc.Send(fmt.Sprintf("📥 Playlist added (%d tracks).", len(tracks)))
	}

	c.Player.StartIfIdle(mc.GuildID)
	return nil
}

type PlaylistCommand struct{ Player Player }

func (c *PlaylistCommand) Name() string        { return "playlist" }
func (c *PlaylistCommand) Description() string { return "Add a playlist from the last playlist search" }
func (c *PlaylistCommand) Usage() string       { return "<number>" }
func (c *PlaylistCommand) Category() string    { return category }

func (c *PlaylistCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, err := messageContext(inv)
	if err != nil {
		return err
	}
	n, convErr := strconv.Atoi(inv.Raw())
	if convErr != nil {
		mc.Send(fmt.Sprintf("Usage: `%s%s %s`", mc.Prefix, c.Name(), c.Usage()))
		return nil
	}
	if mc.VoiceChannelID == "" {
		return player.ErrNotInVoiceChannel
	}

	tracks, err := c.Player.SelectPlaylist(ctx, mc.GuildID, n)
	if err != nil {
		return err
	}
	c.Player.Enqueue(mc.GuildID, tracks...)
	mc.Send(fmt.Sprintf("📥 Playlist added (%d tracks).", len(tracks)))

	if _, err := c.Player.EnsureVoice(ctx, mc.GuildID, mc.VoiceChannelID); err != nil {
		return err
	}
	c.Player.SetTextChannel(mc.GuildID, mc.ChannelID)
	c.Player.StartIfIdle(mc.GuildID)
	return nil
}
