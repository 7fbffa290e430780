// Package music implements the chat commands that drive playback.
package music

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/keshon/badante/internal/command"
	"github.com/keshon/badante/internal/music/media"
	"github.com/keshon/badante/internal/music/player"
	"github.com/keshon/badante/pkg/cmd"
)

const (
	category    = "🎵 Music"
	titleLength = 80
)

// Player is the playback surface the commands need.
type Player interface {
	EnsureVoice(ctx context.Context, guildID, memberChannelID string) (player.VoiceHandle, error)
	SetTextChannel(guildID, channelID string)
	Enqueue(guildID string, tracks ...media.Track) int
	Resolve(ctx context.Context, locator string) ([]media.Track, error)
	Search(ctx context.Context, guildID, query string) ([]media.Track, error)
	SearchPlaylists(ctx context.Context, guildID, query string) ([]media.Track, error)
	SelectFromSearch(guildID string, index int) (media.Track, error)
	SelectPlaylist(ctx context.Context, guildID string, index int) ([]media.Track, error)
	StartIfIdle(guildID string)
	Skip(guildID string) error
	Previous(guildID string) error
	Pause(guildID string) error
	Resume(guildID string) error
	Clear(guildID string)
	Leave(ctx context.Context, guildID string) error
	Snapshot(guildID string) player.Snapshot
}

// Register adds every music command to r, each wrapped by mws.
func Register(r *cmd.Registry, p Player, mws ...cmd.Middleware) error {
	for _, c := range []cmd.Command{
		&SearchCommand{Player: p},
		&PlaylistSearchCommand{Player: p},
		&PlayCommand{Player: p},
		&PlaylistCommand{Player: p},
		&QueueCommand{Player: p},
		&NextCommand{Player: p},
		&PrevCommand{Player: p},
		&PauseCommand{Player: p},
		&ResumeCommand{Player: p},
		&ClearCommand{Player: p},
		&LeaveCommand{Player: p},
	} {
		if err := r.Register(c, mws...); err != nil {
			return err
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// numbered renders tracks as a 1-based list inside a code block.
func numbered(tracks []media.Track, withDuration bool) string {
	var sb strings.Builder
	sb.WriteString("```\n")
	for i, t := range tracks {
		fmt.Fprintf(&sb, "%d. %s", i+1, truncate(t.Display(), titleLength))
		if withDuration {
			fmt.Fprintf(&sb, " (%s)", t.DurationString())
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("```")
	return sb.String()
}

// messageContext extracts the chat context or fails the command.
func messageContext(inv *cmd.Invocation) (*command.MessageContext, error) {
	mc, ok := command.From(inv)
	if !ok {
		return nil, fmt.Errorf("unsupported invocation payload %T", inv.Data)
	}
	return mc, nil
}
