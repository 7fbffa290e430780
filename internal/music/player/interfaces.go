package player

import (
	"context"

	"github.com/keshon/badante/internal/music/media"
)

// Resolver turns locators and queries into tracks and fetches playable audio.
type Resolver interface {
	Resolve(ctx context.Context, locator string) ([]media.Track, error)
	Search(ctx context.Context, query string, limit int) ([]media.Track, error)
	SearchPlaylists(ctx context.Context, query string, limit int) ([]media.Track, error)
	// Fetch downloads the track's audio into dir. dir is owned by the caller.
	Fetch(ctx context.Context, track media.Track, dir string) (media.Audio, error)
}

// VoiceHandle is the transport's live connection to one voice channel.
type VoiceHandle interface {
	GuildID() string
	ChannelID() string
}

// Member is a user present in a voice channel.
type Member struct {
	ID  string
	Bot bool
}

// Transport streams audio into voice channels.
//
// Play, Pause, Resume and Stop must return promptly and must never call the
// completion callback from inside the call; completion is delivered from the
// goroutine that streams the audio, exactly once per successful Play.
type Transport interface {
	Connect(ctx context.Context, guildID, channelID string) (VoiceHandle, error)
	Move(ctx context.Context, h VoiceHandle, channelID string) error
	Play(h VoiceHandle, audio media.Audio, onComplete func(error)) error
	Pause(h VoiceHandle) error
	Resume(h VoiceHandle) error
	Stop(h VoiceHandle) error
	Disconnect(ctx context.Context, h VoiceHandle) error
	MembersOf(guildID, channelID string) ([]Member, error)
	IsPlaying(h VoiceHandle) bool
	IsPaused(h VoiceHandle) bool
}

// Notifier delivers status text to the channel a command came from.
type Notifier interface {
	Notify(channelID, message string)
}
