package sources

import (
	"context"
	"errors"

	"github.com/keshon/badante/internal/music/media"
)

// ErrUnsupported is returned by a Source for operations it cannot perform.
// The resolver moves on to the next source.
var ErrUnsupported = errors.New("operation not supported by source")

type Source interface {
	// Name returns the identifier used in logs ("ytdlp", "kkdai").
	Name() string

	// Match reports whether this source can handle the given URL.
	Match(locator string) bool

	// Resolve turns a URL into one or more tracks. Playlist URLs expand to
	// their entries.
	Resolve(ctx context.Context, locator string) ([]media.Track, error)

	Search(ctx context.Context, query string, limit int) ([]media.Track, error)
	SearchPlaylists(ctx context.Context, query string, limit int) ([]media.Track, error)

	// Fetch downloads the track's audio into dir.
	Fetch(ctx context.Context, track media.Track, dir string) (media.Audio, error)
}
