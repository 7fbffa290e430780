// Package ytdlp resolves, searches and downloads audio with the yt-dlp binary.
package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/keshon/badante/internal/music/media"
	"github.com/keshon/badante/internal/music/sources"
	"github.com/lrstanley/go-ytdlp"
	"github.com/rs/zerolog"
)

const (
	Name = "ytdlp"

	// printTemplate emits one tab separated line per entry.
	printTemplate = "%(id)s\t%(title)s\t%(webpage_url,url)s\t%(duration)s\t%(_type)s"

	// playlistSearchURL filters YouTube results to playlists.
	playlistSearchURL = "https://www.youtube.com/results?search_query=%s&sp=EgIQAw%%253D%%253D"
)

var errNoAudioFile = errors.New("yt-dlp produced no audio file")

// Options configures the yt-dlp invocation.
type Options struct {
	CookiesPath string
	Proxy       string
}

// Source runs yt-dlp for every operation.
type Source struct {
	opts Options
	log  zerolog.Logger
}

func New(opts Options, log zerolog.Logger) *Source {
	return &Source{
		opts: opts,
		log:  log.With().Str("source", Name).Logger(),
	}
}

func (s *Source) Name() string { return Name }

// Match accepts any URL; yt-dlp knows far more sites than YouTube.
func (s *Source) Match(locator string) bool {
	return sources.IsURL(locator)
}

func (s *Source) command() *ytdlp.Command {
	cmd := ytdlp.New().
		Quiet().
		NoWarnings().
		IgnoreConfig()
	if s.opts.Proxy != "" {
		cmd.Proxy(s.opts.Proxy)
	}
	return cmd
}

func (s *Source) args(extra ...string) []string {
	args := []string{"--source-address", "0.0.0.0"}
	if s.opts.CookiesPath != "" {
		args = append(args, "--cookies", s.opts.CookiesPath)
	}
	return append(args, extra...)
}

func (s *Source) Resolve(ctx context.Context, locator string) ([]media.Track, error) {
	locator = strings.TrimSpace(locator)
	if !sources.IsURL(locator) {
		tracks, err := s.Search(ctx, locator, 1)
		if err != nil {
			return nil, err
		}
		return tracks[:min(1, len(tracks))], nil
	}

	res, err := s.command().
		FlatPlaylist().
		Print(printTemplate).
		Run(ctx, s.args(locator)...)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp resolve: %w", err)
	}

	tracks := parseEntries(res.Stdout)
	if len(tracks) == 0 {
		return nil, fmt.Errorf("yt-dlp resolve: no entries for %s", locator)
	}
	s.log.Debug().Str("locator", locator).Int("tracks", len(tracks)).Msg("resolved")
	return tracks, nil
}

func (s *Source) Search(ctx context.Context, query string, limit int) ([]media.Track, error) {
	res, err := s.command().
		FlatPlaylist().
		Print(printTemplate).
		PlaylistItems(fmt.Sprintf("1-%d", limit)).
		Run(ctx, s.args(fmt.Sprintf("ytsearch%d:%s", limit, query))...)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp search: %w", err)
	}
	return parseEntries(res.Stdout), nil
}

func (s *Source) SearchPlaylists(ctx context.Context, query string, limit int) ([]media.Track, error) {
	searchURL := fmt.Sprintf(playlistSearchURL, url.QueryEscape(query))

	res, err := s.command().
		FlatPlaylist().
		Print(printTemplate).
		PlaylistItems(fmt.Sprintf("1-%d", limit)).
		Run(ctx, s.args(searchURL)...)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp playlist search: %w", err)
	}

	var out []media.Track
	for _, t := range parseEntries(res.Stdout) {
		if t.Kind == media.KindPlaylist || sources.IsPlaylistURL(t.Locator) {
			t.Kind = media.KindPlaylist
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Source) Fetch(ctx context.Context, track media.Track, dir string) (media.Audio, error) {
	start := time.Now()

	_, err := s.command().
		NoPlaylist().
		NoSimulate().
		NoPart().
		Format("bestaudio/best").
		Output(filepath.Join(dir, "%(id)s.%(ext)s")).
		Run(ctx, s.args(track.Locator)...)
	if err != nil {
		return media.Audio{}, fmt.Errorf("yt-dlp download: %w", err)
	}

	path, size, err := findAudioFile(dir)
	if err != nil {
		return media.Audio{}, err
	}
	s.log.Info().
		Str("track", track.Display()).
		Str("size", humanize.Bytes(uint64(size))).
		Dur("took", time.Since(start)).
		Msg("downloaded")
	return media.Audio{Track: track, Path: path, Size: size}, nil
}

// findAudioFile returns the single finished download in dir.
func findAudioFile(dir string) (string, int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", 0, err
	}
	for _, e := range entries {
		if e.IsDir() || strings.HasSuffix(e.Name(), ".part") || strings.HasSuffix(e.Name(), ".ytdl") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return "", 0, err
		}
		return filepath.Join(dir, e.Name()), info.Size(), nil
	}
	return "", 0, errNoAudioFile
}

// parseEntries parses printTemplate lines. yt-dlp prints NA for missing fields.
func parseEntries(stdout string) []media.Track {
	var out []media.Track
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		parts := strings.Split(line, "\t")
		if len(parts) < 4 {
			continue
		}
		id, title, locator, duration := na(parts[0]), na(parts[1]), na(parts[2]), na(parts[3])
		if id == "" && locator == "" {
			continue
		}

		kind := media.KindVideo
		if len(parts) > 4 && na(parts[4]) == "playlist" {
			kind = media.KindPlaylist
		}
		if locator == "" || !sources.IsURL(locator) {
			if kind == media.KindPlaylist {
				locator = sources.PlaylistURL(id)
			} else {
				locator = sources.WatchURL(id)
			}
		}
		if kind == media.KindVideo {
			locator = sources.CleanVideoURL(locator)
		}

		var d time.Duration
		if secs, err := strconv.ParseFloat(duration, 64); err == nil {
			d = time.Duration(secs * float64(time.Second))
		}

		t := media.NewTrack(id, title, locator, d)
		t.Kind = kind
		out = append(out, t)
	}
	return out
}

func na(s string) string {
	s = strings.TrimSpace(s)
	if s == "NA" || s == "None" {
		return ""
	}
	return s
}
