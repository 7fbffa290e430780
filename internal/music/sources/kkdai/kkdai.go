// Package kkdai talks to YouTube directly through github.com/kkdai/youtube.
// It serves as the fallback when yt-dlp is missing or blocked.
package kkdai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/keshon/badante/internal/music/media"
	"github.com/keshon/badante/internal/music/sources"
	"github.com/keshon/badante/pkg/util"
	youtube "github.com/kkdai/youtube/v2"
	"github.com/rs/zerolog"
)

const (
	Name = "kkdai"

	baseURL         = "https://www.youtube.com"
	metadataWorkers = 4
)

var (
	watchIDPattern = regexp.MustCompile(`"url":"/watch\?v=([a-zA-Z0-9_-]{11})`)

	ErrNoVideoMatch  = errors.New("no video found for the given query")
	ErrNoAudioFormat = errors.New("no audio formats found for video")
)

type Source struct {
	client  *youtube.Client
	baseURL string
	log     zerolog.Logger
}

func New(client *youtube.Client, log zerolog.Logger) *Source {
	if client == nil {
		client = &youtube.Client{HTTPClient: &http.Client{Timeout: httpTimeout}}
	}
	return &Source{
		client:  client,
		baseURL: baseURL,
		log:     log.With().Str("source", Name).Logger(),
	}
}

func (s *Source) Name() string { return Name }

func (s *Source) Match(locator string) bool {
	return sources.IsYouTubeURL(locator)
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
	if !s.Match(locator) {
		return nil, sources.ErrUnsupported
	}

	if sources.IsPlaylistURL(locator) {
		pl, err := s.client.GetPlaylistContext(ctx, locator)
		if err != nil {
			return nil, fmt.Errorf("kkdai playlist: %w", err)
		}
		tracks := make([]media.Track, 0, len(pl.Videos))
		for _, e := range pl.Videos {
			tracks = append(tracks, media.NewTrack(e.ID, e.Title, sources.WatchURL(e.ID), e.Duration))
		}
		if len(tracks) == 0 {
			return nil, fmt.Errorf("kkdai playlist %s is empty", pl.ID)
		}
		return tracks, nil
	}

	video, err := s.client.GetVideoContext(ctx, sources.CleanVideoURL(locator))
	if err != nil {
		return nil, fmt.Errorf("kkdai video: %w", err)
	}
	return []media.Track{trackFromVideo(video)}, nil
}

// Search scrapes the YouTube results page for video ids and looks each one up.
func (s *Source) Search(ctx context.Context, query string, limit int) ([]media.Track, error) {
	searchURL := fmt.Sprintf("%s/results?search_query=%s", s.baseURL, url.QueryEscape(query))
	body, err := s.get(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("kkdai search: %w", err)
	}

	ids := scrapeVideoIDs(body)
	if len(ids) == 0 {
		return nil, ErrNoVideoMatch
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	var (
		mu   sync.Mutex
		byID = make(map[string]media.Track, len(ids))
	)
	err = util.Parallel(ctx, ids, metadataWorkers, func(ctx context.Context, id string) error {
		video, err := s.client.GetVideoContext(ctx, id)
		if err != nil {
			s.log.Debug().Err(err).Str("id", id).Msg("skipping search result")
			return nil
		}
		mu.Lock()
		byID[id] = trackFromVideo(video)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("kkdai search: %w", err)
	}

	tracks := make([]media.Track, 0, len(byID))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			tracks = append(tracks, t)
		}
	}
	if len(tracks) == 0 {
		return nil, ErrNoVideoMatch
	}
	return tracks, nil
}

func (s *Source) SearchPlaylists(context.Context, string, int) ([]media.Track, error) {
	return nil, sources.ErrUnsupported
}

func (s *Source) Fetch(ctx context.Context, track media.Track, dir string) (media.Audio, error) {
	if !s.Match(track.Locator) {
		return media.Audio{}, sources.ErrUnsupported
	}
	start := time.Now()

	video, err := s.client.GetVideoContext(ctx, track.Locator)
	if err != nil {
		return media.Audio{}, fmt.Errorf("kkdai video: %w", err)
	}
	format, err := bestAudio(video.Formats)
	if err != nil {
		return media.Audio{}, err
	}

	stream, _, err := s.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return media.Audio{}, fmt.Errorf("kkdai stream: %w", err)
	}
	defer stream.Close()

	path := filepath.Join(dir, video.ID+extension(format.MimeType))
	f, err := os.Create(path)
	if err != nil {
		return media.Audio{}, err
	}
	size, err := io.Copy(f, stream)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return media.Audio{}, fmt.Errorf("kkdai download: %w", err)
	}

	s.log.Info().
		Str("track", track.Display()).
		Str("size", humanize.Bytes(uint64(size))).
		Dur("took", time.Since(start)).
		Msg("downloaded")

	if track.Title == "" {
		track = trackFromVideo(video)
	}
	return media.Audio{Track: track, Path: path, Size: size}, nil
}

func (s *Source) get(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.client.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func scrapeVideoIDs(body string) []string {
	var ids []string
	for _, m := range watchIDPattern.FindAllStringSubmatch(body, -1) {
		ids = append(ids, m[1])
	}
	return sources.Dedupe(ids)
}

func trackFromVideo(v *youtube.Video) media.Track {
	return media.NewTrack(v.ID, v.Title, sources.WatchURL(v.ID), v.Duration)
}

// bestAudio prefers audio-only formats, then the highest bitrate.
func bestAudio(formats youtube.FormatList) (*youtube.Format, error) {
	candidates := formats.WithAudioChannels()
	if len(candidates) == 0 {
		return nil, ErrNoAudioFormat
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		ai := strings.HasPrefix(candidates[i].MimeType, "audio/")
		aj := strings.HasPrefix(candidates[j].MimeType, "audio/")
		if ai != aj {
			return ai
		}
		return candidates[i].Bitrate > candidates[j].Bitrate
	})
	return &candidates[0], nil
}

func extension(mimeType string) string {
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return ".bin"
	}
	switch mt {
	case "audio/webm", "video/webm":
		return ".webm"
	case "audio/mp4", "video/mp4":
		return ".m4a"
	default:
		return ".bin"
	}
}
