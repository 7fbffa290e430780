// Package source_resolver chains media sources: each operation is tried on
// every capable source in order until one succeeds.
package source_resolver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/keshon/badante/internal/music/media"
	"github.com/keshon/badante/internal/music/sources"
	"github.com/keshon/badante/pkg/retrylimit"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

var errNoSource = errors.New("no source can handle this input")

type Options struct {
	// FetchAttempts bounds download attempts per source.
	FetchAttempts int
	// FetchRate is the starting process-wide download rate, per second.
	FetchRate float64
}

type SourceResolver struct {
	sources []sources.Source
	limiter *retrylimit.AdaptiveLimiter
	retry   retrylimit.RetryConfig
	log     zerolog.Logger
}

func New(srcs []sources.Source, opts Options, log zerolog.Logger) *SourceResolver {
	if opts.FetchAttempts <= 0 {
		opts.FetchAttempts = 2
	}
	if opts.FetchRate <= 0 {
		opts.FetchRate = 2
	}
	log = log.With().Str("component", "resolver").Logger()

	initial := rate.Limit(opts.FetchRate)
	retry := retrylimit.DefaultRetryConfig()
	retry.MaxAttempts = opts.FetchAttempts
	retry.Log = &log

	return &SourceResolver{
		sources: srcs,
		limiter: retrylimit.NewAdaptiveLimiter(initial, 1, initial*2, 1, 0.5),
		retry:   retry,
		log:     log,
	}
}

// candidates returns the sources that may handle locator. Queries go to every
// source; URLs only to sources that match them.
func (r *SourceResolver) candidates(locator string) []sources.Source {
	if !sources.IsURL(locator) {
		return r.sources
	}
	var out []sources.Source
	for _, s := range r.sources {
		if s.Match(locator) {
			out = append(out, s)
		}
	}
	return out
}

// try runs op on each source in turn and returns the first non-empty result.
func (r *SourceResolver) try(srcs []sources.Source, what string, op func(sources.Source) ([]media.Track, error)) ([]media.Track, error) {
	var errs []error
	for _, s := range srcs {
		tracks, err := op(s)
		switch {
		case err == nil && len(tracks) > 0:
			return tracks, nil
		case err == nil:
			continue
		case errors.Is(err, sources.ErrUnsupported):
			continue
		}
		r.log.Warn().Err(err).Str("source", s.Name()).Str("op", what).Msg("source failed, trying next")
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, nil
	}
	return nil, errors.Join(errs...)
}

func (r *SourceResolver) Resolve(ctx context.Context, locator string) ([]media.Track, error) {
	locator = strings.TrimSpace(locator)
	srcs := r.candidates(locator)
	if len(srcs) == 0 {
		return nil, errNoSource
	}
	tracks, err := r.try(srcs, "resolve", func(s sources.Source) ([]media.Track, error) {
		return s.Resolve(ctx, locator)
	})
	if err == nil && len(tracks) == 0 {
		return nil, fmt.Errorf("nothing found for %q", locator)
	}
	return tracks, err
}

func (r *SourceResolver) Search(ctx context.Context, query string, limit int) ([]media.Track, error) {
	return r.try(r.sources, "search", func(s sources.Source) ([]media.Track, error) {
		return s.Search(ctx, query, limit)
	})
}

func (r *SourceResolver) SearchPlaylists(ctx context.Context, query string, limit int) ([]media.Track, error) {
	return r.try(r.sources, "playlist search", func(s sources.Source) ([]media.Track, error) {
		return s.SearchPlaylists(ctx, query, limit)
	})
}

// Fetch downloads track into dir, retrying each source up to FetchAttempts
// times before falling back to the next one.
func (r *SourceResolver) Fetch(ctx context.Context, track media.Track, dir string) (media.Audio, error) {
	srcs := r.candidates(track.Locator)
	if len(srcs) == 0 {
		return media.Audio{}, errNoSource
	}

	var errs []error
	for _, s := range srcs {
		var audio media.Audio
		err := retrylimit.WithRetryConfig(ctx, func(ctx context.Context) error {
			if err := emptyDir(dir); err != nil {
				return retrylimit.Fatal(err)
			}
			a, err := s.Fetch(ctx, track, dir)
			if errors.Is(err, sources.ErrUnsupported) {
				return retrylimit.Fatal(err)
			}
			audio = a
			return err
		}, r.limiter, r.retry)
		if err == nil {
			return audio, nil
		}
		if errors.Is(err, sources.ErrUnsupported) {
			continue
		}
		if ctx.Err() != nil {
			return media.Audio{}, err
		}
		r.log.Warn().Err(err).Str("source", s.Name()).Str("track", track.Display()).Msg("fetch failed, trying next source")
		errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
	}
	if len(errs) == 0 {
		return media.Audio{}, errNoSource
	}
	return media.Audio{}, errors.Join(errs...)
}

// emptyDir removes leftovers of a previous attempt.
func emptyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
