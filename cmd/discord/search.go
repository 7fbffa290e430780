package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/keshon/badante/internal/logging"
	"github.com/keshon/badante/internal/music/media"
	"github.com/keshon/badante/internal/music/source_resolver"
	"github.com/keshon/badante/internal/music/sources"
)

// newSearchCmd checks the sources from a terminal without a Discord token.
func newSearchCmd() *cobra.Command {
	var (
		cookies   string
		proxy     string
		limit     int
		playlists bool
		timeout   time.Duration
	)

	c := &cobra.Command{
		Use:   "search <query|url>",
		Short: "Search YouTube or resolve a URL with the configured sources",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			log, _, err := logging.New(logging.Options{Level: "warn", Console: os.Stderr})
			if err != nil {
				return err
			}
			resolver := source_resolver.New(newSources(cookies, proxy, log), source_resolver.Options{}, log)

			ctx, cancel := context.WithTimeout(c.Context(), timeout)
			defer cancel()

			query := strings.Join(args, " ")
			var tracks []media.Track
			switch {
			case sources.IsURL(query):
				tracks, err = resolver.Resolve(ctx, query)
			case playlists:
				tracks, err = resolver.SearchPlaylists(ctx, query, limit)
			default:
				tracks, err = resolver.Search(ctx, query, limit)
			}
			if err != nil {
				return err
			}
			for i, t := range tracks {
				fmt.Fprintf(c.OutOrStdout(), "%2d. %s (%s)\n    %s\n", i+1, t.Display(), t.DurationString(), t.Locator)
			}
			return nil
		},
	}
	c.Flags().StringVar(&cookies, "cookies", os.Getenv("YTDL_COOKIES"), "yt-dlp cookies file")
	c.Flags().StringVar(&proxy, "proxy", os.Getenv("YTDL_PROXY"), "proxy URL for downloads")
	c.Flags().IntVarP(&limit, "limit", "n", 10, "number of results")
	c.Flags().BoolVar(&playlists, "playlists", false, "search playlists instead of videos")
	c.Flags().DurationVar(&timeout, "timeout", time.Minute, "overall timeout")
	return c
}
