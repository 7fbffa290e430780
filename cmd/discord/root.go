package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/keshon/badante/internal/command/core"
	"github.com/keshon/badante/internal/command/music"
	"github.com/keshon/badante/internal/config"
	"github.com/keshon/badante/internal/discord"
	"github.com/keshon/badante/internal/logging"
	"github.com/keshon/badante/internal/middleware"
	"github.com/keshon/badante/internal/music/player"
	"github.com/keshon/badante/internal/music/source_resolver"
	"github.com/keshon/badante/internal/music/sources"
	"github.com/keshon/badante/internal/music/sources/kkdai"
	"github.com/keshon/badante/internal/music/sources/ytdlp"
	"github.com/keshon/badante/pkg/cmd"
	"github.com/keshon/badante/pkg/jobmgr"
)

const (
	appName         = "Badante"
	shutdownTimeout = 15 * time.Second
)

func newRootCmd() *cobra.Command {
	var files config.Files

	root := &cobra.Command{
		Use:           "badante",
		Short:         appName + " plays YouTube audio in Discord voice channels",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, err := config.Load(files)
			if err != nil {
				return err
			}
			return run(c.Context(), cfg)
		},
	}
	root.PersistentFlags().StringVar(&files.EnvFile, "env-file", ".env", "dotenv file loaded before the environment")
	root.PersistentFlags().StringVar(&files.ConfigFile, "config", os.Getenv("CONFIG_FILE"), "TOML config file keyed by variable name")

	root.AddCommand(newSearchCmd())
	return root
}

func newSources(cookies, proxy string, log zerolog.Logger) []sources.Source {
	return []sources.Source{
		ytdlp.New(ytdlp.Options{CookiesPath: cookies, Proxy: proxy}, log),
		kkdai.New(kkdai.NewClient(proxy, log), log),
	}
}

func run(parent context.Context, cfg *config.Config) error {
	log, closer, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return err
	}
	defer closer.Close()

	log.Info().Msgf("Starting %s bot...", appName)

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	session, err := discord.NewSession(cfg.DiscordToken)
	if err != nil {
		return err
	}

	resolver := source_resolver.New(
		newSources(cfg.YtdlCookies, cfg.YtdlProxy, logging.Component(log, "sources")),
		source_resolver.Options{FetchAttempts: cfg.FetchAttempts, FetchRate: cfg.FetchRate},
		log,
	)
	transport := discord.NewVoiceTransport(session, cfg.FFmpegPath, logging.Component(log, "stream"))
	notifier := discord.NewNotifier(session, logging.Component(log, "discord"))
	controller := player.NewController(resolver, transport, notifier, log, player.Options{
		SearchLimit:    cfg.SearchLimit,
		ScratchParent:  cfg.TempParent,
		FetchTimeout:   cfg.FetchTimeout,
		ConnectTimeout: cfg.ConnectTimeout,
	})
	guard := player.NewIdleGuard(controller, player.GuardOptions{
		Interval:     cfg.IdleSweepInterval,
		AloneTimeout: cfg.AloneTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		SessionTTL:   cfg.SessionTTL,
		Workers:      cfg.SweepWorkers,
	}, log)

	registry := cmd.NewRegistry()
	mws := []cmd.Middleware{
		middleware.WithGuildOnly(),
		middleware.WithCommandLogger(logging.Component(log, "commands")),
		middleware.WithErrorReply(),
	}
	if err := music.Register(registry, controller, mws...); err != nil {
		return err
	}
	if err := core.Register(registry, mws...); err != nil {
		return err
	}

	jobs := jobmgr.NewManager(ctx, log)
	if err := jobs.StartAsync("idle-guard", guard.Run); err != nil {
		return err
	}

	botCtx, stopBot := context.WithCancel(ctx)
	defer stopBot()
	bot := discord.NewBot(session, registry, cfg.CommandPrefix, discord.NewWordFilter(cfg.FilteredWords), logging.Component(log, "discord"))

	errCh := make(chan error, 1)
	go func() {
		if err := bot.Run(botCtx); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	var runErr error
	select {
	case s := <-sig:
		log.Info().Str("signal", s.String()).Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			runErr = fmt.Errorf("discord bot: %w", err)
		}
	case <-ctx.Done():
	}

	// Voice connections close over the gateway, so the bot stops last.
	jobs.StopAll()
	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	controller.Shutdown(shutdownCtx)
	transport.Close()
	stopBot()
	for err := range errCh {
		if runErr == nil && err != nil {
			runErr = fmt.Errorf("discord bot: %w", err)
		}
	}

	log.Info().Msg("Discord bot exited cleanly")
	return runErr
}
