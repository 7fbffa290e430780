package player

import (
	"context"
	"time"

	"github.com/keshon/badante/pkg/util"
	"github.com/rs/zerolog"
)

const (
	defaultSweepInterval = 2500 * time.Millisecond
	defaultAloneTimeout  = 10 * time.Second
	defaultIdleTimeout   = 10 * time.Second
	defaultSweepWorkers  = 4
	disconnectTimeout    = 10 * time.Second
)

// GuardOptions tunes an IdleGuard. Zero values fall back to defaults, except
// SessionTTL where zero disables eviction.
type GuardOptions struct {
	Interval     time.Duration
	AloneTimeout time.Duration
	IdleTimeout  time.Duration
	SessionTTL   time.Duration
	Workers      int
}

// IdleGuard periodically disconnects sessions that are alone in their voice
// channel or have been idle for too long.
type IdleGuard struct {
	c    *Controller
	opts GuardOptions
	log  zerolog.Logger
}

// NewIdleGuard returns a guard sweeping c's sessions.
func NewIdleGuard(c *Controller, opts GuardOptions, log zerolog.Logger) *IdleGuard {
	if opts.Interval <= 0 {
		opts.Interval = defaultSweepInterval
	}
	if opts.AloneTimeout <= 0 {
		opts.AloneTimeout = defaultAloneTimeout
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = defaultIdleTimeout
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultSweepWorkers
	}
	return &IdleGuard{
		c:    c,
		opts: opts,
		log:  log.With().Str("component", "idle-guard").Logger(),
	}
}

// Run sweeps every interval until ctx is done.
func (g *IdleGuard) Run(ctx context.Context) error {
	ticker := time.NewTicker(g.opts.Interval)
	defer ticker.Stop()

	g.log.Info().Dur("interval", g.opts.Interval).Msg("idle guard started")
	for {
		select {
		case <-ctx.Done():
			g.log.Info().Msg("idle guard stopped")
			return nil
		case <-ticker.C:
			g.Sweep(ctx, g.c.now())
		}
	}
}

// Sweep checks every registered session once against now.
func (g *IdleGuard) Sweep(ctx context.Context, now time.Time) {
	sessions := g.c.registry.All()
	err := util.Parallel(ctx, sessions, g.opts.Workers, func(ctx context.Context, s *Session) error {
		channelID, note := g.check(ctx, s, now)
		g.c.notify(channelID, note)
		return nil
	})
	if err != nil && ctx.Err() == nil {
		g.log.Warn().Err(err).Msg("sweep failed")
	}
}

// check applies the alone, idle and eviction rules to s and returns a status
// message to post, if any.
func (g *IdleGuard) check(ctx context.Context, s *Session, now time.Time) (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.evicted || s.voiceOp != nil {
		return "", ""
	}
	if s.voice == nil {
		g.maybeEvict(s, now)
		return "", ""
	}

	members, err := g.c.transport.MembersOf(s.guildID, s.voice.ChannelID())
	if err != nil {
		g.log.Warn().Err(err).Str("guild", s.guildID).Msg("listing voice members failed")
	} else {
		if humanCount(members) == 0 {
			if s.aloneSince == nil {
				t := now
				s.aloneSince = &t
			}
			if now.Sub(*s.aloneSince) >= g.opts.AloneTimeout {
				if g.disconnect(ctx, s, "alone in voice channel") {
					return s.textChannelID, "👋 Nobody is listening, leaving the voice channel."
				}
				return "", ""
			}
		} else {
			s.aloneSince = nil
		}
	}

	busy := s.advancing || s.state == StatePlaying || s.state == StatePaused
	if busy {
		s.idleSince = nil
		return "", ""
	}
	if s.idleSince == nil {
		t := now
		s.idleSince = &t
	}
	if now.Sub(*s.idleSince) >= g.opts.IdleTimeout {
		if g.disconnect(ctx, s, "idle") {
			return s.textChannelID, "💤 Idle for too long, leaving the voice channel."
		}
	}
	return "", ""
}

func (g *IdleGuard) disconnect(ctx context.Context, s *Session, reason string) bool {
	ctx, cancel := context.WithTimeout(ctx, disconnectTimeout)
	defer cancel()

	if err := g.c.disconnectLocked(ctx, s); err != nil {
		g.log.Warn().Err(err).Str("guild", s.guildID).Str("reason", reason).Msg("disconnect failed, will retry")
		return false
	}
	g.log.Info().Str("guild", s.guildID).Str("reason", reason).Msg("disconnected")
	return true
}

func (g *IdleGuard) maybeEvict(s *Session, now time.Time) {
	if g.opts.SessionTTL <= 0 || s.state != StateDisconnected || s.advancing || len(s.queue) > 0 {
		return
	}
	if now.Sub(s.disconnectedAt) < g.opts.SessionTTL {
		return
	}
	s.evicted = true
	if g.c.registry.evict(s) {
		g.log.Debug().Str("guild", s.guildID).Msg("session evicted")
	}
}

func humanCount(members []Member) int {
	n := 0
	for _, m := range members {
		if !m.Bot {
			n++
		}
	}
	return n
}
