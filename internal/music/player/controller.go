package player

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/keshon/badante/internal/music/media"
	"github.com/keshon/badante/internal/music/scratch"
	"github.com/rs/zerolog"
)

const (
	defaultSearchLimit    = 10
	defaultFetchTimeout   = 5 * time.Minute
	defaultConnectTimeout = 10 * time.Second
)

// Options tunes a Controller.
type Options struct {
	SearchLimit    int
	ScratchParent  string
	FetchTimeout   time.Duration
	ConnectTimeout time.Duration
}

// scratchDir is the per-track temporary resource acquired before a fetch.
type scratchDir interface {
	Path() string
	Release() error
}

// Controller drives the playback state machine of every guild.
type Controller struct {
	registry  *Registry
	resolver  Resolver
	transport Transport
	notifier  Notifier
	log       zerolog.Logger
	opts      Options

	ctx    context.Context
	cancel context.CancelFunc

	newScratch func() (scratchDir, error)
	now        func() time.Time
}

// NewController wires the state machine to its collaborators. notifier may be nil.
func NewController(resolver Resolver, transport Transport, notifier Notifier, log zerolog.Logger, opts Options) *Controller {
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = defaultSearchLimit
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = defaultConnectTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		registry:  NewRegistry(),
		resolver:  resolver,
		transport: transport,
		notifier:  notifier,
		log:       log.With().Str("component", "player").Logger(),
		opts:      opts,
		ctx:       ctx,
		cancel:    cancel,
		now:       time.Now,
	}
	c.newScratch = func() (scratchDir, error) {
		return scratch.New(c.opts.ScratchParent, c.log)
	}
	return c
}

// Registry exposes the session registry.
func (c *Controller) Registry() *Registry { return c.registry }

// lock returns the guild's session with its mutex held.
func (c *Controller) lock(guildID string) *Session {
	for {
		s := c.registry.GetOrCreate(guildID)
		s.mu.Lock()
		if !s.evicted {
			return s
		}
		s.mu.Unlock()
	}
}

func (c *Controller) notify(channelID, message string) {
	if c.notifier == nil || channelID == "" || message == "" {
		return
	}
	c.notifier.Notify(channelID, message)
}

// SetTextChannel records where status messages for the guild should go.
func (c *Controller) SetTextChannel(guildID, channelID string) {
	s := c.lock(guildID)
	defer s.mu.Unlock()
	s.textChannelID = channelID
}

// lockSettled is lock that also waits out a voice connect, move or leave
// running with the session mutex released.
func (c *Controller) lockSettled(ctx context.Context, guildID string) (*Session, error) {
	for {
		s := c.lock(guildID)
		wait := s.voiceOp
		if wait == nil {
			return s, nil
		}
		s.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// EnsureVoice connects to the member's channel, or moves there if the session
// is connected elsewhere. The session mutex is not held while the transport
// connects or moves.
func (c *Controller) EnsureVoice(ctx context.Context, guildID, memberChannelID string) (VoiceHandle, error) {
	if memberChannelID == "" {
		return nil, ErrNotInVoiceChannel
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.ConnectTimeout)
	defer cancel()

	for {
		s, err := c.lockSettled(ctx, guildID)
		if err != nil {
			return nil, wrap(ErrPlaybackFailure, err)
		}
		if s.voice != nil && s.voice.ChannelID() == memberChannelID {
			if s.state == StateDisconnected {
				s.state = StateIdle
			}
			h := s.voice
			s.mu.Unlock()
			return h, nil
		}

		current, gen := s.voice, s.generation
		done := s.beginVoiceOp()
		s.mu.Unlock()

		if current == nil {
			return c.connect(ctx, s, done, memberChannelID)
		}

		err = c.transport.Move(ctx, current, memberChannelID)

		s.mu.Lock()
		s.endVoiceOp(done)
		if err != nil {
			s.mu.Unlock()
			c.log.Error().Err(err).Str("guild", guildID).Str("channel", memberChannelID).Msg("voice move failed")
			return nil, wrap(ErrPlaybackFailure, err)
		}
		if s.voice != current || s.generation != gen {
			// the queue ran out and disconnected mid-move
			s.mu.Unlock()
			continue
		}
		s.aloneSince = nil
		s.mu.Unlock()
		c.log.Info().Str("guild", guildID).Str("channel", memberChannelID).Msg("moved to voice channel")
		return current, nil
	}
}

// connect finishes the voice op started by EnsureVoice on a session without a
// voice handle.
func (c *Controller) connect(ctx context.Context, s *Session, done chan struct{}, channelID string) (VoiceHandle, error) {
	h, err := c.transport.Connect(ctx, s.guildID, channelID)

	s.mu.Lock()
	s.endVoiceOp(done)
	if err != nil {
		s.mu.Unlock()
		c.log.Error().Err(err).Str("guild", s.guildID).Str("channel", channelID).Msg("voice connect failed")
		return nil, wrap(ErrPlaybackFailure, err)
	}
	if err := c.ctx.Err(); err != nil {
		s.mu.Unlock()
		if derr := c.transport.Disconnect(ctx, h); derr != nil {
			c.log.Warn().Err(derr).Str("guild", s.guildID).Msg("disconnect after shutdown failed")
		}
		return nil, wrap(ErrPlaybackFailure, err)
	}
	s.voice = h
	s.resetTimers()
	if s.state == StateDisconnected {
		s.state = StateIdle
	}
	s.mu.Unlock()

	c.log.Info().Str("guild", s.guildID).Str("channel", channelID).Msg("joined voice channel")
	return h, nil
}

// Enqueue appends tracks to the queue and returns the new queue length.
func (c *Controller) Enqueue(guildID string, tracks ...media.Track) int {
	s := c.lock(guildID)
	defer s.mu.Unlock()

	s.queue = append(s.queue, tracks...)
	c.log.Debug().Str("guild", guildID).Int("added", len(tracks)).Int("queue_len", len(s.queue)).Msg("enqueued")
	return len(s.queue)
}

// Resolve turns a URL or query into one or more tracks.
func (c *Controller) Resolve(ctx context.Context, locator string) ([]media.Track, error) {
	tracks, err := c.resolver.Resolve(ctx, locator)
	if err != nil {
		return nil, wrap(ErrResolutionFailure, err)
	}
	if len(tracks) == 0 {
		return nil, wrap(ErrResolutionFailure, errors.New("nothing found"))
	}
	return tracks, nil
}

// Search runs a video search and makes its results the guild's active set.
func (c *Controller) Search(ctx context.Context, guildID, query string) ([]media.Track, error) {
	tracks, err := c.resolver.Search(ctx, query, c.opts.SearchLimit)
	if err != nil {
		return nil, wrap(ErrSearchFailure, err)
	}
	if len(tracks) == 0 {
		return nil, ErrNoResults
	}

	set := media.NewSearchResultSet(guildID, tracks)
	s := c.lock(guildID)
	s.searches = set
	s.mu.Unlock()
	return slices.Clone(set.Entries), nil
}

// SearchPlaylists runs a playlist search and makes its results the guild's
// active playlist set.
func (c *Controller) SearchPlaylists(ctx context.Context, guildID, query string) ([]media.Track, error) {
	tracks, err := c.resolver.SearchPlaylists(ctx, query, c.opts.SearchLimit)
	if err != nil {
		return nil, wrap(ErrSearchFailure, err)
	}
	if len(tracks) == 0 {
		return nil, ErrNoResults
	}

	set := media.NewSearchResultSet(guildID, tracks)
	s := c.lock(guildID)
	s.playlists = set
	s.mu.Unlock()
	return slices.Clone(set.Entries), nil
}

// SelectFromSearch returns the 1-based entry of the guild's last search.
// The queue is not touched.
func (c *Controller) SelectFromSearch(guildID string, index int) (media.Track, error) {
	s := c.lock(guildID)
	defer s.mu.Unlock()
	return selectFrom(s.searches, index)
}

// SelectPlaylist resolves the 1-based entry of the guild's last playlist
// search into its tracks.
func (c *Controller) SelectPlaylist(ctx context.Context, guildID string, index int) ([]media.Track, error) {
	s := c.lock(guildID)
	entry, err := selectFrom(s.playlists, index)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return c.Resolve(ctx, entry.Locator)
}

func selectFrom(set *media.SearchResultSet, index int) (media.Track, error) {
	if set == nil {
		return media.Track{}, ErrNoActiveSearch
	}
	t, err := set.Select(index)
	if err != nil {
		return media.Track{}, fmt.Errorf("%w: %d (1-%d)", ErrInvalidIndex, index, set.Len())
	}
	return t, nil
}

// StartIfIdle starts playback when the session is connected, idle and has
// something queued. It is a no-op otherwise.
func (c *Controller) StartIfIdle(guildID string) {
	s := c.lock(guildID)
	ready := s.voice != nil &&
		s.state == StateIdle &&
		!s.advancing &&
		len(s.queue) > 0 &&
		!c.transport.IsPlaying(s.voice) &&
		!c.transport.IsPaused(s.voice)
	s.mu.Unlock()

	if ready {
		c.advance(guildID, true)
	}
}

// advance pops the next track, fetches it and hands it to the transport.
// Tracks that fail to fetch or play are reported and dropped. When the queue
// runs dry the session disconnects, unless startOnly is set and nothing was
// taken from the queue.
func (c *Controller) advance(guildID string, startOnly bool) {
	s := c.lock(guildID)
	if s.voice == nil || s.advancing || s.state == StatePlaying || s.state == StatePaused {
		s.mu.Unlock()
		return
	}

	var (
		note   string
		popped bool
	)
	for {
		textCh := s.textChannelID

		t, ok := s.popFront()
		if !ok {
			if !startOnly || popped {
				c.log.Info().Str("guild", guildID).Msg("queue finished, disconnecting")
				if err := c.disconnectLocked(c.ctx, s); err != nil {
					c.log.Warn().Err(err).Str("guild", guildID).Msg("disconnect after queue end failed")
				}
				note = joinNotes(note, "✅ End of queue – disconnecting.")
			}
			s.mu.Unlock()
			c.notify(textCh, note)
			return
		}

		popped = true
		s.advancing = true
		gen := s.generation
		handle := s.voice
		s.mu.Unlock()

		c.notify(textCh, note)
		note = ""

		c.log.Info().Str("guild", guildID).Str("track", t.Display()).Msg("fetching track")
		audio, dir, err := c.fetch(t)

		s.mu.Lock()
		s.advancing = false
		if gen != s.generation || s.evicted {
			s.mu.Unlock()
			if dir != nil {
				_ = dir.Release()
			}
			c.log.Info().Str("guild", guildID).Str("track", t.Display()).Msg("session disconnected during fetch, dropping track")
			return
		}
		if err != nil {
			c.log.Warn().Err(err).Str("guild", guildID).Str("track", t.Display()).Msg("skipping track")
			note = UserMessage(err)
			continue
		}

		onComplete := func(perr error) {
			c.onPlaybackComplete(guildID, gen, dir, perr)
		}
		if err := c.transport.Play(handle, audio, onComplete); err != nil {
			_ = dir.Release()
			err = wrap(ErrPlaybackFailure, err)
			c.log.Warn().Err(err).Str("guild", guildID).Str("track", t.Display()).Msg("skipping track")
			note = UserMessage(err)
			continue
		}

		played := t
		if played.Title == "" && audio.Track.Title != "" {
			played = audio.Track
		}
		s.current = &played
		s.state = StatePlaying
		s.idleSince = nil
		s.history = append(s.history, played)
		remaining := len(s.queue)
		s.mu.Unlock()

		c.log.Info().Str("guild", guildID).Str("track", played.Display()).Int("queue_len", remaining).Msg("now playing")
		c.notify(textCh, fmt.Sprintf("▶️ Now playing: **%s**", played.Display()))
		return
	}
}

func joinNotes(a, b string) string {
	if a == "" {
		return b
	}
	return a + "\n" + b
}

// fetch acquires a scratch directory and downloads t into it. On failure the
// directory is already released.
func (c *Controller) fetch(t media.Track) (media.Audio, scratchDir, error) {
	dir, err := c.newScratch()
	if err != nil {
		return media.Audio{}, nil, wrap(ErrFetchFailure, err)
	}

	ctx, cancel := context.WithTimeout(c.ctx, c.opts.FetchTimeout)
	defer cancel()

	audio, err := c.resolver.Fetch(ctx, t, dir.Path())
	if err != nil {
		_ = dir.Release()
		return media.Audio{}, nil, wrap(ErrFetchFailure, err)
	}
	return audio, dir, nil
}

// onPlaybackComplete is the transport's completion event for one track. It
// releases the track's scratch directory and moves on to the next track,
// unless the session was disconnected since the track started.
func (c *Controller) onPlaybackComplete(guildID string, gen uint64, dir scratchDir, err error) {
	if err != nil {
		c.log.Warn().Err(err).Str("guild", guildID).Msg("playback ended with error")
	}
	if dir != nil {
		_ = dir.Release()
	}

	s := c.registry.Get(guildID)
	if s == nil {
		return
	}

	s.mu.Lock()
	if gen != s.generation || s.evicted {
		s.mu.Unlock()
		return
	}
	s.current = nil
	if s.state == StatePlaying || s.state == StatePaused {
		s.state = StateIdle
	}
	s.mu.Unlock()

	c.advance(guildID, false)
}

// Skip stops the current track; its completion advances the queue.
func (c *Controller) Skip(guildID string) error {
	s := c.lock(guildID)
	defer s.mu.Unlock()

	if s.state != StatePlaying || s.voice == nil {
		return ErrNothingPlaying
	}
	if err := c.transport.Stop(s.voice); err != nil {
		return wrap(ErrPlaybackFailure, err)
	}
	c.log.Info().Str("guild", guildID).Msg("skip requested")
	return nil
}

// Previous puts the track played before the current one back at the head of
// the queue and stops the current track. history[len-1] is the current track,
// so both trailing entries are dropped from history.
func (c *Controller) Previous(guildID string) error {
	s := c.lock(guildID)
	defer s.mu.Unlock()

	n := len(s.history)
	if n < 2 {
		return ErrNoPreviousTrack
	}
	last := s.history[n-2]
	s.history = s.history[: n-2 : n-2]
	s.pushFront(last)
	c.log.Info().Str("guild", guildID).Str("track", last.Display()).Msg("previous track requeued")

	if (s.state == StatePlaying || s.state == StatePaused) && s.voice != nil {
		if err := c.transport.Stop(s.voice); err != nil {
			return wrap(ErrPlaybackFailure, err)
		}
	}
	return nil
}

// Pause pauses the current track.
func (c *Controller) Pause(guildID string) error {
	s := c.lock(guildID)
	defer s.mu.Unlock()

	if s.state != StatePlaying || s.voice == nil {
		return ErrNothingPlaying
	}
	if err := c.transport.Pause(s.voice); err != nil {
		return wrap(ErrPlaybackFailure, err)
	}
	s.state = StatePaused
	return nil
}

// Resume resumes a paused track.
func (c *Controller) Resume(guildID string) error {
	s := c.lock(guildID)
	defer s.mu.Unlock()

	if s.state != StatePaused || s.voice == nil {
		return ErrNothingPaused
	}
	if err := c.transport.Resume(s.voice); err != nil {
		return wrap(ErrPlaybackFailure, err)
	}
	s.state = StatePlaying
	return nil
}

// Clear empties the queue. The current track and history are kept.
func (c *Controller) Clear(guildID string) {
	s := c.lock(guildID)
	defer s.mu.Unlock()
	s.queue = nil
}

// Leave disconnects the session from voice. Playback state is dropped before
// the transport disconnects, with the session mutex released. If the
// transport fails the handle is kept so a later Leave or the idle guard can
// retry.
func (c *Controller) Leave(ctx context.Context, guildID string) error {
	s, err := c.lockSettled(ctx, guildID)
	if err != nil {
		return wrap(ErrPlaybackFailure, err)
	}
	h := s.voice
	if h == nil {
		s.mu.Unlock()
		return ErrNotConnected
	}
	c.detachLocked(s)
	done := s.beginVoiceOp()
	s.mu.Unlock()

	err = c.transport.Disconnect(ctx, h)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.endVoiceOp(done)
	if err != nil {
		s.voice = h
		return wrap(ErrPlaybackFailure, err)
	}
	c.log.Info().Str("guild", guildID).Msg("left voice channel")
	return nil
}

// disconnectLocked tears down the voice handle. On transport failure the
// handle is kept so a later attempt can retry.
func (c *Controller) disconnectLocked(ctx context.Context, s *Session) error {
	if s.voice != nil {
		if err := c.transport.Disconnect(ctx, s.voice); err != nil {
			return err
		}
		c.log.Info().Str("guild", s.guildID).Msg("left voice channel")
	}
	c.detachLocked(s)
	return nil
}

// detachLocked drops the voice handle and playback state and invalidates
// pipelines and completions of the current generation.
func (c *Controller) detachLocked(s *Session) {
	s.voice = nil
	s.current = nil
	s.state = StateDisconnected
	s.generation++
	s.resetTimers()
	s.disconnectedAt = c.now()
}

// Snapshot returns a copy of the guild's state. It never waits on a fetch.
func (c *Controller) Snapshot(guildID string) Snapshot {
	s := c.registry.Get(guildID)
	if s == nil {
		return Snapshot{GuildID: guildID, State: StateDisconnected}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Shutdown disconnects every session and cancels in-flight fetches.
func (c *Controller) Shutdown(ctx context.Context) {
	c.cancel()

	var wg sync.WaitGroup
	for _, s := range c.registry.All() {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.voice == nil {
				return
			}
			if err := c.disconnectLocked(ctx, s); err != nil {
				c.log.Warn().Err(err).Str("guild", s.guildID).Msg("disconnect on shutdown failed")
			}
		}(s)
	}
	wg.Wait()
}
