package discord

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/keshon/badante/internal/music/media"
	"github.com/keshon/badante/internal/music/player"
	"github.com/keshon/badante/internal/music/stream"
)

var (
	errForeignHandle = errors.New("voice handle not created by this transport")
	errBusy          = errors.New("guild is already playing")
	errIdle          = errors.New("guild is not playing")
)

// The bot joins deafened; it never listens.
const (
	selfMute = false
	selfDeaf = true
)

type playback struct {
	pump   *stream.Pump
	cancel context.CancelFunc
}

// VoiceTransport implements player.Transport on discordgo voice connections.
// Audio files are decoded by ffmpeg and encoded to opus in one goroutine per
// guild.
type VoiceTransport struct {
	session *discordgo.Session
	log     zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	join       func(guildID, channelID string) (voiceConn, error)
	openPCM    func(ctx context.Context, path string) (io.ReadCloser, error)
	newEncoder func() (stream.Encoder, error)

	mu      sync.Mutex
	playing map[string]*playback
}

func NewVoiceTransport(s *discordgo.Session, ffmpegPath string, log zerolog.Logger) *VoiceTransport {
	ctx, cancel := context.WithCancel(context.Background())
	t := &VoiceTransport{
		session: s,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
		playing: make(map[string]*playback),
		openPCM: func(ctx context.Context, path string) (io.ReadCloser, error) {
			return stream.OpenPCM(ctx, ffmpegPath, path)
		},
		newEncoder: stream.NewOpusEncoder,
	}
	t.join = func(guildID, channelID string) (voiceConn, error) {
		vc, err := t.session.ChannelVoiceJoin(guildID, channelID, selfMute, selfDeaf)
		if err != nil {
			return nil, err
		}
		return dgVoice{vc: vc}, nil
	}
	return t
}

func handleOf(h player.VoiceHandle) (*voiceHandle, error) {
	vh, ok := h.(*voiceHandle)
	if !ok || vh == nil {
		return nil, errForeignHandle
	}
	return vh, nil
}

// Connect joins channelID. If ctx ends first the late connection is closed
// as soon as it arrives.
func (t *VoiceTransport) Connect(ctx context.Context, guildID, channelID string) (player.VoiceHandle, error) {
	type result struct {
		conn voiceConn
		err  error
	}
	done := make(chan result, 1)
	go func() {
		conn, err := t.join(guildID, channelID)
		done <- result{conn, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("join voice channel %s: %w", channelID, r.err)
		}
		return &voiceHandle{guildID: guildID, conn: r.conn}, nil
	case <-ctx.Done():
		go func() {
			if r := <-done; r.err == nil {
				_ = r.conn.Disconnect()
			}
		}()
		return nil, fmt.Errorf("join voice channel %s: %w", channelID, ctx.Err())
	}
}

func (t *VoiceTransport) Move(_ context.Context, h player.VoiceHandle, channelID string) error {
	vh, err := handleOf(h)
	if err != nil {
		return err
	}
	if err := vh.conn.ChangeChannel(channelID, selfMute, selfDeaf); err != nil {
		return fmt.Errorf("move to voice channel %s: %w", channelID, err)
	}
	return nil
}

// Play starts streaming audio and returns once the decoder is running.
// onComplete is called from the streaming goroutine when the track ends,
// is stopped or fails.
func (t *VoiceTransport) Play(h player.VoiceHandle, audio media.Audio, onComplete func(error)) error {
	vh, err := handleOf(h)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, busy := t.playing[vh.guildID]; busy {
		return errBusy
	}

	enc, err := t.newEncoder()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(t.ctx)
	pcm, err := t.openPCM(ctx, audio.Path)
	if err != nil {
		cancel()
		return fmt.Errorf("decode %s: %w", audio.Track.Display(), err)
	}

	log := t.log.With().Str("guild", vh.guildID).Str("track", audio.Track.Display()).Logger()
	pb := &playback{
		pump:   stream.NewPump(pcm, enc, vh.conn.Opus(), log),
		cancel: cancel,
	}
	t.playing[vh.guildID] = pb

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		err := t.stream(ctx, vh, pb, pcm)
		onComplete(err)
	}()
	return nil
}

func (t *VoiceTransport) stream(ctx context.Context, vh *voiceHandle, pb *playback, pcm io.Closer) error {
	defer func() {
		t.mu.Lock()
		if t.playing[vh.guildID] == pb {
			delete(t.playing, vh.guildID)
		}
		t.mu.Unlock()
		pb.cancel()
	}()

	if err := vh.conn.Speaking(true); err != nil {
		t.log.Warn().Err(err).Str("guild", vh.guildID).Msg("speaking on failed")
	}
	err := pb.pump.Run(ctx)
	if serr := vh.conn.Speaking(false); serr != nil {
		t.log.Debug().Err(serr).Str("guild", vh.guildID).Msg("speaking off failed")
	}
	if cerr := pcm.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("ffmpeg: %w", cerr)
	}
	return err
}

func (t *VoiceTransport) current(h player.VoiceHandle) (*playback, error) {
	vh, err := handleOf(h)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	pb, ok := t.playing[vh.guildID]
	if !ok {
		return nil, errIdle
	}
	return pb, nil
}

func (t *VoiceTransport) Pause(h player.VoiceHandle) error {
	pb, err := t.current(h)
	if err != nil {
		return err
	}
	pb.pump.Pause()
	return nil
}

func (t *VoiceTransport) Resume(h player.VoiceHandle) error {
	pb, err := t.current(h)
	if err != nil {
		return err
	}
	pb.pump.Resume()
	return nil
}

// Stop ends the current track; its completion callback still fires.
func (t *VoiceTransport) Stop(h player.VoiceHandle) error {
	pb, err := t.current(h)
	if errors.Is(err, errIdle) {
		return nil
	}
	if err != nil {
		return err
	}
	pb.pump.Stop()
	return nil
}

func (t *VoiceTransport) Disconnect(_ context.Context, h player.VoiceHandle) error {
	vh, err := handleOf(h)
	if err != nil {
		return err
	}
	if err := t.Stop(h); err != nil {
		return err
	}
	if err := vh.conn.Disconnect(); err != nil {
		return fmt.Errorf("leave voice channel: %w", err)
	}
	return nil
}

func (t *VoiceTransport) IsPlaying(h player.VoiceHandle) bool {
	pb, err := t.current(h)
	return err == nil && !pb.pump.Paused()
}

func (t *VoiceTransport) IsPaused(h player.VoiceHandle) bool {
	pb, err := t.current(h)
	return err == nil && pb.pump.Paused()
}

// MembersOf lists the users in a voice channel from the gateway state cache.
func (t *VoiceTransport) MembersOf(guildID, channelID string) ([]player.Member, error) {
	guild, err := t.session.State.Guild(guildID)
	if err != nil {
		return nil, fmt.Errorf("guild %s: %w", guildID, err)
	}

	t.session.State.RLock()
	states := make([]*discordgo.VoiceState, 0, len(guild.VoiceStates))
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID == channelID {
			states = append(states, vs)
		}
	}
	t.session.State.RUnlock()

	members := make([]player.Member, 0, len(states))
	for _, vs := range states {
		members = append(members, player.Member{ID: vs.UserID, Bot: t.isBot(guildID, vs)})
	}
	return members, nil
}

func (t *VoiceTransport) isBot(guildID string, vs *discordgo.VoiceState) bool {
	if vs.Member != nil && vs.Member.User != nil {
		return vs.Member.User.Bot
	}
	if m, err := t.session.State.Member(guildID, vs.UserID); err == nil && m.User != nil {
		return m.User.Bot
	}
	if u := t.session.State.User; u != nil && u.ID == vs.UserID {
		return true
	}
	return false
}

// Close stops every stream and waits for the streaming goroutines.
func (t *VoiceTransport) Close() {
	t.cancel()
	t.wg.Wait()
}
