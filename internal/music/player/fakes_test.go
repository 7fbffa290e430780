package player

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/keshon/badante/internal/music/media"
	"github.com/rs/zerolog"
)

type fakeHandle struct {
	guild   string
	channel string
}

func (h *fakeHandle) GuildID() string   { return h.guild }
func (h *fakeHandle) ChannelID() string { return h.channel }

type fakePlayback struct {
	audio  media.Audio
	done   func(error)
	paused bool
}

type fakeTransport struct {
	mu sync.Mutex

	members    map[string][]Member
	membersErr error

	connectErr    error
	playErr       error
	pauseErr      error
	resumeErr     error
	disconnectErr error

	playing map[string]*fakePlayback
	stale   map[string]*fakePlayback
	played  []string
	stops   int

	connects    int
	disconnects int

	// when gate is set Connect and Disconnect report on entered and wait for gate.
	gate    chan struct{}
	entered chan struct{}
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		members: make(map[string][]Member),
		playing: make(map[string]*fakePlayback),
		stale:   make(map[string]*fakePlayback),
	}
}

func (f *fakeTransport) wait(ctx context.Context) error {
	f.mu.Lock()
	gate, entered := f.gate, f.entered
	f.mu.Unlock()
	if gate == nil {
		return nil
	}
	entered <- struct{}{}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeTransport) Connect(ctx context.Context, guildID, channelID string) (VoiceHandle, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connectErr != nil {
		return nil, f.connectErr
	}
	f.connects++
	return &fakeHandle{guild: guildID, channel: channelID}, nil
}

func (f *fakeTransport) Move(_ context.Context, h VoiceHandle, channelID string) error {
	h.(*fakeHandle).channel = channelID
	return nil
}

func (f *fakeTransport) Play(h VoiceHandle, audio media.Audio, onComplete func(error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.playErr != nil {
		return f.playErr
	}
	f.playing[h.GuildID()] = &fakePlayback{audio: audio, done: onComplete}
	f.played = append(f.played, audio.Track.ID)
	return nil
}

func (f *fakeTransport) Pause(h VoiceHandle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pauseErr != nil {
		return f.pauseErr
	}
	if p := f.playing[h.GuildID()]; p != nil {
		p.paused = true
	}
	return nil
}

func (f *fakeTransport) Resume(h VoiceHandle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resumeErr != nil {
		return f.resumeErr
	}
	if p := f.playing[h.GuildID()]; p != nil {
		p.paused = false
	}
	return nil
}

// Stop only records the call; tests deliver the completion with finish.
func (f *fakeTransport) Stop(VoiceHandle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return nil
}

func (f *fakeTransport) Disconnect(ctx context.Context, h VoiceHandle) error {
	if err := f.wait(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.disconnectErr != nil {
		return f.disconnectErr
	}
	f.disconnects++
	if p := f.playing[h.GuildID()]; p != nil {
		f.stale[h.GuildID()] = p
		delete(f.playing, h.GuildID())
	}
	return nil
}

func (f *fakeTransport) MembersOf(_, channelID string) ([]Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.membersErr != nil {
		return nil, f.membersErr
	}
	return f.members[channelID], nil
}

func (f *fakeTransport) IsPlaying(h VoiceHandle) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.playing[h.GuildID()]
	return p != nil && !p.paused
}

func (f *fakeTransport) IsPaused(h VoiceHandle) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.playing[h.GuildID()]
	return p != nil && p.paused
}

func (f *fakeTransport) setMembers(channelID string, members ...Member) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[channelID] = members
}

func (f *fakeTransport) hold() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
	f.entered = make(chan struct{})
}

func (f *fakeTransport) release() {
	f.mu.Lock()
	gate := f.gate
	f.gate = nil
	f.mu.Unlock()
	close(gate)
}

func (f *fakeTransport) awaitEntered(t *testing.T) {
	t.Helper()
	select {
	case <-f.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("transport call never started")
	}
}

func (f *fakeTransport) setPlayErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playErr = err
}

// finish ends the guild's current playback the way the streaming goroutine would.
func (f *fakeTransport) finish(t *testing.T, guildID string, err error) {
	t.Helper()
	f.mu.Lock()
	p := f.playing[guildID]
	delete(f.playing, guildID)
	f.mu.Unlock()
	if p == nil {
		t.Fatalf("no playback for guild %s", guildID)
	}
	p.done(err)
}

// finishStale delivers the completion of a playback cut short by Disconnect.
func (f *fakeTransport) finishStale(t *testing.T, guildID string) {
	t.Helper()
	f.mu.Lock()
	p := f.stale[guildID]
	delete(f.stale, guildID)
	f.mu.Unlock()
	if p == nil {
		t.Fatalf("no stale playback for guild %s", guildID)
	}
	p.done(errors.New("stream closed"))
}

func (f *fakeTransport) playedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.played...)
}

type fakeResolver struct {
	mu        sync.Mutex
	failFetch map[string]bool
	results   []media.Track
	playlists []media.Track
	resolved  map[string][]media.Track
	searchErr error

	// when block is set Fetch reports on started and waits for block.
	started chan string
	block   chan struct{}
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		failFetch: make(map[string]bool),
		resolved:  make(map[string][]media.Track),
	}
}

func (r *fakeResolver) Resolve(_ context.Context, locator string) ([]media.Track, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tracks, ok := r.resolved[locator]
	if !ok {
		return nil, errors.New("unsupported url")
	}
	return tracks, nil
}

func (r *fakeResolver) Search(context.Context, string, int) ([]media.Track, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.results, r.searchErr
}

func (r *fakeResolver) SearchPlaylists(context.Context, string, int) ([]media.Track, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playlists, r.searchErr
}

func (r *fakeResolver) Fetch(ctx context.Context, t media.Track, dir string) (media.Audio, error) {
	if r.block != nil {
		r.started <- t.ID
		select {
		case <-r.block:
		case <-ctx.Done():
			return media.Audio{}, ctx.Err()
		}
	}

	r.mu.Lock()
	fail := r.failFetch[t.ID]
	r.mu.Unlock()
	if fail {
		return media.Audio{}, errors.New("http 403")
	}

	path := filepath.Join(dir, t.ID+".webm")
	if err := os.WriteFile(path, []byte("audio"), 0o600); err != nil {
		return media.Audio{}, err
	}
	return media.Audio{Track: t, Path: path, Size: 5}, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (n *fakeNotifier) Notify(_, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, message)
}

func (n *fakeNotifier) messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.msgs...)
}

type harness struct {
	c       *Controller
	tr      *fakeTransport
	res     *fakeResolver
	note    *fakeNotifier
	scratch string
}

const (
	testGuild   = "g1"
	testVoice   = "voice-1"
	testText    = "text-1"
	testUserID  = "u1"
	otherVoice  = "voice-2"
	testBotUser = "bot"
)

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		tr:      newFakeTransport(),
		res:     newFakeResolver(),
		note:    &fakeNotifier{},
		scratch: t.TempDir(),
	}
	h.c = NewController(h.res, h.tr, h.note, zerolog.Nop(), Options{ScratchParent: h.scratch})
	h.tr.setMembers(testVoice, Member{ID: testBotUser, Bot: true}, Member{ID: testUserID})
	h.c.SetTextChannel(testGuild, testText)
	return h
}

func (h *harness) connect(t *testing.T) {
	t.Helper()
	if _, err := h.c.EnsureVoice(context.Background(), testGuild, testVoice); err != nil {
		t.Fatalf("EnsureVoice: %v", err)
	}
}

func (h *harness) scratchDirs(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(h.scratch)
	if err != nil {
		t.Fatalf("read scratch parent: %v", err)
	}
	return len(entries)
}

func track(id string) media.Track {
	return media.NewTrack(id, "Title "+id, "https://www.youtube.com/watch?v="+id, 3*time.Minute)
}

func trackIDs(tracks []media.Track) []string {
	ids := make([]string, 0, len(tracks))
	for _, t := range tracks {
		ids = append(ids, t.ID)
	}
	return ids
}

func tracks(ids ...string) []media.Track {
	out := make([]media.Track, 0, len(ids))
	for _, id := range ids {
		out = append(out, track(id))
	}
	return out
}
