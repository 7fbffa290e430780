package player

import (
	"slices"
	"sync"
	"time"

	"github.com/keshon/badante/internal/music/media"
)

// State is the playback state of a guild session.
type State int

const (
	StateDisconnected State = iota
	StateIdle
	StatePlaying
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	default:
		return "Disconnected"
	}
}

// Session is the per-guild playback state. Every field is guarded by mu.
type Session struct {
	mu sync.Mutex

	guildID string
	queue   []media.Track
	history []media.Track
	current *media.Track
	state   State

	voice VoiceHandle

	// advancing is set while a pipeline resolves and fetches the next track
	// with mu released. At most one pipeline runs per guild.
	advancing bool
	// generation changes on every disconnect; pipelines and completions bound
	// to an older generation must not touch playback.
	generation uint64
	// evicted is set when the session is dropped from the registry; holders of
	// a stale pointer must look the guild up again.
	evicted bool
	// voiceOp is non-nil while a voice connect, move or leave runs with mu
	// released, and is closed when it finishes. Only one runs at a time.
	voiceOp chan struct{}

	aloneSince *time.Time
	idleSince  *time.Time

	textChannelID  string
	searches       *media.SearchResultSet
	playlists      *media.SearchResultSet
	disconnectedAt time.Time
}

func newSession(guildID string, now time.Time) *Session {
	return &Session{
		guildID:        guildID,
		state:          StateDisconnected,
		disconnectedAt: now,
	}
}

// GuildID returns the guild this session belongs to.
func (s *Session) GuildID() string { return s.guildID }

func (s *Session) pushFront(t media.Track) {
	s.queue = slices.Insert(s.queue, 0, t)
}

func (s *Session) popFront() (media.Track, bool) {
	if len(s.queue) == 0 {
		return media.Track{}, false
	}
	t := s.queue[0]
	s.queue = slices.Delete(s.queue, 0, 1)
	return t, true
}

func (s *Session) beginVoiceOp() chan struct{} {
	done := make(chan struct{})
	s.voiceOp = done
	return done
}

func (s *Session) endVoiceOp(done chan struct{}) {
	s.voiceOp = nil
	close(done)
}

func (s *Session) resetTimers() {
	s.aloneSince = nil
	s.idleSince = nil
}

// Snapshot is a read-only copy of a session.
type Snapshot struct {
	GuildID   string
	State     State
	ChannelID string
	Current   *media.Track
	Queue     []media.Track
	History   []media.Track
	Advancing bool
}

func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		GuildID:   s.guildID,
		State:     s.state,
		Queue:     slices.Clone(s.queue),
		History:   slices.Clone(s.history),
		Advancing: s.advancing,
	}
	if s.voice != nil {
		snap.ChannelID = s.voice.ChannelID()
	}
	if s.current != nil {
		cur := *s.current
		snap.Current = &cur
	}
	return snap
}
