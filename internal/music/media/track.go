package media

import (
	"fmt"
	"time"
)

// Kind tells whether a Track points at a single item or at a playlist.
type Kind int

const (
	KindVideo Kind = iota
	KindPlaylist
)

// Track describes one playable item. It is a comparable value type and is
// never mutated after creation.
type Track struct {
	ID      string
	Title   string
	Locator string
	Kind    Kind
	// Duration is zero when unknown (live streams, flat playlist entries).
	Duration time.Duration
}

// NewTrack builds a Track. A non-positive duration is treated as unknown.
func NewTrack(id, title, locator string, duration time.Duration) Track {
	return Track{ID: id, Title: title, Locator: locator, Duration: max(duration, 0)}
}

// Length returns the duration and whether it is known.
func (t Track) Length() (time.Duration, bool) {
	return t.Duration, t.Duration > 0
}

// DurationSeconds returns the duration in whole seconds if it is known.
func (t Track) DurationSeconds() (int, bool) {
	d, ok := t.Length()
	if !ok {
		return 0, false
	}
	return int(d.Seconds()), true
}

// Display returns a human readable name: the title, falling back to the locator.
func (t Track) Display() string {
	if t.Title != "" {
		return t.Title
	}
	if t.Locator != "" {
		return t.Locator
	}
	return "Unknown"
}

// DurationString formats the duration as m:ss or h:mm:ss, or LIVE when unknown.
func (t Track) DurationString() string {
	secs, ok := t.DurationSeconds()
	if !ok {
		return "LIVE"
	}
	h, m, s := secs/3600, (secs%3600)/60, secs%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// Audio is a fetched, locally available resource ready for the transport.
type Audio struct {
	Track Track
	Path  string
	Size  int64
}
