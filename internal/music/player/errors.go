package player

import (
	"errors"
	"fmt"
)

var (
	ErrNotInVoiceChannel = errors.New("not in a voice channel")
	ErrNoActiveSearch    = errors.New("no active search")
	ErrInvalidIndex      = errors.New("invalid index")
	ErrNoResults         = errors.New("no results")
	ErrSearchFailure     = errors.New("search failed")
	ErrResolutionFailure = errors.New("resolution failed")
	ErrFetchFailure      = errors.New("fetch failed")
	ErrPlaybackFailure   = errors.New("playback failed")
	ErrNotConnected      = errors.New("not connected")
	ErrNothingPlaying    = errors.New("nothing is playing")
	ErrNothingPaused     = errors.New("nothing is paused")
	ErrNoPreviousTrack   = errors.New("no previous track")
)

// opError tags a collaborator failure with one of the sentinels above so
// errors.Is matches both the sentinel and the underlying cause.
type opError struct {
	kind  error
	cause error
}

func (e *opError) Error() string   { return e.kind.Error() + ": " + e.cause.Error() }
func (e *opError) Unwrap() []error { return []error{e.kind, e.cause} }

func wrap(kind, cause error) error {
	if cause == nil {
		return kind
	}
	return &opError{kind: kind, cause: cause}
}

// cause returns the collaborator error behind a wrapped sentinel, or err itself.
func cause(err error) error {
	var op *opError
	if errors.As(err, &op) {
		return op.cause
	}
	return err
}

// UserMessage turns an error returned by the controller into the reply shown
// in chat.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotInVoiceChannel):
		return "❌ You must be in a voice channel."
	case errors.Is(err, ErrNoActiveSearch), errors.Is(err, ErrInvalidIndex):
		return "⚠️ Invalid index or no search."
	case errors.Is(err, ErrNoResults):
		return "⚠️ No results."
	case errors.Is(err, ErrSearchFailure):
		return fmt.Sprintf("❌ Search error: %v", cause(err))
	case errors.Is(err, ErrResolutionFailure):
		return fmt.Sprintf("❌ URL error: %v", cause(err))
	case errors.Is(err, ErrFetchFailure):
		return fmt.Sprintf("❌ Download error: %v", cause(err))
	case errors.Is(err, ErrPlaybackFailure):
		return fmt.Sprintf("❌ Audio error: %v", cause(err))
	case errors.Is(err, ErrNotConnected):
		return "🔇 The bot is not connected."
	case errors.Is(err, ErrNothingPlaying):
		return "⏭️ Nothing is playing."
	case errors.Is(err, ErrNothingPaused):
		return "⚠️ No song is paused."
	case errors.Is(err, ErrNoPreviousTrack):
		return "⏮️ No previous track."
	default:
		return fmt.Sprintf("❌ Error: %v", err)
	}
}
