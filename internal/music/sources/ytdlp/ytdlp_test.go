package ytdlp

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/keshon/badante/internal/music/media"
	"github.com/rs/zerolog"
)

func TestParseEntries(t *testing.T) {
	stdout := "dQw4w9WgXcQ\tNever Gonna Give You Up\thttps://www.youtube.com/watch?v=dQw4w9WgXcQ\t212.0\tNA\n" +
		"live1\tLofi Radio\tNA\tNA\tNA\n" +
		"PLabc\tRoad Trip\thttps://www.youtube.com/playlist?list=PLabc\tNA\tplaylist\n" +
		"garbage line\n"

	got := parseEntries(stdout)
	if len(got) != 3 {
		t.Fatalf("parsed %d entries, want 3", len(got))
	}

	if got[0].Title != "Never Gonna Give You Up" || got[0].DurationString() != "3:32" {
		t.Errorf("entry 0 = %+v", got[0])
	}
	if got[1].Locator != "https://www.youtube.com/watch?v=live1" || got[1].DurationString() != "LIVE" {
		t.Errorf("entry 1 = %+v", got[1])
	}
	if got[2].Kind != media.KindPlaylist || got[2].Locator != "https://www.youtube.com/playlist?list=PLabc" {
		t.Errorf("entry 2 = %+v", got[2])
	}
}

func TestParseEntriesEmpty(t *testing.T) {
	if got := parseEntries(""); len(got) != 0 {
		t.Fatalf("parsed %d entries from empty output", len(got))
	}
}

func TestFindAudioFile(t *testing.T) {
	dir := t.TempDir()
	if _, _, err := findAudioFile(dir); !errors.Is(err, errNoAudioFile) {
		t.Fatalf("empty dir: err = %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "x.webm.part"), []byte("12"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := findAudioFile(dir); !errors.Is(err, errNoAudioFile) {
		t.Fatalf("partial only: err = %v", err)
	}

	want := filepath.Join(dir, "x.webm")
	if err := os.WriteFile(want, []byte("12345"), 0o600); err != nil {
		t.Fatal(err)
	}
	path, size, err := findAudioFile(dir)
	if err != nil || path != want || size != 5 {
		t.Fatalf("findAudioFile = %q, %d, %v", path, size, err)
	}
}

func TestMatch(t *testing.T) {
	s := New(Options{}, zerolog.Nop())
	if !s.Match("https://soundcloud.com/a/b") {
		t.Error("url not matched")
	}
	if s.Match("some query") {
		t.Error("query matched")
	}
}
