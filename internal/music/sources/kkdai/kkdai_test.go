package kkdai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/keshon/badante/internal/music/media"
	"github.com/keshon/badante/internal/music/sources"
	youtube "github.com/kkdai/youtube/v2"
	"github.com/rs/zerolog"
)

func TestScrapeVideoIDs(t *testing.T) {
	body := `{"url":"/watch?v=dQw4w9WgXcQ&pp=x"},{"url":"/watch?v=9bZkp7q19f0"},{"url":"/watch?v=dQw4w9WgXcQ"},{"url":"/watch?v=short"}`
	got := scrapeVideoIDs(body)
	if !slices.Equal(got, []string{"dQw4w9WgXcQ", "9bZkp7q19f0"}) {
		t.Fatalf("ids = %v", got)
	}
}

func TestBestAudioPrefersAudioOnly(t *testing.T) {
	formats := youtube.FormatList{
		{ItagNo: 18, MimeType: `video/mp4; codecs="avc1.42001E, mp4a.40.2"`, Bitrate: 500000, AudioChannels: 2},
		{ItagNo: 140, MimeType: `audio/mp4; codecs="mp4a.40.2"`, Bitrate: 128000, AudioChannels: 2},
		{ItagNo: 251, MimeType: `audio/webm; codecs="opus"`, Bitrate: 160000, AudioChannels: 2},
		{ItagNo: 137, MimeType: `video/mp4; codecs="avc1.640028"`, Bitrate: 4000000},
	}
	f, err := bestAudio(formats)
	if err != nil {
		t.Fatalf("bestAudio: %v", err)
	}
	if f.ItagNo != 251 {
		t.Fatalf("itag = %d, want 251", f.ItagNo)
	}
	if ext := extension(f.MimeType); ext != ".webm" {
		t.Fatalf("extension = %q", ext)
	}

	if _, err := bestAudio(youtube.FormatList{formats[3]}); !errors.Is(err, ErrNoAudioFormat) {
		t.Fatalf("video only: err = %v", err)
	}
}

func TestSearchWithoutResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/results" || r.URL.Query().Get("search_query") != "nothing here" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("<html>no videos</html>"))
	}))
	defer srv.Close()

	s := New(&youtube.Client{HTTPClient: srv.Client()}, zerolog.Nop())
	s.baseURL = srv.URL

	if _, err := s.Search(context.Background(), "nothing here", 5); !errors.Is(err, ErrNoVideoMatch) {
		t.Fatalf("err = %v, want ErrNoVideoMatch", err)
	}
}

func TestUnsupportedOperations(t *testing.T) {
	s := New(nil, zerolog.Nop())

	if _, err := s.SearchPlaylists(context.Background(), "mix", 5); !errors.Is(err, sources.ErrUnsupported) {
		t.Fatalf("SearchPlaylists err = %v", err)
	}
	if _, err := s.Resolve(context.Background(), "https://soundcloud.com/a/b"); !errors.Is(err, sources.ErrUnsupported) {
		t.Fatalf("Resolve err = %v", err)
	}
	track := media.NewTrack("x", "x", "https://example.com/x.mp3", 0)
	if _, err := s.Fetch(context.Background(), track, t.TempDir()); !errors.Is(err, sources.ErrUnsupported) {
		t.Fatalf("Fetch err = %v", err)
	}
}

func TestNewClientProxySchemes(t *testing.T) {
	log := zerolog.Nop()
	if c := NewClient("", log); c.HTTPClient.Transport != nil {
		t.Error("direct client has a custom transport")
	}
	if c := NewClient("http://127.0.0.1:3128", log); c.HTTPClient.Transport == nil {
		t.Error("http proxy not applied")
	}
	if c := NewClient("socks5://127.0.0.1:1080", log); c.HTTPClient.Transport == nil {
		t.Error("socks5 proxy not applied")
	}
	if c := NewClient("ftp://127.0.0.1", log); c.HTTPClient.Transport != nil {
		t.Error("unsupported scheme not ignored")
	}
}
