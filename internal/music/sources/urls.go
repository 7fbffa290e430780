package sources

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var youtubeRegex = regexp.MustCompile(`^(?:https?://)?(?:www\.|m\.|music\.)?(youtube\.com|youtu\.be)/\S+`)

func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func IsYouTubeURL(s string) bool {
	return youtubeRegex.MatchString(s)
}

// IsPlaylistURL reports whether s points at a playlist rather than a video
// that happens to carry a list parameter.
func IsPlaylistURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Path == "/playlist" && u.Query().Get("list") != ""
}

// CleanVideoURL strips everything but the video id from a YouTube watch URL.
func CleanVideoURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	host := u.Hostname()
	switch host {
	case "youtu.be":
		vid := strings.Trim(u.Path, "/")
		if vid == "" {
			return raw
		}
		return WatchURL(vid)
	case "www.youtube.com", "youtube.com", "m.youtube.com", "music.youtube.com":
		if u.Path == "/watch" {
			if vid := u.Query().Get("v"); vid != "" {
				return WatchURL(vid)
			}
		}
	}
	return raw
}

func WatchURL(id string) string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", id)
}

func PlaylistURL(id string) string {
	return fmt.Sprintf("https://www.youtube.com/playlist?list=%s", id)
}

// Dedupe drops repeated ids keeping the first occurrence.
func Dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
