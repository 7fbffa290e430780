package discord

import (
	"strings"
)

// WordFilter matches messages containing any of a list of words,
// case-insensitively and anywhere in the text.
type WordFilter struct {
	words []string
}

func NewWordFilter(words []string) *WordFilter {
	f := &WordFilter{}
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			f.words = append(f.words, w)
		}
	}
	return f
}

// Match returns the first filtered word found in content.
func (f *WordFilter) Match(content string) (string, bool) {
	if f == nil || len(f.words) == 0 {
		return "", false
	}
	lower := strings.ToLower(content)
	for _, w := range f.words {
		if strings.Contains(lower, w) {
			return w, true
		}
	}
	return "", false
}
