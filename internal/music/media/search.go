package media

import "errors"

var (
	ErrIndexOutOfRange = errors.New("index out of range")
)

// SearchResultSet is the numbered list of candidates produced by the last
// search in a guild. A new search replaces it entirely.
type SearchResultSet struct {
	GuildID string
	Entries []Track
}

// NewSearchResultSet copies entries so later changes to the caller's slice do
// not leak into the set.
func NewSearchResultSet(guildID string, entries []Track) *SearchResultSet {
	cp := make([]Track, len(entries))
	copy(cp, entries)
	return &SearchResultSet{GuildID: guildID, Entries: cp}
}

// Select returns the entry at the 1-based index.
func (s *SearchResultSet) Select(index int) (Track, error) {
	if s == nil || index < 1 || index > len(s.Entries) {
		return Track{}, ErrIndexOutOfRange
	}
	return s.Entries[index-1], nil
}

// Len returns the number of entries.
func (s *SearchResultSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Entries)
}
