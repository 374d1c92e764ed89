package models

import "strings"

// StarPrefix is the in-band marker for starred links: a leading star glyph
// on the title. It is a historical encoding kept at the data-model boundary;
// every write that does not intend to change star state must preserve the
// prefix verbatim.
const StarPrefix = "⭐ "

// WithStar returns title with the star marker applied. Idempotent.
func WithStar(title string) string {
	if IsStarred(title) {
		return title
	}
	return StarPrefix + title
}

// StripStar returns title with the star marker removed. Idempotent.
func StripStar(title string) string {
	if !IsStarred(title) {
		return title
	}
	return strings.TrimPrefix(strings.TrimPrefix(title, StarPrefix), strings.TrimSpace(StarPrefix))
}

// IsStarred reports whether title carries the star marker, with or without
// the trailing space.
func IsStarred(title string) bool {
	return strings.HasPrefix(title, strings.TrimSpace(StarPrefix))
}
