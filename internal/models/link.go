// Package models defines the client-side data model: saved links, queued
// mutation intents, the auth session and the pagination cursor.
package models

import "time"

// Status is the read-state of a saved link.
type Status string

const (
	StatusUnread Status = "unread"
	StatusRead   Status = "read"
)

// Valid reports whether s is one of the known states.
func (s Status) Valid() bool {
	return s == StatusUnread || s == StatusRead
}

// Link is a saved URL as materialized from the backend.
//
// Identity is the server-side id, but for queue conflict resolution a link
// is uniquely identified by (OwnerID, RawURL): the backend enforces a
// unique constraint on that pair.
type Link struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	RawURL      string     `json:"raw_url"`
	ResolvedURL *string    `json:"resolved_url,omitempty"`
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      Status     `json:"status"`
	DeviceSaved string     `json:"device_saved,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// DisplayTitle returns the title without the star marker, falling back to
// the raw URL when no title is set.
func (l *Link) DisplayTitle() string {
	if l.Title == nil || *l.Title == "" {
		return l.RawURL
	}
	return StripStar(*l.Title)
}

// Starred reports whether the link's title carries the star marker.
func (l *Link) Starred() bool {
	return l.Title != nil && IsStarred(*l.Title)
}
