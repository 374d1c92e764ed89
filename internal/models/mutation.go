package models

import "time"

// MutationKind tags a queued local intent.
type MutationKind string

const (
	MutationSaveUnread MutationKind = "save_unread"
	MutationSaveRead   MutationKind = "save_read"
	MutationSetStatus  MutationKind = "set_status"
	MutationSetStarred MutationKind = "set_starred"
	MutationDelete     MutationKind = "delete"
)

// MutationRecord is a durable user intent, persisted until the sync engine
// confirms it applied on the backend. Records are never mutated in place:
// a newer intent for the same (kind class, target) replaces the older one
// at enqueue time.
type MutationRecord struct {
	// ID identifies the record within the queue, not the link.
	ID   string
	Kind MutationKind

	// RawURL targets save intents, issued before the link necessarily
	// exists remotely. LinkID targets intents against a known link.
	RawURL string
	LinkID string

	// Title is the optimistic title captured at save time, if any.
	Title string

	// Status is the payload for MutationSetStatus and the initial state
	// for saves. Starred is the payload for MutationSetStarred.
	Status  Status
	Starred bool

	// EnqueuedAt orders the queue locally. Never sent to the server.
	EnqueuedAt time.Time
}

// KindClass groups kinds for deduplication: both save variants supersede
// each other, every other kind only supersedes itself.
func (m *MutationRecord) KindClass() string {
	switch m.Kind {
	case MutationSaveUnread, MutationSaveRead:
		return "save"
	default:
		return string(m.Kind)
	}
}

// Target is the dedup key within a kind class: the raw URL for saves,
// the link id otherwise.
func (m *MutationRecord) Target() string {
	switch m.Kind {
	case MutationSaveUnread, MutationSaveRead:
		return m.RawURL
	default:
		return m.LinkID
	}
}
