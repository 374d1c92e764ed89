package models

import "time"

// PageCursor is a compound keyset pagination position: the sort key of the
// last row seen, ordered by (updated_at desc, id desc). The id tiebreaker is
// required because bulk mutations can leave many rows with equal timestamps.
// A nil cursor means the start of the result set.
type PageCursor struct {
	UpdatedAt time.Time
	ID        string
}

// Filter narrows a link listing. A nil Status matches both states.
type Filter struct {
	Status *Status
}

// Equal reports whether two filters select the same rows. Changing the
// active filter invalidates the cursor and the accumulated items.
func (f Filter) Equal(other Filter) bool {
	if (f.Status == nil) != (other.Status == nil) {
		return false
	}
	return f.Status == nil || *f.Status == *other.Status
}
