package postgrest

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/andrejsm/readsync/internal/models"
)

// Query describes one page of the links collection: owner scope, optional
// status filter, keyset cursor and page size.
type Query struct {
	OwnerID string
	Status  *models.Status
	Cursor  *models.PageCursor
	Limit   int
}

// Values renders the query as PostgREST parameters. Rows are ordered by
// (updated_at desc nullslast, id desc); when a cursor is present only rows
// strictly after it in that ordering are selected:
//
//	updated_at < ts OR (updated_at = ts AND id < last_id)
func (q Query) Values() url.Values {
	v := url.Values{}
	v.Set("select", "*")
	v.Set("order", "updated_at.desc.nullslast,id.desc")
	v.Set("limit", strconv.Itoa(q.Limit))
	v.Set("owner_id", "eq."+q.OwnerID)

	if q.Status != nil {
		v.Set("status", "eq."+string(*q.Status))
	}

	if q.Cursor != nil {
		ts := q.Cursor.UpdatedAt.UTC().Format(time.RFC3339Nano)
		v.Set("or", fmt.Sprintf("(updated_at.lt.%s,and(updated_at.eq.%s,id.lt.%s))",
			ts, ts, q.Cursor.ID))
	}
	return v
}
