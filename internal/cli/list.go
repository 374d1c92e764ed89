package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/andrejsm/readsync/internal/common"
	"github.com/andrejsm/readsync/internal/models"
)

// List restarts the current filter from the top and shows the first page.
// When the backend is unreachable the locally cached copies are shown
// instead, marked as such.
func (a *App) List(ctx context.Context) error {
	items, err := a.links.Refresh(ctx)
	if err != nil {
		if errors.Is(err, common.ErrUnavailable) {
			return a.listOffline(ctx)
		}
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}

	a.printLinks(items, 0)
	if a.links.HasMore() {
		fmt.Fprintln(a.out, "(type 'more' for the next page)")
	}
	return nil
}

// More appends the next page to the list.
func (a *App) More(ctx context.Context) error {
	if !a.links.HasMore() {
		fmt.Fprintln(a.out, "No more items")
		return nil
	}

	offset := len(a.links.CurrentItems())
	items, err := a.links.FetchPage(ctx)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	a.printLinks(items, offset)
	return nil
}

// Filter switches between unread, read and all, then reloads the list.
func (a *App) Filter(ctx context.Context, arg string) error {
	switch arg {
	case "unread":
		s := models.StatusUnread
		a.links.SetFilter(models.Filter{Status: &s})
	case "read":
		s := models.StatusRead
		a.links.SetFilter(models.Filter{Status: &s})
	case "all":
		a.links.SetFilter(models.Filter{})
	default:
		fmt.Fprintf(a.out, "Unknown filter %q, expected unread|read|all\n", arg)
		return nil
	}
	return a.List(ctx)
}

func (a *App) listOffline(ctx context.Context) error {
	fmt.Fprintln(a.out, "Server unavailable, showing cached copies")
	items, err := a.links.CachedItems(ctx, a.config.PageSize)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	a.printLinks(items, 0)
	return nil
}

func (a *App) printLinks(items []models.Link, offset int) {
	if len(items) == 0 && offset == 0 {
		fmt.Fprintln(a.out, "Nothing saved yet")
		return
	}
	for i, l := range items {
		marker := " "
		if l.Starred() {
			marker = "*"
		}
		status := " "
		if l.Status == models.StatusUnread {
			status = "u"
		}
		fmt.Fprintf(a.out, "%3d %s%s %s\n    %s\n", offset+i+1, marker, status, l.DisplayTitle(), l.RawURL)
	}
}

// itemAt resolves a 1-based list position from a command argument.
func (a *App) itemAt(arg string) (*models.Link, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return nil, fmt.Errorf("not a list position: %q", arg)
	}
	items := a.links.CurrentItems()
	if n < 1 || n > len(items) {
		return nil, fmt.Errorf("no item %d, list has %d", n, len(items))
	}
	return &items[n-1], nil
}
