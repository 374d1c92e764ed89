package cli

import (
	"context"
	"fmt"

	"github.com/andrejsm/readsync/internal/models"
)

// Save queues a new link. The URL is saved as typed; the backend resolves
// redirects on its side.
func (a *App) Save(ctx context.Context, url, title string) error {
	if err := a.links.Save(ctx, url, title, models.StatusUnread); err != nil {
		fmt.Fprintf(a.out, "Save failed: %v\n", err)
		return err
	}
	fmt.Fprintln(a.out, "Saved")
	return nil
}

func (a *App) SetStatus(ctx context.Context, arg string, read bool) error {
	link, err := a.itemAt(arg)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}

	status := models.StatusUnread
	if read {
		status = models.StatusRead
	}
	if err := a.links.SetStatus(ctx, link.ID, status); err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	fmt.Fprintf(a.out, "Marked %s: %s\n", status, link.DisplayTitle())
	return nil
}

func (a *App) SetStarred(ctx context.Context, arg string, starred bool) error {
	link, err := a.itemAt(arg)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}

	if err := a.links.SetStarred(ctx, link.ID, starred); err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	if starred {
		fmt.Fprintf(a.out, "Starred: %s\n", link.DisplayTitle())
	} else {
		fmt.Fprintf(a.out, "Unstarred: %s\n", link.DisplayTitle())
	}
	return nil
}

func (a *App) Delete(ctx context.Context, arg string) error {
	link, err := a.itemAt(arg)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}

	if err := a.links.Delete(ctx, link.ID); err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	fmt.Fprintf(a.out, "Deleted: %s\n", link.DisplayTitle())
	return nil
}
