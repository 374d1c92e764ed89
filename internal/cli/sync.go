package cli

import (
	"context"
	"fmt"
)

// Sync forces a full queue drain right now.
func (a *App) Sync(ctx context.Context) error {
	if err := a.engine.Drain(ctx); err != nil {
		fmt.Fprintf(a.out, "Sync failed: %v\n", err)
		return err
	}
	fmt.Fprintln(a.out, "Sync complete")
	return nil
}

// Status reports backend reachability and the pending queue depth.
func (a *App) Status(ctx context.Context) error {
	pending, err := a.links.PendingCount(ctx)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	fmt.Fprintf(a.out, "Pending mutations: %d\n", pending)

	if err := a.client.Ping(ctx); err != nil {
		fmt.Fprintf(a.out, "Server: unreachable (%v)\n", err)
	} else {
		fmt.Fprintln(a.out, "Server: ok")
	}
	return nil
}
