// Package secrets implements the secure credential store: opaque named
// secrets in a process-shared table, the only place tokens are persisted.
package secrets

import "context"

// Repository stores opaque named secrets. Names are fixed constants
// (see internal/common) so independent processes read what one wrote.
type Repository interface {
	// Get returns the secret by name, or common.ErrNotFound.
	Get(ctx context.Context, name string) (string, error)

	// Set stores (or replaces) the secret.
	Set(ctx context.Context, name string, value string) error

	// Delete removes the secret. Deleting an absent secret is not an error.
	Delete(ctx context.Context, name string) error

	// Clear removes every stored secret.
	Clear(ctx context.Context) error
}
