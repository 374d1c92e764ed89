package postgrest

import (
	"errors"
	"fmt"
)

// StatusError carries a non-2xx response that is neither an auth rejection
// nor a handled conflict.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// IsDefinitiveReject reports whether err is a server-side rejection that
// retrying will not fix (a 4xx other than the ones mapped to sentinels).
// Transient failures and 5xx responses are not definitive.
func IsDefinitiveReject(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.Code >= 400 && se.Code < 500
}
