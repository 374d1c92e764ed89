package models

import "time"

// Session is the credential state owned by the credential manager. It is
// persisted to the secure store on every change and never exposed outside
// the manager except as the derived access token string.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// ValidAt reports whether the access token is still usable at now with the
// given safety margin before expiry.
func (s *Session) ValidAt(now time.Time, margin time.Duration) bool {
	return s.AccessToken != "" && s.ExpiresAt.After(now.Add(margin))
}
