package common

// Secret names used in the secure credential store. Fixed so that
// independent processes (main CLI, share handlers) read what one wrote.
const (
	SecretAccessToken  = "access_token"
	SecretRefreshToken = "refresh_token"
	SecretExpiresAt    = "expires_at"
	SecretAccountEmail = "account_email"
	SecretAccountPass  = "account_password"
)
