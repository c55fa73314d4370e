// Package models contains the plain data records exchanged between
// repositories, services and transports.
package models

import "time"

// Account is a registered user. PasswordHash and ActivationKey never leave
// the server.
type Account struct {
	ID              string     `json:"id"`
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	ActivationKey   string     `json:"-"`
	KeyExpires      *time.Time `json:"key_expires,omitempty"`
	Verified        bool       `json:"verified"`
	Active          bool       `json:"active"`
	Premium         bool       `json:"premium"`
	PremiumDayLimit int        `json:"premium_day_limit"`
	CreatedAt       time.Time  `json:"created_at"`
}

// MaxDailySnippets is the number of snippets the account may create per UTC
// day: its own limit when premium, otherwise the global free limit.
func (a *Account) MaxDailySnippets(freeDailyLimit int) int {
	if a.Premium {
		return a.PremiumDayLimit
	}
	return freeDailyLimit
}

// KeyExpired reports whether the activation key has expired at now.
// A nil expiry never expires.
func (a *Account) KeyExpired(now time.Time) bool {
	return a.KeyExpires != nil && now.UTC().After(a.KeyExpires.UTC())
}
