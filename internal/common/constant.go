// Package common contains shared constants and sentinel errors used across
// codeimages components.
package common

const (
	// TokenType is returned alongside access tokens and expected as the
	// Authorization scheme on authenticated requests.
	TokenType = "bearer"

	// RequestIDHeader carries the request id assigned by the HTTP layer.
	RequestIDHeader = "X-Request-ID"
)
