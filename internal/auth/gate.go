// Package auth decides whether a request may act on an account.
package auth

import (
	"errors"

	"margin-gateway/pkg/crypto"
	"margin-gateway/pkg/db"
)

// HeaderSecret is the request header carrying the account secret.
const HeaderSecret = "api_secret"

// ErrUnauthorized is returned by handlers when Authorize fails.
var ErrUnauthorized = errors.New("unauthorized")

// Authorize reports whether provided matches the account's secret.
// A nil account or empty secret never authorizes.
func Authorize(account *db.Account, provided string) bool {
	if account == nil || provided == "" {
		return false
	}
	return crypto.VerifySecret(account.SecretHash, provided)
}
