package gateway

import (
	"crypto/hmac"
	"net/url"

	"tradingbot_go/internal/domain"
)

// Authorize verifies the webhook credential against the configured secret.
// An empty secret disables auth entirely (opt-in via configuration).
//
// The credential is read from, in order of precedence: query param "key",
// query param "token", payload field "key", payload field "secret" — first
// non-empty value wins. Comparison is constant-time.
func Authorize(payload domain.AlertPayload, query url.Values, secret string) bool {
	if secret == "" {
		return true
	}

	provided := query.Get("key")
	if provided == "" {
		provided = query.Get("token")
	}
	if provided == "" {
		provided = payload.Field("key")
	}
	if provided == "" {
		provided = payload.Field("secret")
	}

	return hmac.Equal([]byte(provided), []byte(secret))
}
