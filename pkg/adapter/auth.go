// Request authentication for passive transports.
//
// The HTTP webhook runs all three checks (identity, HMAC signature,
// bearer token). The WebSocket server runs only identity and token:
// signature verification needs a fixed signable body, which only the
// HTTP path has.
package adapter

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/eya46/adapter-onebot/pkg/logger"
)

// AuthError is a rejected check: the HTTP status (or the close reason on
// the WebSocket path) plus a short plaintext message.
type AuthError struct {
	Status int
	Reason string
}

func (e *AuthError) Error() string { return e.Reason }

// checkSelfID extracts the required X-Self-ID header.
func checkSelfID(h http.Header) (string, *AuthError) {
	selfID := h.Get("X-Self-ID")
	if selfID == "" {
		logger.WarnC("auth", "Missing X-Self-ID Header")
		return "", &AuthError{Status: http.StatusBadRequest, Reason: "Missing X-Self-ID Header"}
	}
	return selfID, nil
}

// checkSignature verifies the X-Signature header: "sha1=" + hex of the
// HMAC-SHA1 of the raw body keyed with secret. A no-op when no secret is
// configured.
func checkSignature(secret string, h http.Header, body []byte) *AuthError {
	if secret == "" {
		return nil
	}

	signature := h.Get("X-Signature")
	if signature == "" {
		logger.WarnC("auth", "Missing Signature Header")
		return &AuthError{Status: http.StatusUnauthorized, Reason: "Missing Signature"}
	}

	if body == nil {
		logger.WarnC("auth", "Missing request body for signature check")
		return &AuthError{Status: http.StatusBadRequest, Reason: "Missing Content"}
	}

	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write(body)
	expected := "sha1=" + hex.EncodeToString(mac.Sum(nil))
	if subtle.ConstantTimeCompare([]byte(signature), []byte(expected)) != 1 {
		logger.WarnC("auth", "Signature Header is invalid")
		return &AuthError{Status: http.StatusForbidden, Reason: "Signature is invalid"}
	}
	return nil
}

// checkAccessToken verifies the bearer token from the Authorization
// header. A no-op when no access token is configured.
func checkAccessToken(accessToken string, h http.Header) *AuthError {
	if accessToken == "" {
		return nil
	}

	token := bearerToken(h.Get("Authorization"))
	if token == "" {
		logger.WarnC("auth", "Missing Authorization Header")
		return &AuthError{Status: http.StatusForbidden, Reason: "Missing Authorization Header"}
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(accessToken)) != 1 {
		logger.WarnC("auth", "Authorization Header is invalid")
		return &AuthError{Status: http.StatusForbidden, Reason: "Authorization Header is invalid"}
	}
	return nil
}

// bearerToken pulls the token out of an "Authorization: Bearer <token>"
// header value. "Token <token>" is accepted as a legacy alias.
func bearerToken(value string) string {
	for _, scheme := range []string{"Bearer ", "Token "} {
		if after, ok := strings.CutPrefix(value, scheme); ok {
			return strings.TrimSpace(after)
		}
	}
	return ""
}
