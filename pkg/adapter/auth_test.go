package adapter

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write(body)
	return "sha1=" + hex.EncodeToString(mac.Sum(nil))
}

func TestCheckSelfID(t *testing.T) {
	h := http.Header{}
	_, err := checkSelfID(h)
	require.NotNil(t, err)
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.Equal(t, "Missing X-Self-ID Header", err.Reason)

	h.Set("X-Self-ID", "123")
	selfID, err := checkSelfID(h)
	require.Nil(t, err)
	assert.Equal(t, "123", selfID)
}

func TestCheckSignature(t *testing.T) {
	secret := "top-secret"
	body := []byte(`{"post_type":"message"}`)

	tests := []struct {
		name       string
		secret     string
		signature  string
		body       []byte
		wantStatus int
	}{
		{
			name:   "no secret configured passes anything",
			secret: "",
			body:   body,
		},
		{
			name:       "missing signature header",
			secret:     secret,
			body:       body,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing body",
			secret:     secret,
			signature:  sign(secret, nil),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:      "valid signature",
			secret:    secret,
			signature: sign(secret, body),
			body:      body,
		},
		{
			name:       "signature over different body",
			secret:     secret,
			signature:  sign(secret, []byte(`{}`)),
			body:       body,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "signature with wrong prefix",
			secret:     secret,
			signature:  "sha256=" + sign(secret, body)[5:],
			body:       body,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "signature with wrong key",
			secret:     secret,
			signature:  sign("other-secret", body),
			body:       body,
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.signature != "" {
				h.Set("X-Signature", tt.signature)
			}
			err := checkSignature(tt.secret, h, tt.body)
			if tt.wantStatus == 0 {
				assert.Nil(t, err)
			} else {
				require.NotNil(t, err)
				assert.Equal(t, tt.wantStatus, err.Status)
			}
		})
	}
}

func TestCheckAccessToken(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		header     string
		wantReason string
	}{
		{name: "no token configured", token: "", header: ""},
		{name: "valid bearer", token: "tok", header: "Bearer tok"},
		{name: "valid legacy scheme", token: "tok", header: "Token tok"},
		{name: "missing header", token: "tok", header: "", wantReason: "Missing Authorization Header"},
		{name: "wrong token", token: "tok", header: "Bearer other", wantReason: "Authorization Header is invalid"},
		{name: "bare token without scheme", token: "tok", header: "tok", wantReason: "Missing Authorization Header"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.header != "" {
				h.Set("Authorization", tt.header)
			}
			err := checkAccessToken(tt.token, h)
			if tt.wantReason == "" {
				assert.Nil(t, err)
			} else {
				require.NotNil(t, err)
				assert.Equal(t, http.StatusForbidden, err.Status)
				assert.Equal(t, tt.wantReason, err.Reason)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("Token abc"))
	assert.Equal(t, "abc", bearerToken("Bearer  abc "))
	assert.Equal(t, "", bearerToken("abc"))
	assert.Equal(t, "", bearerToken(""))
}
