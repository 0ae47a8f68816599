package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct-horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct-horse", hash)

	assert.True(t, CheckPassword("correct-horse", hash))
	assert.False(t, CheckPassword("battery-staple", hash))
	assert.False(t, CheckPassword("", ""), "oauth-only accounts have no password")
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	token, expiresAt, err := issuer.Issue("session-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	sessionID, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "session-1", sessionID)
}

func TestTokenRejections(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	token, _, err := issuer.Issue("session-1")
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewTokenIssuer("other", time.Hour).Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		late := NewTokenIssuer("secret", time.Hour)
		late.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := late.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Parse("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestStateSigner(t *testing.T) {
	signer := NewStateSigner("secret")
	state, err := signer.Sign("session-1")
	require.NoError(t, err)

	sessionID, err := signer.Verify(state)
	require.NoError(t, err)
	assert.Equal(t, "session-1", sessionID)

	tests := []string{"", "session-1", "session-1.deadbeef", ".abc"}
	for _, bad := range tests {
		t.Run(bad, func(t *testing.T) {
			_, err := signer.Verify(bad)
			assert.ErrorIs(t, err, ErrInvalidState)
		})
	}

	_, err = NewStateSigner("other").Verify(state)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = signer.Sign("")
	assert.Error(t, err)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "request %d", i)
	}
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "keys are limited independently")
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.1:1234", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.2"}, "10.0.0.1:1234", "198.51.100.2"},
		{"remote addr", nil, "192.0.2.9:5555", "192.0.2.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/api/auth/pin", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, GetClientIP(r))
		})
	}
}

func TestTokenFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{name: "none"},
		{name: "bearer", header: "Bearer abc", want: "abc"},
		{name: "cookie", cookie: "def", want: "def"},
		{name: "bearer wins over cookie", header: "Bearer abc", cookie: "def", want: "abc"},
		{name: "other scheme falls back to cookie", header: "Basic xyz", cookie: "def", want: "def"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/progress", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tt.cookie})
			}
			assert.Equal(t, tt.want, TokenFromRequest(r))
		})
	}
}

func TestTokenCookie(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/session", nil)
	assert.False(t, IsHTTPS(r))

	expires := time.Now().Add(time.Hour)
	rec := httptest.NewRecorder()
	SetTokenCookie(rec, r, "tok", expires)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "tok", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.False(t, cookies[0].Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)

	r.Header.Set("X-Forwarded-Proto", "https")
	assert.True(t, IsHTTPS(r))
	rec = httptest.NewRecorder()
	ClearTokenCookie(rec, r)
	cookies = rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, -1, cookies[0].MaxAge)
}
