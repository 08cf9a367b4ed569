package middleware

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

const secret = "locker-room"

func sign(t *testing.T, claims Claims, key string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func run(token string, spoofed string) (*fasthttp.RequestCtx, bool) {
	ctx := &fasthttp.RequestCtx{}
	if token != "" {
		ctx.Request.Header.Set("Authorization", "Bearer "+token)
	}
	if spoofed != "" {
		ctx.Request.Header.Set(HeaderUserID, spoofed)
	}
	called := false
	JWTAuth(secret, "gameday", nil)(func(*fasthttp.RequestCtx) { called = true })(ctx)
	return ctx, called
}

func TestJWTAuthSetsIdentity(t *testing.T) {
	token := sign(t, Claims{
		UserID: "coach-9",
		Email:  "coach@example.com",
		Name:   "Coach",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "gameday",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}, secret)

	ctx, called := run(token, "")
	require.True(t, called)
	assert.Equal(t, "coach-9", string(ctx.Request.Header.Peek(HeaderUserID)))
	assert.Equal(t, "coach@example.com", string(ctx.Request.Header.Peek(HeaderUserEmail)))
	assert.Equal(t, "Coach", string(ctx.Request.Header.Peek(HeaderUserName)))
}

func TestJWTAuthFallsBackToSubject(t *testing.T) {
	token := sign(t, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "sub-1", Issuer: "gameday"}}, secret)
	ctx, called := run(token, "")
	require.True(t, called)
	assert.Equal(t, "sub-1", string(ctx.Request.Header.Peek(HeaderUserID)))
}

func TestJWTAuthRejects(t *testing.T) {
	cases := map[string]string{
		"missing":    "",
		"bad key":    sign(t, Claims{UserID: "x", RegisteredClaims: jwt.RegisteredClaims{Issuer: "gameday"}}, "other"),
		"bad issuer": sign(t, Claims{UserID: "x", RegisteredClaims: jwt.RegisteredClaims{Issuer: "elsewhere"}}, secret),
		"no subject": sign(t, Claims{RegisteredClaims: jwt.RegisteredClaims{Issuer: "gameday"}}, secret),
		"expired": sign(t, Claims{UserID: "x", RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "gameday", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		}}, secret),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			ctx, called := run(token, "spoofed")
			assert.False(t, called)
			assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
			assert.Empty(t, ctx.Request.Header.Peek(HeaderUserID))
		})
	}
}
