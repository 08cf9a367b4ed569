package middleware

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/gameday/api/transport"
	"github.com/fastygo/gameday/domain"
)

// HeaderSessionID carries the session issued by login.
const HeaderSessionID = "X-Session-ID"

const (
	sessionIDKey        = "session_id"
	sessionCheckTimeout = 2 * time.Second
)

// SessionAuthorizer decides whether a session may act on the active backend.
// A nil session with a nil error means no identity is logged in.
type SessionAuthorizer interface {
	Authorize(ctx context.Context, sessionID string) (*domain.Session, error)
}

// RequireSession rejects the request unless it carries a live session of the
// identity that is logged in. While nobody is logged in every request passes.
func RequireSession(auth SessionAuthorizer, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			id := strings.TrimSpace(string(ctx.Request.Header.Peek(HeaderSessionID)))

			checkCtx, cancel := context.WithTimeout(context.Background(), sessionCheckTimeout)
			_, err := auth.Authorize(checkCtx, id)
			cancel()
			if err != nil {
				if domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
					reject(ctx, fasthttp.StatusUnauthorized, domain.ErrCodeUnauthorized, "session required")
					return
				}
				logger.Warn("session check failed", zap.ByteString("path", ctx.Path()), zap.Error(err))
				reject(ctx, fasthttp.StatusServiceUnavailable, domain.ErrCodeUnavailable, "session check unavailable")
				return
			}

			if id != "" {
				ctx.SetUserValue(sessionIDKey, id)
			}
			next(ctx)
		}
	}
}

// SessionID returns the session id RequireSession let through, if any.
func SessionID(ctx *fasthttp.RequestCtx) string {
	id, _ := ctx.UserValue(sessionIDKey).(string)
	return id
}

func reject(ctx *fasthttp.RequestCtx, status int, code domain.ErrorCode, msg string) {
	body, _ := json.Marshal(transport.NewError(string(code), msg, nil))
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}
