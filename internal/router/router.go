package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/gameday/api/handler"
)

type Handlers struct {
	Auth      *apiHandler.AuthHandler
	Reminders *apiHandler.ReminderHandler
	Stream    *apiHandler.StreamHandler
	Health    *apiHandler.HealthHandler
}

type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

// New wires the routes. Reminder routes act on whichever backend is active.
// Login needs a verified bearer token; logout, refresh and every reminder
// write need the current session while an identity is logged in.
func New(handlers Handlers, authMiddleware, sessionMiddleware Middleware) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Auth routes
	r.POST("/api/v1/auth/login", authMiddleware(handlers.Auth.Login))
	r.POST("/api/v1/auth/logout", sessionMiddleware(handlers.Auth.Logout))
	r.POST("/api/v1/auth/refresh", sessionMiddleware(handlers.Auth.Refresh))
	r.GET("/api/v1/auth/me", handlers.Auth.Me)

	// Reminder routes
	r.POST("/api/v1/reminders", sessionMiddleware(handlers.Reminders.Create))
	r.GET("/api/v1/reminders/upcoming", handlers.Reminders.Upcoming)
	r.GET("/api/v1/reminders/completed", handlers.Reminders.Completed)
	r.GET("/api/v1/reminders/overdue", handlers.Reminders.Overdue)
	r.PATCH("/api/v1/reminders/{id}", sessionMiddleware(handlers.Reminders.Update))
	r.DELETE("/api/v1/reminders/{id}", sessionMiddleware(handlers.Reminders.Delete))
	r.POST("/api/v1/reminders/{id}/complete", sessionMiddleware(handlers.Reminders.Complete))
	r.GET("/api/v1/reminders/{id}/countdown", handlers.Reminders.Countdown)
	r.GET("/api/v1/stats", handlers.Reminders.Stats)
	r.GET("/api/v1/stream", handlers.Stream.Stream)

	return r
}
