package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // Echo web framework used for routing

    "github.com/iliyamo/ev-charging-reservation/internal/handler"    // handlers implementing the business logic
    "github.com/iliyamo/ev-charging-reservation/internal/middleware" // JWT authentication and role enforcement
    "github.com/iliyamo/ev-charging-reservation/internal/model"      // role constants
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
    // Load balancers and monitoring systems use this endpoint to verify
    // that the service is up and running.
    e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies
// the necessary middleware.  Unauthenticated operations live under
// /v1/auth, while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    g := e.Group("/v1/auth")
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    // Refresh rotates the refresh token and returns a new pair.
    g.POST("/refresh", a.Refresh)

    // Logout accepts a refresh token in the body, or revokes every
    // session when called with a bearer token and no body.
    auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
    auth.POST("/auth/logout", a.Logout)
    auth.GET("/me", a.Me)
}

// RegisterPublic registers unauthenticated browse endpoints.  Guests can
// inspect the station catalog, search by location and read reviews
// without a session.
func RegisterPublic(e *echo.Echo, s *handler.StationHandler, r *handler.ReviewHandler) {
    e.GET("/v1/stations", s.List)
    // The nearby route must come before :id so Echo does not try to
    // parse "nearby" as a station id.
    e.GET("/v1/stations/nearby", s.Nearby)
    e.GET("/v1/stations/:id", s.Get)
    e.GET("/v1/stations/:id/reviews", r.List)
}

// RegisterOperator registers OPERATOR-scoped endpoints under /v1.  All
// routes require a valid JWT and the OPERATOR role.  Operators manage
// the station catalog; the booking engine owns the port counters.
func RegisterOperator(e *echo.Echo, s *handler.StationHandler, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleOperator),
    )
    g.POST("/stations", s.Create)
    g.PUT("/stations/:id", s.Update)
    g.PATCH("/stations/:id", s.Update) // allow partial/semantic updates via PATCH as well
    g.DELETE("/stations/:id", s.Delete)
}

// RegisterDriver registers DRIVER-scoped endpoints under /v1.  Drivers
// reserve charging windows, run sessions, pay for them and review the
// stations they used.
func RegisterDriver(e *echo.Echo, res *handler.ReservationHandler, pay *handler.PaymentHandler, rev *handler.ReviewHandler, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleDriver),
    )
    // ---- Reservations ----
    g.POST("/reservations", res.Create)
    g.GET("/reservations", res.List)
    g.GET("/reservations/:id", res.Get)
    g.POST("/reservations/:id/cancel", res.Cancel)
    g.POST("/reservations/:id/start", res.Start)
    g.POST("/reservations/:id/complete", res.Complete)

    // ---- Payments ----
    g.POST("/payments", pay.Create)
    g.GET("/payments", pay.List)
    g.GET("/payments/:id", pay.Get)
    g.POST("/payments/:id/refund", pay.Refund)

    // ---- Reviews ----
    g.POST("/stations/:id/reviews", rev.Create)
}
