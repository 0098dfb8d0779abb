// Package router registers the HTTP routes and their middleware.
package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/campus-navigator/internal/config"
	"github.com/iliyamo/campus-navigator/internal/handler"
	"github.com/iliyamo/campus-navigator/internal/middleware"
)

// Deps carries everything the routes need.  Redis may be nil, which
// disables the response cache and the rate limiter.
type Deps struct {
	Campus    *handler.CampusHandler
	Auth      *handler.AuthHandler
	DB        handler.Pinger
	JWTSecret string
	Users     middleware.UserLookup
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Redis     *redis.Client
	Log       *zap.Logger
}

// Register installs every route on e.
func Register(e *echo.Echo, d Deps) {
	RegisterRoutes(e, d.DB)

	cache := middleware.NewRedisCache(d.Cache, d.Redis)
	invalidate := middleware.InvalidateCache(d.Cache, d.Redis, d.Log)

	api := e.Group("/api",
		middleware.Identify(d.JWTSecret),
		middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log),
	)
	RegisterAuth(api, d.Auth, d.JWTSecret)
	superuser := middleware.RequireSuperuser(d.Users)
	RegisterCampus(e, api, d.Campus, d.JWTSecret, superuser, cache, invalidate)
	RegisterAdmin(api, d.Campus, d.JWTSecret, superuser, invalidate)
}

// RegisterRoutes registers the probes.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
}

// RegisterAuth registers the account endpoints under /api/auth.
func RegisterAuth(api *echo.Group, a *handler.AuthHandler, jwtSecret string) {
	g := api.Group("/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// logout takes a refresh token or a bearer token, see the handler
	g.POST("/logout", a.Logout)
	g.GET("/me", a.Me, middleware.JWTAuth(jwtSecret))
}

// RegisterCampus registers the map page, search and the public and
// per-user POI API.  Guarded POST routes use Any so that the method
// check sits at its place in the middleware chain: creation answers
// 405 before authenticating, the toggle authenticates first.
func RegisterCampus(e *echo.Echo, api *echo.Group, h *handler.CampusHandler, jwtSecret string, superuser, cache, invalidate echo.MiddlewareFunc) {
	e.GET("/", h.Map, cache)
	e.GET("/search/", h.Search, cache)

	api.GET("/pois/", h.ListPois, cache)
	api.Any("/poi/create/", h.CreatePoi,
		middleware.AllowMethods("POST only", http.MethodPost),
		middleware.JWTAuth(jwtSecret),
		superuser,
		invalidate,
	)
	api.Any("/favorite/toggle/", h.ToggleFavorite,
		middleware.JWTAuth(jwtSecret),
		middleware.AllowMethods("POST only", http.MethodPost),
	)
	api.GET("/favorites/", h.ListFavorites, middleware.JWTAuth(jwtSecret))
}

// RegisterAdmin registers the superuser maintenance endpoints under
// /api/admin.  Every successful mutation purges the response cache.
func RegisterAdmin(api *echo.Group, h *handler.CampusHandler, jwtSecret string, superuser, invalidate echo.MiddlewareFunc) {
	g := api.Group("/admin", middleware.JWTAuth(jwtSecret), superuser)
	g.POST("/buildings", h.CreateBuilding, invalidate)
	g.GET("/buildings", h.ListBuildings)
	g.DELETE("/buildings/:id", h.DeleteBuilding, invalidate)
	g.POST("/rooms", h.CreateRoom, invalidate)
	g.GET("/rooms", h.ListRooms)
	g.GET("/rooms/:id", h.GetRoom)
	g.DELETE("/rooms/:id", h.DeleteRoom, invalidate)
	g.DELETE("/pois/:id", h.DeletePoi, invalidate)
}
