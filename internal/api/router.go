package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/agrolink/logistics-engine/docs"
	"github.com/agrolink/logistics-engine/internal/api/handler"
	"github.com/agrolink/logistics-engine/internal/core/ports"
)

// Services bundles the engine services the router exposes.
type Services struct {
	Matcher ports.MatcherService
	Routes  ports.RouteService
	Tracker ports.TripTrackerService
}

// NewRouter builds and returns the Echo instance with all routes registered.
// db and rdb may be nil when the engine runs without those backends; the
// readiness probe then skips them.
func NewRouter(svc Services, db *mongo.Database, rdb *redis.Client, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("logistics"))

	// --- Handlers ---
	matchHandler := handler.NewMatchHandler(svc.Matcher)
	routeHandler := handler.NewRouteHandler(svc.Routes)
	tripHandler := handler.NewTripHandler(svc.Tracker)

	// --- Matching ---
	e.POST("/v1/matches", matchHandler.Find)
	e.POST("/v1/matches/earning-potential", matchHandler.EarningPotential)
	e.POST("/v1/matches/waiting-location", matchHandler.WaitingLocation)

	// --- Routing ---
	e.POST("/v1/routes/optimize", routeHandler.Optimize)

	// --- Trips ---
	e.POST("/v1/trips", tripHandler.Start)
	e.GET("/v1/trips/:trip_id", tripHandler.Get)
	e.DELETE("/v1/trips/:trip_id", tripHandler.Stop)
	e.POST("/v1/trips/:trip_id/position", tripHandler.Position)
	e.POST("/v1/trips/:trip_id/stops/:sequence/complete", tripHandler.CompleteStop)

	// --- Observability ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	// --- Health probes ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)

	return e
}
