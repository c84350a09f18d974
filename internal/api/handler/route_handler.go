package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agrolink/logistics-engine/internal/api/metrics"
	"github.com/agrolink/logistics-engine/internal/core/ports"
)

// RouteHandler handles HTTP requests for route optimization.
type RouteHandler struct {
	routes ports.RouteService
}

func NewRouteHandler(routes ports.RouteService) *RouteHandler {
	return &RouteHandler{routes: routes}
}

// Optimize handles POST /v1/routes/optimize.
//
// @Summary      Sequence stops into an optimized route
// @Tags         routes
// @Accept       json
// @Produce      json
// @Param        body  body      optimizeRouteRequest  true  "Start location plus either a mixed stop set or separate pickups and deliveries"
// @Success      200   {object}  domain.Route
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/routes/optimize [post]
func (h *RouteHandler) Optimize(c echo.Context) error {
	var req optimizeRouteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	if len(req.Stops) > 0 && (len(req.Pickups) > 0 || len(req.Deliveries) > 0) {
		return echo.NewHTTPError(http.StatusBadRequest, "supply either stops or pickups/deliveries, not both")
	}

	route, err := h.routes.Optimize(c.Request().Context(), ports.OptimizeRouteInput{
		Start:      toLocation(req.Start),
		Stops:      toWaypoints(req.Stops),
		Pickups:    toWaypoints(req.Pickups),
		Deliveries: toWaypoints(req.Deliveries),
	})
	if err != nil {
		return err
	}

	metrics.RoutesPlannedTotal.Inc()
	metrics.RouteStops.Observe(float64(len(route.Waypoints)))

	return c.JSON(http.StatusOK, route)
}
