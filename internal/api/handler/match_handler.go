package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agrolink/logistics-engine/internal/api/metrics"
	"github.com/agrolink/logistics-engine/internal/core/ports"
)

// MatchHandler handles HTTP requests for load matching.
type MatchHandler struct {
	matcher ports.MatcherService
}

func NewMatchHandler(matcher ports.MatcherService) *MatchHandler {
	return &MatchHandler{matcher: matcher}
}

// Find handles POST /v1/matches.
//
// @Summary      Rank available loads for a transporter
// @Tags         matches
// @Accept       json
// @Produce      json
// @Param        body  body      findMatchesRequest  true  "Transporter position, candidate loads, optional vehicle and filters"
// @Success      200   {object}  findMatchesResponse
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/matches [post]
func (h *MatchHandler) Find(c echo.Context) error {
	var req findMatchesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	matches, err := h.matcher.FindBestMatches(c.Request().Context(), ports.MatchInput{
		TransporterLocation: toCoordinate(req.TransporterLocation),
		Loads:               toLoads(req.Loads),
		Vehicle:             toVehicle(req.Vehicle),
		Filters:             toFilters(req.Filters),
	})
	if err != nil {
		metrics.MatchRequestsTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.MatchRequestsTotal.WithLabelValues("ok").Inc()
	for _, m := range matches {
		metrics.MatchScoreDistribution.Observe(m.Score)
	}

	return c.JSON(http.StatusOK, findMatchesResponse{Matches: matches, Count: len(matches)})
}

// EarningPotential handles POST /v1/matches/earning-potential.
//
// @Summary      Estimate a transporter's daily earning potential
// @Tags         matches
// @Accept       json
// @Produce      json
// @Param        body  body      earningPotentialRequest  true  "Transporter position, candidate loads, optional working-hour budget"
// @Success      200   {object}  ports.EarningPotential
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/matches/earning-potential [post]
func (h *MatchHandler) EarningPotential(c echo.Context) error {
	var req earningPotentialRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	potential, err := h.matcher.EarningPotential(c.Request().Context(), ports.EarningPotentialInput{
		TransporterLocation: toCoordinate(req.TransporterLocation),
		Loads:               toLoads(req.Loads),
		WorkingHours:        req.WorkingHours,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, potential)
}

// WaitingLocation handles POST /v1/matches/waiting-location.
//
// @Summary      Suggest where an idle transporter should wait
// @Tags         matches
// @Accept       json
// @Produce      json
// @Param        body  body      waitingLocationRequest  true  "Currently listed loads"
// @Success      200   {object}  ports.WaitingSuggestion
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/matches/waiting-location [post]
func (h *MatchHandler) WaitingLocation(c echo.Context) error {
	var req waitingLocationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	suggestion, err := h.matcher.SuggestWaitingLocation(c.Request().Context(), toLoads(req.Loads))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, suggestion)
}
