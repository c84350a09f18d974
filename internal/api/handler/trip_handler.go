package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/agrolink/logistics-engine/internal/api/metrics"
	"github.com/agrolink/logistics-engine/internal/core/ports"
)

// TripHandler handles HTTP requests for trip tracking.
type TripHandler struct {
	tracker ports.TripTrackerService
}

func NewTripHandler(tracker ports.TripTrackerService) *TripHandler {
	return &TripHandler{tracker: tracker}
}

// Start handles POST /v1/trips.
//
// @Summary      Start tracking a trip for a planned route
// @Tags         trips
// @Accept       json
// @Produce      json
// @Param        body  body      startTripRequest  true  "Trip identifiers and the sequenced route"
// @Success      201   {object}  domain.TripState
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/trips [post]
func (h *TripHandler) Start(c echo.Context) error {
	var req startTripRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	state, err := h.tracker.StartTrip(c.Request().Context(), ports.StartTripInput{
		TripID:        req.TripID,
		TransporterID: req.TransporterID,
		Recipient:     req.Recipient,
		Route:         req.Route,
	})
	if err != nil {
		return err
	}

	metrics.TripsStartedTotal.Inc()
	return c.JSON(http.StatusCreated, state)
}

// Position handles POST /v1/trips/:trip_id/position.
// A sample for an unknown trip is accepted and dropped: position feeds are
// external and may outlive the trip they report on.
//
// @Summary      Ingest a GPS position sample for a trip
// @Tags         trips
// @Accept       json
// @Produce      json
// @Param        trip_id  path      string                 true  "Trip id"
// @Param        body     body      positionSampleRequest  true  "Position sample"
// @Success      200      {object}  domain.TripState
// @Success      202      {object}  acceptedResponse
// @Failure      400      {object}  errorResponse
// @Failure      422      {object}  errorResponse
// @Router       /v1/trips/{trip_id}/position [post]
func (h *TripHandler) Position(c echo.Context) error {
	var req positionSampleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		metrics.PositionSamplesTotal.WithLabelValues("invalid").Inc()
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	sample := ports.PositionSample{
		TripID:   c.Param("trip_id"),
		Position: toCoordinate(req.Position),
	}
	if req.At != nil {
		sample.At = *req.At
	}

	state, err := h.tracker.UpdatePosition(c.Request().Context(), sample)
	if err != nil {
		metrics.PositionSamplesTotal.WithLabelValues("invalid").Inc()
		return err
	}
	if state == nil {
		metrics.PositionSamplesTotal.WithLabelValues("unknown_trip").Inc()
		return c.JSON(http.StatusAccepted, acceptedResponse{Message: "sample dropped, trip not tracked"})
	}

	metrics.PositionSamplesTotal.WithLabelValues("applied").Inc()
	return c.JSON(http.StatusOK, state)
}

// Get handles GET /v1/trips/:trip_id.
//
// @Summary      Get the current tracking snapshot of a trip
// @Tags         trips
// @Produce      json
// @Param        trip_id  path      string  true  "Trip id"
// @Success      200      {object}  domain.TripState
// @Failure      404      {object}  errorResponse
// @Router       /v1/trips/{trip_id} [get]
func (h *TripHandler) Get(c echo.Context) error {
	state, err := h.tracker.GetTrip(c.Request().Context(), c.Param("trip_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, state)
}

// CompleteStop handles POST /v1/trips/:trip_id/stops/:sequence/complete.
//
// @Summary      Force-complete a stop independent of GPS proximity
// @Tags         trips
// @Produce      json
// @Param        trip_id   path      string  true  "Trip id"
// @Param        sequence  path      int     true  "1-based stop sequence number"
// @Success      200       {object}  domain.TripState
// @Failure      400       {object}  errorResponse
// @Failure      404       {object}  errorResponse
// @Router       /v1/trips/{trip_id}/stops/{sequence}/complete [post]
func (h *TripHandler) CompleteStop(c echo.Context) error {
	sequence, err := strconv.Atoi(c.Param("sequence"))
	if err != nil || sequence < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "sequence must be a positive integer")
	}

	state, err := h.tracker.CompleteStop(c.Request().Context(), c.Param("trip_id"), sequence)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, state)
}

// Stop handles DELETE /v1/trips/:trip_id.
//
// @Summary      Stop tracking a trip
// @Tags         trips
// @Produce      json
// @Param        trip_id  path      string  true  "Trip id"
// @Success      204      "tracking stopped"
// @Failure      404      {object}  errorResponse
// @Router       /v1/trips/{trip_id} [delete]
func (h *TripHandler) Stop(c echo.Context) error {
	if err := h.tracker.StopTracking(c.Request().Context(), c.Param("trip_id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
