package handler

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fieldforce/location-tracker/internal/core/domain"
	"github.com/fieldforce/location-tracker/internal/core/ports"
	"github.com/fieldforce/location-tracker/internal/core/service"
)

// LocationHandler handles HTTP requests for location ingestion and queries.
type LocationHandler struct {
	service ports.LocationService
}

func NewLocationHandler(service ports.LocationService) *LocationHandler {
	return &LocationHandler{service: service}
}

// Record handles POST /locations.
//
// @Summary      Record a location sample
// @Description  Stores the sample, moves the latest position and broadcasts position_updated.
// @Description  A redelivered capture (same identity and timestamp) returns 200 with duplicate=true.
// @Tags         locations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      recordLocationRequest  true  "Location sample; coordinates are [longitude, latitude]"
// @Success      201   {object}  recordLocationResponse
// @Success      200   {object}  recordLocationResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /locations [post]
func (h *LocationHandler) Record(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var req recordLocationRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid payload", domain.ErrValidation)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.service.Record(c.Request().Context(), toRecordInput(caller, req))
	if err != nil {
		return err
	}

	status, msg := http.StatusCreated, "Location recorded"
	if res.Duplicate {
		status, msg = http.StatusOK, "Location already recorded"
	}
	return c.JSON(status, recordLocationResponse{
		Success:   true,
		Message:   msg,
		Duplicate: res.Duplicate,
		Location:  toLocationResponse(res.Sample),
	})
}

// Last handles GET /locations/last.
//
// @Summary      Latest location of an identity
// @Tags         locations
// @Produce      json
// @Security     BearerAuth
// @Param        userId  query     string  false  "Identity (managers only; defaults to the caller)"
// @Success      200     {object}  lastLocationResponse
// @Failure      403     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Router       /locations/last [get]
func (h *LocationHandler) Last(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	sample, err := h.service.Last(c.Request().Context(), ports.LocationQuery{
		Caller: caller,
		UserID: c.QueryParam("userId"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lastLocationResponse{Success: true, Location: toLocationResponse(sample)})
}

// History handles GET /locations/history.
//
// @Summary      Location history of an identity, newest first
// @Tags         locations
// @Produce      json
// @Security     BearerAuth
// @Param        userId     query     string  false  "Identity (managers only; defaults to the caller)"
// @Param        startDate  query     string  false  "Lower bound, RFC3339 or YYYY-MM-DD"
// @Param        endDate    query     string  false  "Upper bound, RFC3339 or YYYY-MM-DD"
// @Param        limit      query     int     false  "Page size (default 100, max 1000)"
// @Param        page       query     int     false  "Page number (default 1)"
// @Success      200        {object}  historyResponse
// @Failure      400        {object}  errorResponse
// @Failure      403        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Router       /locations/history [get]
func (h *LocationHandler) History(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var q historyQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return fmt.Errorf("%w: limit and page must be integers", domain.ErrValidation)
	}
	if err := c.Validate(&q); err != nil {
		return err
	}
	from, err := parseDate("startDate", q.StartDate)
	if err != nil {
		return err
	}
	to, err := parseDate("endDate", q.EndDate)
	if err != nil {
		return err
	}

	res, err := h.service.History(c.Request().Context(), ports.HistoryInput{
		LocationQuery: ports.LocationQuery{Caller: caller, UserID: q.UserID},
		From:          from,
		To:            to,
		Page:          q.Page,
		Limit:         q.Limit,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, historyResponse{
		Success: true,
		Pagination: paginationResponse{
			Total: res.Total,
			Page:  res.Page,
			Limit: res.Limit,
			Pages: res.Pages,
		},
		Locations: toLocationResponses(res.Items),
	})
}

// All handles GET /locations/all.
//
// @Summary      Latest position of every active identity
// @Tags         locations
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  allLatestResponse
// @Failure      403  {object}  errorResponse
// @Router       /locations/all [get]
func (h *LocationHandler) All(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	positions, err := h.service.AllLatest(c.Request().Context(), caller)
	if err != nil {
		return err
	}

	users := make([]userPositionResponse, 0, len(positions))
	for _, p := range positions {
		users = append(users, toUserPositionResponse(p))
	}
	return c.JSON(http.StatusOK, allLatestResponse{Success: true, Count: len(users), Users: users})
}

// Nearby handles GET /locations/nearby.
//
// @Summary      Identities near a point
// @Description  One result per identity (its closest sample in the recency window), nearest first.
// @Tags         locations
// @Produce      json
// @Security     BearerAuth
// @Param        longitude    query     number  true   "Origin longitude"
// @Param        latitude     query     number  true   "Origin latitude"
// @Param        maxDistance  query     number  false  "Radius in meters (default 5000)"
// @Success      200          {object}  nearbyResponse
// @Failure      400          {object}  errorResponse
// @Router       /locations/nearby [get]
func (h *LocationHandler) Nearby(c echo.Context) error {
	lonParam, latParam := c.QueryParam("longitude"), c.QueryParam("latitude")
	if lonParam == "" || latParam == "" {
		return fmt.Errorf("%w: longitude and latitude are required", domain.ErrValidation)
	}
	lon, errLon := strconv.ParseFloat(lonParam, 64)
	lat, errLat := strconv.ParseFloat(latParam, 64)
	if errLon != nil || errLat != nil || math.IsNaN(lon) || math.IsNaN(lat) {
		return fmt.Errorf("%w: longitude and latitude must be numbers", domain.ErrValidation)
	}

	radius := service.DefaultRadiusMeters
	if v := c.QueryParam("maxDistance"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(r) || math.IsInf(r, 0) || r <= 0 {
			return fmt.Errorf("%w: maxDistance must be a positive finite number", domain.ErrValidation)
		}
		radius = r
	}

	results, err := h.service.Nearby(c.Request().Context(), ports.NearbyInput{
		Origin:       []float64{lon, lat},
		RadiusMeters: radius,
	})
	if err != nil {
		return err
	}

	users := make([]nearbyUserResponse, 0, len(results))
	for _, r := range results {
		users = append(users, toNearbyUserResponse(r))
	}
	return c.JSON(http.StatusOK, nearbyResponse{Success: true, Count: len(users), Users: users})
}

func parseDate(name, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %s must be RFC3339 or YYYY-MM-DD", domain.ErrValidation, name)
}
