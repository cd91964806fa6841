package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"commute/internal/domain"
	"commute/internal/service"
)

// TripHandler handles HTTP requests for trips.
type TripHandler struct {
	tripService *service.TripService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripService *service.TripService) *TripHandler {
	return &TripHandler{tripService: tripService}
}

// CreateTripBody is the HTTP request body for scheduling an ad hoc trip.
type CreateTripBody struct {
	ContractID        string `json:"contract_id"`
	ScheduledDatetime string `json:"scheduled_datetime"`
}

// PositionBody carries an optional recorded position.
type PositionBody struct {
	Lat *float64 `json:"lat,omitempty"`
	Lng *float64 `json:"lng,omitempty"`
}

// CoordinatesResponse is a recorded position.
type CoordinatesResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// TripResponse is the HTTP response for trip operations.
type TripResponse struct {
	ID                string               `json:"id"`
	ContractID        string               `json:"contract_id"`
	DriverID          string               `json:"driver_id"`
	ScheduledDatetime string               `json:"scheduled_datetime"`
	ActualStart       string               `json:"actual_start,omitempty"`
	ActualEnd         string               `json:"actual_end,omitempty"`
	Pickup            *CoordinatesResponse `json:"pickup,omitempty"`
	Destination       *CoordinatesResponse `json:"destination,omitempty"`
	Status            string               `json:"status"`
	CreatedAt         string               `json:"created_at"`
}

func toTripResponse(t *domain.Trip) TripResponse {
	resp := TripResponse{
		ID:                t.ID,
		ContractID:        t.ContractID,
		DriverID:          t.DriverID,
		ScheduledDatetime: formatTime(t.ScheduledAt),
		ActualStart:       formatTime(t.ActualStart),
		ActualEnd:         formatTime(t.ActualEnd),
		Status:            string(t.Status),
		CreatedAt:         formatTime(t.CreatedAt),
	}
	if t.Pickup != nil {
		resp.Pickup = &CoordinatesResponse{Lat: t.Pickup.Lat, Lng: t.Pickup.Lng}
	}
	if t.Destination != nil {
		resp.Destination = &CoordinatesResponse{Lat: t.Destination.Lat, Lng: t.Destination.Lng}
	}
	return resp
}

func toTripResponses(trips []*domain.Trip) []TripResponse {
	out := make([]TripResponse, 0, len(trips))
	for _, t := range trips {
		out = append(out, toTripResponse(t))
	}
	return out
}

// CreateTrip handles POST /v1/trips
func (h *TripHandler) CreateTrip(c *gin.Context) {
	var body CreateTripBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	in := service.CreateTripInput{ContractID: body.ContractID}
	if body.ScheduledDatetime != "" {
		at, err := parseDate(body.ScheduledDatetime)
		if err != nil {
			respondBadRequest(c, "invalid scheduled_datetime")
			return
		}
		in.ScheduledAt = at
	}

	trip, err := h.tripService.CreateTrip(c.Request.Context(), actor(c), in)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toTripResponse(trip))
}

// StartTrip handles POST /v1/trips/:id/start
func (h *TripHandler) StartTrip(c *gin.Context) {
	pos, ok := bindPosition(c)
	if !ok {
		return
	}

	trip, err := h.tripService.StartTrip(c.Request.Context(), actor(c), service.TripPositionInput{
		TripID: c.Param("id"),
		Lat:    pos.Lat,
		Lng:    pos.Lng,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// EndTrip handles POST /v1/trips/:id/end
func (h *TripHandler) EndTrip(c *gin.Context) {
	pos, ok := bindPosition(c)
	if !ok {
		return
	}

	trip, err := h.tripService.EndTrip(c.Request.Context(), actor(c), service.TripPositionInput{
		TripID: c.Param("id"),
		Lat:    pos.Lat,
		Lng:    pos.Lng,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// GetTrip handles GET /v1/trips/:id
func (h *TripHandler) GetTrip(c *gin.Context) {
	trip, err := h.tripService.GetTrip(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// ListMine handles GET /v1/trips/mine
func (h *TripHandler) ListMine(c *gin.Context) {
	trips, err := h.tripService.ListMyTrips(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponses(trips))
}

// ListByContract handles GET /v1/contracts/:id/trips
func (h *TripHandler) ListByContract(c *gin.Context) {
	trips, err := h.tripService.ListContractTrips(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponses(trips))
}

// bindPosition reads an optional position body. An empty body means no position.
func bindPosition(c *gin.Context) (PositionBody, bool) {
	var body PositionBody
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		respondBadRequest(c, "invalid request body")
		return PositionBody{}, false
	}
	return body, true
}
