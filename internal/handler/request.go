package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"commute/internal/domain"
	"commute/internal/service"
)

// RequestHandler handles HTTP requests for transport requests.
type RequestHandler struct {
	requestService *service.RequestService
}

// NewRequestHandler creates a new RequestHandler.
func NewRequestHandler(requestService *service.RequestService) *RequestHandler {
	return &RequestHandler{requestService: requestService}
}

// CreateRequestBody is the HTTP request body for creating a request.
type CreateRequestBody struct {
	PickupLocation string  `json:"pickup_location"`
	Destination    string  `json:"destination"`
	EmployeesCount int     `json:"employees_count"`
	Frequency      string  `json:"frequency"`
	StartDate      string  `json:"start_date"`
	EndDate        *string `json:"end_date,omitempty"`
	SpecialNotes   string  `json:"special_notes,omitempty"`
}

// UpdateRequestBody is the HTTP request body for editing a request.
type UpdateRequestBody struct {
	PickupLocation *string        `json:"pickup_location,omitempty"`
	Destination    *string        `json:"destination,omitempty"`
	EmployeesCount *int           `json:"employees_count,omitempty"`
	Frequency      *string        `json:"frequency,omitempty"`
	StartDate      *string        `json:"start_date,omitempty"`
	EndDate        nullableString `json:"end_date"` // null clears the end date
	SpecialNotes   *string        `json:"special_notes,omitempty"`
}

// nullableString tells an explicit JSON null apart from an omitted field.
type nullableString struct {
	Set   bool
	Value *string
}

// UnmarshalJSON is only invoked for fields present in the body, null included.
func (n *nullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

// RequestResponse is the HTTP representation of a request.
type RequestResponse struct {
	ID             string `json:"id"`
	BusinessID     string `json:"business_id"`
	PickupLocation string `json:"pickup_location"`
	Destination    string `json:"destination"`
	EmployeesCount int    `json:"employees_count"`
	Frequency      string `json:"frequency"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date,omitempty"`
	SpecialNotes   string `json:"special_notes,omitempty"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
}

func toRequestResponse(r *domain.Request) RequestResponse {
	resp := RequestResponse{
		ID:             r.ID,
		BusinessID:     r.BusinessID,
		PickupLocation: r.PickupLocation,
		Destination:    r.Destination,
		EmployeesCount: r.EmployeesCount,
		Frequency:      string(r.Frequency),
		StartDate:      formatTime(r.StartDate),
		SpecialNotes:   r.SpecialNotes,
		Status:         string(r.Status),
		CreatedAt:      formatTime(r.CreatedAt),
	}
	if r.EndDate != nil {
		resp.EndDate = formatTime(*r.EndDate)
	}
	return resp
}

func toRequestResponses(reqs []*domain.Request) []RequestResponse {
	out := make([]RequestResponse, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, toRequestResponse(r))
	}
	return out
}

// CreateRequest handles POST /v1/requests
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	var body CreateRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	in := service.CreateRequestInput{
		PickupLocation: body.PickupLocation,
		Destination:    body.Destination,
		EmployeesCount: body.EmployeesCount,
		Frequency:      body.Frequency,
		SpecialNotes:   body.SpecialNotes,
	}

	if body.StartDate != "" {
		start, err := parseDate(body.StartDate)
		if err != nil {
			respondBadRequest(c, "invalid start_date")
			return
		}
		in.StartDate = start
	}

	if body.EndDate != nil && *body.EndDate != "" {
		end, err := parseDate(*body.EndDate)
		if err != nil {
			respondBadRequest(c, "invalid end_date")
			return
		}
		in.EndDate = &end
	}

	req, err := h.requestService.CreateRequest(c.Request.Context(), actor(c), in)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toRequestResponse(req))
}

// GetRequest handles GET /v1/requests/:id
func (h *RequestHandler) GetRequest(c *gin.Context) {
	req, err := h.requestService.GetRequest(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRequestResponse(req))
}

// ListMine handles GET /v1/requests
func (h *RequestHandler) ListMine(c *gin.Context) {
	reqs, err := h.requestService.ListMyRequests(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRequestResponses(reqs))
}

// ListAll handles GET /v1/admin/requests?status=
func (h *RequestHandler) ListAll(c *gin.Context) {
	reqs, err := h.requestService.ListRequests(c.Request.Context(), actor(c), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRequestResponses(reqs))
}

// UpdateRequest handles PUT /v1/requests/:id
func (h *RequestHandler) UpdateRequest(c *gin.Context) {
	var body UpdateRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	in := service.UpdateRequestInput{
		PickupLocation: body.PickupLocation,
		Destination:    body.Destination,
		EmployeesCount: body.EmployeesCount,
		Frequency:      body.Frequency,
		SpecialNotes:   body.SpecialNotes,
	}

	var ok bool
	if in.StartDate, ok = optionalDate(c, "start_date", body.StartDate); !ok {
		return
	}
	if body.EndDate.Set && body.EndDate.Value == nil {
		in.ClearEndDate = true
	} else if in.EndDate, ok = optionalDate(c, "end_date", body.EndDate.Value); !ok {
		return
	}

	req, err := h.requestService.UpdateRequest(c.Request.Context(), actor(c), c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRequestResponse(req))
}

// DeleteRequest handles DELETE /v1/requests/:id
func (h *RequestHandler) DeleteRequest(c *gin.Context) {
	if err := h.requestService.DeleteRequest(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CancelRequest handles POST /v1/requests/:id/cancel
func (h *RequestHandler) CancelRequest(c *gin.Context) {
	req, err := h.requestService.CancelRequest(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRequestResponse(req))
}

// optionalDate parses an optional date field, writing a 400 on failure.
func optionalDate(c *gin.Context, field string, raw *string) (*time.Time, bool) {
	if raw == nil || *raw == "" {
		return nil, true
	}

	t, err := parseDate(*raw)
	if err != nil {
		respondBadRequest(c, "invalid "+field)
		return nil, false
	}
	return &t, true
}
