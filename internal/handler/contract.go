package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"commute/internal/domain"
	"commute/internal/service"
)

// ContractHandler handles HTTP requests for contracts.
type ContractHandler struct {
	contractService *service.ContractService
}

// NewContractHandler creates a new ContractHandler.
func NewContractHandler(contractService *service.ContractService) *ContractHandler {
	return &ContractHandler{contractService: contractService}
}

// ProposeContractBody is the HTTP request body for proposing a contract.
type ProposeContractBody struct {
	RequestID  string `json:"request_id"`
	CompanyID  string `json:"company_id"`
	DriverID   string `json:"driver_id"`
	VehicleID  string `json:"vehicle_id"`
	Price      int    `json:"price,omitempty"`
	AdminNotes string `json:"admin_notes,omitempty"`
}

// ContractResponse is the HTTP representation of a contract.
type ContractResponse struct {
	ID         string `json:"id"`
	RequestID  string `json:"request_id"`
	CompanyID  string `json:"company_id"`
	DriverID   string `json:"driver_id"`
	VehicleID  string `json:"vehicle_id"`
	Price      int    `json:"price"`
	AdminNotes string `json:"admin_notes,omitempty"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
}

// AcceptContractResponse is returned when a business accepts a contract.
type AcceptContractResponse struct {
	Contract       ContractResponse `json:"contract"`
	RequestStatus  string           `json:"request_status"`
	TripsExpected  int              `json:"trips_expected"`
	TripsGenerated int              `json:"trips_generated"`
	Warning        string           `json:"warning,omitempty"`
}

// ContractDetailsResponse is a contract with its referenced entities.
type ContractDetailsResponse struct {
	ContractResponse
	Request RequestResponse `json:"request"`
	Company CompanyResponse `json:"company"`
	Driver  DriverResponse  `json:"driver"`
	Vehicle VehicleResponse `json:"vehicle"`
}

// PriceQuoteResponse is a computed contract price.
type PriceQuoteResponse struct {
	EmployeesCount int    `json:"employees_count"`
	Frequency      string `json:"frequency"`
	BaseAmount     int    `json:"base_amount"`
	Multiplier     string `json:"multiplier"`
	Price          int    `json:"price"`
}

func toContractResponse(c *domain.Contract) ContractResponse {
	return ContractResponse{
		ID:         c.ID,
		RequestID:  c.RequestID,
		CompanyID:  c.CompanyID,
		DriverID:   c.DriverID,
		VehicleID:  c.VehicleID,
		Price:      c.Price,
		AdminNotes: c.AdminNotes,
		Status:     string(c.Status),
		CreatedAt:  formatTime(c.CreatedAt),
	}
}

func toContractResponses(contracts []*domain.Contract) []ContractResponse {
	out := make([]ContractResponse, 0, len(contracts))
	for _, c := range contracts {
		out = append(out, toContractResponse(c))
	}
	return out
}

// QuotePrice handles GET /v1/contracts/price?employees_count=&frequency=
func (h *ContractHandler) QuotePrice(c *gin.Context) {
	employees, err := strconv.Atoi(c.Query("employees_count"))
	if err != nil {
		respondBadRequest(c, "employees_count must be an integer")
		return
	}

	quote, err := h.contractService.QuotePrice(actor(c), employees, c.Query("frequency"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, PriceQuoteResponse{
		EmployeesCount: quote.EmployeesCount,
		Frequency:      string(quote.Frequency),
		BaseAmount:     quote.BaseAmount,
		Multiplier:     quote.Multiplier.String(),
		Price:          quote.Price,
	})
}

// ProposeContract handles POST /v1/contracts
func (h *ContractHandler) ProposeContract(c *gin.Context) {
	var body ProposeContractBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	contract, err := h.contractService.ProposeContract(c.Request.Context(), actor(c), service.ProposeContractInput{
		RequestID:  body.RequestID,
		CompanyID:  body.CompanyID,
		DriverID:   body.DriverID,
		VehicleID:  body.VehicleID,
		Price:      body.Price,
		AdminNotes: body.AdminNotes,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toContractResponse(contract))
}

// AcceptContract handles POST /v1/contracts/:id/accept
func (h *ContractHandler) AcceptContract(c *gin.Context) {
	result, err := h.contractService.AcceptContract(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := AcceptContractResponse{
		Contract:       toContractResponse(result.Contract),
		RequestStatus:  string(result.Request.Status),
		TripsExpected:  result.TripsExpected,
		TripsGenerated: result.TripsGenerated,
	}
	if result.Warning != nil {
		resp.Warning = result.Warning.Error()
	}

	respondJSON(c, http.StatusOK, resp)
}

// RejectContract handles POST /v1/contracts/:id/reject
func (h *ContractHandler) RejectContract(c *gin.Context) {
	contract, err := h.contractService.RejectContract(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toContractResponse(contract))
}

// GetContract handles GET /v1/contracts/:id
func (h *ContractHandler) GetContract(c *gin.Context) {
	details, err := h.contractService.GetContract(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, ContractDetailsResponse{
		ContractResponse: toContractResponse(details.Contract),
		Request:          toRequestResponse(details.Request),
		Company:          toCompanyResponse(details.Company),
		Driver:           toDriverResponse(details.Driver),
		Vehicle:          toVehicleResponse(details.Vehicle),
	})
}

// ListPending handles GET /v1/contracts/pending
func (h *ContractHandler) ListPending(c *gin.Context) {
	contracts, err := h.contractService.ListPendingContracts(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toContractResponses(contracts))
}

// ListMine handles GET /v1/contracts/mine
func (h *ContractHandler) ListMine(c *gin.Context) {
	contracts, err := h.contractService.ListMyContracts(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toContractResponses(contracts))
}
