package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"commute/internal/domain"
	"commute/internal/service"
)

// FleetHandler exposes transport company supply to the broker.
type FleetHandler struct {
	fleetService *service.FleetService
}

// NewFleetHandler creates a new FleetHandler.
func NewFleetHandler(fleetService *service.FleetService) *FleetHandler {
	return &FleetHandler{fleetService: fleetService}
}

// CompanyResponse is the HTTP representation of a transport company.
type CompanyResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ContactPhone  string `json:"contact_phone,omitempty"`
	VehiclesCount int    `json:"vehicles_count"`
	Status        string `json:"status"`
}

// DriverResponse is the HTTP representation of a driver.
type DriverResponse struct {
	ID                 string `json:"id"`
	CompanyID          string `json:"company_id"`
	LicenseNumber      string `json:"license_number"`
	AvailabilityStatus string `json:"availability_status"`
}

// VehicleResponse is the HTTP representation of a vehicle.
type VehicleResponse struct {
	ID          string `json:"id"`
	CompanyID   string `json:"company_id"`
	PlateNumber string `json:"plate_number"`
	Model       string `json:"model,omitempty"`
	Capacity    int    `json:"capacity"`
	Status      string `json:"status"`
}

func toCompanyResponse(c *domain.Company) CompanyResponse {
	return CompanyResponse{
		ID:            c.ID,
		Name:          c.Name,
		ContactPhone:  c.ContactPhone,
		VehiclesCount: c.VehiclesCount,
		Status:        string(c.Status),
	}
}

func toDriverResponse(d *domain.Driver) DriverResponse {
	return DriverResponse{
		ID:                 d.ID,
		CompanyID:          d.CompanyID,
		LicenseNumber:      d.LicenseNumber,
		AvailabilityStatus: string(d.Availability),
	}
}

func toVehicleResponse(v *domain.Vehicle) VehicleResponse {
	return VehicleResponse{
		ID:          v.ID,
		CompanyID:   v.CompanyID,
		PlateNumber: v.PlateNumber,
		Model:       v.Model,
		Capacity:    v.Capacity,
		Status:      string(v.Status),
	}
}

// ListCompanies handles GET /v1/admin/companies
func (h *FleetHandler) ListCompanies(c *gin.Context) {
	companies, err := h.fleetService.ListCompanies(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]CompanyResponse, 0, len(companies))
	for _, company := range companies {
		response = append(response, toCompanyResponse(company))
	}
	respondJSON(c, http.StatusOK, response)
}

// ListVehicles handles GET /v1/admin/companies/:id/vehicles
func (h *FleetHandler) ListVehicles(c *gin.Context) {
	vehicles, err := h.fleetService.ListVehicles(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]VehicleResponse, 0, len(vehicles))
	for _, v := range vehicles {
		response = append(response, toVehicleResponse(v))
	}
	respondJSON(c, http.StatusOK, response)
}

// ListDrivers handles GET /v1/admin/companies/:id/drivers?available=true
func (h *FleetHandler) ListDrivers(c *gin.Context) {
	availableOnly := c.Query("available") == "true"

	drivers, err := h.fleetService.ListDrivers(c.Request.Context(), actor(c), c.Param("id"), availableOnly)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]DriverResponse, 0, len(drivers))
	for _, d := range drivers {
		response = append(response, toDriverResponse(d))
	}
	respondJSON(c, http.StatusOK, response)
}

// VehicleBody is the HTTP request body for registering or editing a vehicle.
// On edit, omitted fields are left unchanged.
type VehicleBody struct {
	PlateNumber *string `json:"plate_number,omitempty"`
	Model       *string `json:"model,omitempty"`
	Capacity    *int    `json:"capacity,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// AvailabilityBody is the HTTP request body for a driver availability change.
type AvailabilityBody struct {
	AvailabilityStatus string `json:"availability_status"`
}

// VehicleRevenueResponse is one vehicle's line in a revenue report.
type VehicleRevenueResponse struct {
	VehicleID       string `json:"vehicle_id"`
	Model           string `json:"model,omitempty"`
	PlateNumber     string `json:"plate_number"`
	ActiveContracts int    `json:"active_contracts"`
	Revenue         int    `json:"total_revenue"`
}

// RevenueResponse is the HTTP representation of a company revenue report.
type RevenueResponse struct {
	CompanyID       string                   `json:"company_id"`
	TotalRevenue    int                      `json:"total_revenue"`
	MonthlyRevenue  int                      `json:"monthly_revenue"`
	ActiveContracts int                      `json:"active_contracts"`
	Vehicles        []VehicleRevenueResponse `json:"vehicle_breakdown"`
}

// MyCompany handles GET /v1/company/me
func (h *FleetHandler) MyCompany(c *gin.Context) {
	company, err := h.fleetService.MyCompany(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toCompanyResponse(company))
}

// CompanyRevenue handles GET /v1/companies/:id/revenue
func (h *FleetHandler) CompanyRevenue(c *gin.Context) {
	report, err := h.fleetService.CompanyRevenue(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := RevenueResponse{
		CompanyID:       report.CompanyID,
		TotalRevenue:    report.TotalRevenue,
		MonthlyRevenue:  report.MonthlyRevenue,
		ActiveContracts: report.ActiveContracts,
		Vehicles:        make([]VehicleRevenueResponse, 0, len(report.Vehicles)),
	}
	for _, v := range report.Vehicles {
		resp.Vehicles = append(resp.Vehicles, VehicleRevenueResponse{
			VehicleID:       v.VehicleID,
			Model:           v.Model,
			PlateNumber:     v.PlateNumber,
			ActiveContracts: v.ActiveContracts,
			Revenue:         v.Revenue,
		})
	}
	respondJSON(c, http.StatusOK, resp)
}

// AddVehicle handles POST /v1/vehicles
func (h *FleetHandler) AddVehicle(c *gin.Context) {
	var body VehicleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	in := service.VehicleInput{
		PlateNumber: deref(body.PlateNumber),
		Model:       deref(body.Model),
		Status:      deref(body.Status),
	}
	if body.Capacity != nil {
		in.Capacity = *body.Capacity
	}

	vehicle, err := h.fleetService.AddVehicle(c.Request.Context(), actor(c), in)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toVehicleResponse(vehicle))
}

// UpdateVehicle handles PUT /v1/vehicles/:id
func (h *FleetHandler) UpdateVehicle(c *gin.Context) {
	var body VehicleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	vehicle, err := h.fleetService.UpdateVehicle(c.Request.Context(), actor(c), c.Param("id"), service.VehicleUpdate{
		PlateNumber: body.PlateNumber,
		Model:       body.Model,
		Capacity:    body.Capacity,
		Status:      body.Status,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toVehicleResponse(vehicle))
}

// SetDriverAvailability handles PUT /v1/drivers/:id/availability
func (h *FleetHandler) SetDriverAvailability(c *gin.Context) {
	var body AvailabilityBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	driver, err := h.fleetService.SetDriverAvailability(c.Request.Context(), actor(c), c.Param("id"), body.AvailabilityStatus)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDriverResponse(driver))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
