package domain

// CompanyStatus represents whether a transport company is operating.
type CompanyStatus string

const (
	CompanyStatusActive   CompanyStatus = "active"
	CompanyStatusInactive CompanyStatus = "inactive"
)

// Company represents a transport company supplying drivers and vehicles.
type Company struct {
	ID            string
	Name          string
	OwnerID       string
	ContactPhone  string
	VehiclesCount int
	Status        CompanyStatus
}

// VehicleStatus represents the operational state of a vehicle.
type VehicleStatus string

const (
	VehicleStatusAvailable   VehicleStatus = "available"
	VehicleStatusUnavailable VehicleStatus = "unavailable"
	VehicleStatusMaintenance VehicleStatus = "maintenance"
)

// Vehicle represents a vehicle owned by a transport company.
type Vehicle struct {
	ID          string
	CompanyID   string
	PlateNumber string
	Model       string
	Capacity    int
	Status      VehicleStatus
}

// ParseVehicleStatus validates a vehicle status value.
func ParseVehicleStatus(s string) (VehicleStatus, bool) {
	switch st := VehicleStatus(s); st {
	case VehicleStatusAvailable, VehicleStatusUnavailable, VehicleStatusMaintenance:
		return st, true
	}
	return "", false
}

// IsOwnedBy reports whether the company is run by the given identity subject.
func (c *Company) IsOwnedBy(userID string) bool {
	return c.OwnerID != "" && c.OwnerID == userID
}

// VehicleRevenue is one vehicle's share of a company's active contract value.
type VehicleRevenue struct {
	VehicleID       string
	Model           string
	PlateNumber     string
	ActiveContracts int
	Revenue         int
}

// RevenueReport sums the prices of a company's active contracts.
type RevenueReport struct {
	CompanyID       string
	ActiveContracts int
	TotalRevenue    int
	MonthlyRevenue  int // active contracts created in the current calendar month
	Vehicles        []VehicleRevenue
}
