package domain

// DriverAvailability represents whether a driver can take new assignments.
type DriverAvailability string

const (
	DriverAvailable   DriverAvailability = "available"
	DriverUnavailable DriverAvailability = "unavailable"
)

// Driver represents a driver employed by a transport company.
type Driver struct {
	ID            string
	CompanyID     string
	UserID        string // identity subject of the driver
	LicenseNumber string
	Availability  DriverAvailability
}

// ParseDriverAvailability validates an availability value.
func ParseDriverAvailability(s string) (DriverAvailability, bool) {
	switch a := DriverAvailability(s); a {
	case DriverAvailable, DriverUnavailable:
		return a, true
	}
	return "", false
}
