package service

import "commute/internal/domain"

// ValidateAssignment checks that the vehicle and then the driver belong to
// companyID. It performs no I/O.
func ValidateAssignment(companyID string, driver *domain.Driver, vehicle *domain.Vehicle) error {
	if vehicle.CompanyID != companyID {
		return &MismatchError{Which: "vehicle"}
	}
	if driver.CompanyID != companyID {
		return &MismatchError{Which: "driver"}
	}
	return nil
}
