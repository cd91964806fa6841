package domain

import "time"

// ContractStatus represents the current status of a contract.
type ContractStatus string

const (
	ContractStatusPending   ContractStatus = "pending"
	ContractStatusActive    ContractStatus = "active"
	ContractStatusCancelled ContractStatus = "cancelled"
)

// Contract binds a request to a company, driver and vehicle at a fixed price.
type Contract struct {
	ID         string
	RequestID  string
	CompanyID  string
	DriverID   string
	VehicleID  string
	Price      int
	AdminNotes string
	Status     ContractStatus
	CreatedAt  time.Time
}

// ContractDetails is a contract joined with the entities it references.
type ContractDetails struct {
	Contract *Contract
	Request  *Request
	Company  *Company
	Driver   *Driver
	Vehicle  *Vehicle
}
