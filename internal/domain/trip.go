package domain

import "time"

// TripStatus represents the current status of a trip.
type TripStatus string

const (
	TripStatusPending   TripStatus = "pending"
	TripStatusActive    TripStatus = "active"
	TripStatusCompleted TripStatus = "completed"
	TripStatusCancelled TripStatus = "cancelled"
)

// Coordinates is an opaque recorded position.
type Coordinates struct {
	Lat float64
	Lng float64
}

// Trip represents one scheduled occurrence of a contract's service.
type Trip struct {
	ID          string
	ContractID  string
	DriverID    string // copied from the contract at creation
	ScheduledAt time.Time
	ActualStart time.Time
	ActualEnd   time.Time
	Pickup      *Coordinates // recorded at start
	Destination *Coordinates // recorded at end
	Status      TripStatus
	CreatedAt   time.Time
}
