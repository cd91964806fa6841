package domain

import "time"

// RequestStatus represents the current status of a transport request.
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusActive    RequestStatus = "active"
	RequestStatusCompleted RequestStatus = "completed"
	RequestStatusCancelled RequestStatus = "cancelled"
)

// ParseRequestStatus validates a status filter value.
func ParseRequestStatus(s string) (RequestStatus, bool) {
	switch st := RequestStatus(s); st {
	case RequestStatusPending, RequestStatusActive, RequestStatusCompleted, RequestStatusCancelled:
		return st, true
	}
	return "", false
}

// Request represents a business's standing transport need.
type Request struct {
	ID             string
	BusinessID     string
	PickupLocation string
	Destination    string
	EmployeesCount int
	Frequency      Frequency
	StartDate      time.Time
	EndDate        *time.Time // nil means the default scheduling window
	SpecialNotes   string
	Status         RequestStatus
	CreatedAt      time.Time
}

// IsOwnedBy reports whether the request belongs to the given business.
func (r *Request) IsOwnedBy(businessID string) bool {
	return r.BusinessID == businessID
}

// ServiceDate returns the calendar day t was written for, as UTC midnight.
// Request windows are stored and expanded in this form.
func ServiceDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
