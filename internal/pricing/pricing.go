// Package pricing values a contract from its head count and service frequency.
package pricing

import (
	"github.com/shopspring/decimal"

	"commute/internal/domain"
)

const (
	// BaseFare is charged once per contract regardless of head count.
	BaseFare = 50
	// PerEmployee is added for every employee transported.
	PerEmployee = 15
)

var (
	multiplierDaily   = decimal.NewFromInt(1)
	multiplierWeekly  = decimal.RequireFromString("0.8")
	multiplierMonthly = decimal.RequireFromString("0.6")
)

// Multiplier returns the frequency discount applied to the base amount.
// Unknown frequencies are charged at the daily rate.
func Multiplier(f domain.Frequency) decimal.Decimal {
	switch f {
	case domain.FrequencyWeekly:
		return multiplierWeekly
	case domain.FrequencyMonthly:
		return multiplierMonthly
	default:
		return multiplierDaily
	}
}

// Price returns round((BaseFare + employees*PerEmployee) * Multiplier(f)),
// rounding half up. Callers validate employees >= 1 and the frequency.
func Price(employees int, f domain.Frequency) int {
	amount := decimal.NewFromInt(int64(BaseFare + employees*PerEmployee))
	return int(amount.Mul(Multiplier(f)).Round(0).IntPart())
}

// Quote is a price together with the inputs that produced it.
type Quote struct {
	EmployeesCount int
	Frequency      domain.Frequency
	BaseAmount     int
	Multiplier     decimal.Decimal
	Price          int
}

// NewQuote computes a quote for display to the broker.
func NewQuote(employees int, f domain.Frequency) Quote {
	return Quote{
		EmployeesCount: employees,
		Frequency:      f,
		BaseAmount:     BaseFare + employees*PerEmployee,
		Multiplier:     Multiplier(f),
		Price:          Price(employees, f),
	}
}
