package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"commute/internal/domain"
)

func TestPrice_KnownValues(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		employees int
		freq      domain.Frequency
		want      int
	}{
		{"daily ten", 10, domain.FrequencyDaily, 200},
		{"weekly ten", 10, domain.FrequencyWeekly, 160},
		{"monthly ten", 10, domain.FrequencyMonthly, 120},
		{"daily one", 1, domain.FrequencyDaily, 65},
		{"weekly one", 1, domain.FrequencyWeekly, 52},
		{"monthly one", 1, domain.FrequencyMonthly, 39},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Price(tc.employees, tc.freq))
		})
	}
}

func TestPrice_UnknownFrequencyChargesDailyRate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Price(10, domain.FrequencyDaily), Price(10, domain.Frequency("yearly")))
	assert.Equal(t, 200, Price(10, ""))
}

func TestPrice_MonotonicInEmployees(t *testing.T) {
	t.Parallel()

	for _, f := range []domain.Frequency{domain.FrequencyDaily, domain.FrequencyWeekly, domain.FrequencyMonthly} {
		prev := Price(1, f)
		for n := 2; n <= 500; n++ {
			got := Price(n, f)
			if got < prev {
				t.Fatalf("%s: price(%d)=%d < price(%d)=%d", f, n, got, n-1, prev)
			}
			if got != Price(n, f) {
				t.Fatalf("%s: price(%d) is not deterministic", f, n)
			}
			prev = got
		}
	}
}

func TestNewQuote(t *testing.T) {
	t.Parallel()

	q := NewQuote(4, domain.FrequencyWeekly)

	assert.Equal(t, 110, q.BaseAmount)
	assert.True(t, q.Multiplier.Equal(decimal.RequireFromString("0.8")))
	assert.Equal(t, 88, q.Price)
}
