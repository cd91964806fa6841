package domain

// Frequency is how often a contracted service recurs.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// ParseFrequency returns the frequency named by s.
// The second result is false for anything outside the closed set.
func ParseFrequency(s string) (Frequency, bool) {
	switch f := Frequency(s); f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return f, true
	}
	return "", false
}

// Valid reports whether f is one of the known frequencies.
func (f Frequency) Valid() bool {
	_, ok := ParseFrequency(string(f))
	return ok
}
