package domain

import "fmt"

// RateUnit is the time unit a rental rate is normalized to. Months and years
// are fixed second counts, not calendar-aware.
type RateUnit string

const (
	RateUnitMinutes RateUnit = "minutes"
	RateUnitHours   RateUnit = "hours"
	RateUnitDays    RateUnit = "days"
	RateUnitWeeks   RateUnit = "weeks"
	RateUnitMonths  RateUnit = "months"
	RateUnitYears   RateUnit = "years"
)

var rateUnitSeconds = map[RateUnit]int64{
	RateUnitMinutes: 60,
	RateUnitHours:   3600,
	RateUnitDays:    86400,
	RateUnitWeeks:   604800,
	RateUnitMonths:  2592000,
	RateUnitYears:   31104000,
}

// Seconds returns the number of seconds in one unit, or 0 for an unknown unit.
func (u RateUnit) Seconds() int64 {
	return rateUnitSeconds[u]
}

func (u RateUnit) Valid() bool {
	_, ok := rateUnitSeconds[u]
	return ok
}

// ParseRateUnit accepts a unit name, falling back to def when s is empty.
func ParseRateUnit(s string, def RateUnit) (RateUnit, error) {
	if s == "" {
		return def, nil
	}
	u := RateUnit(s)
	if !u.Valid() {
		return "", fmt.Errorf("unknown rate unit %q", s)
	}
	return u, nil
}
