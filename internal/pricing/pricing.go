// Package pricing computes storage booking totals in whole Chilean pesos.
// Everything here is a pure function of its inputs so the same formulas can
// back both the authoritative intake quote and the public preview endpoint.
package pricing

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MaxHours is the longest hourly stay a booking may declare.
const MaxHours = 24 * 365

// Plan is a storage booking pricing tier.
type Plan string

const (
	PlanHourly Plan = "hourly"
	PlanDaily  Plan = "daily"
	PlanWeekly Plan = "weekly"
)

var (
	// ErrAmountUnavailable is returned when the inputs describe a degenerate stay.
	ErrAmountUnavailable = errors.New("amount unavailable")
	ErrUnknownPlan       = errors.New("unknown storage plan")
)

// legacy numeric selectors used by older booking forms
var planAliases = map[string]Plan{
	"hourly": PlanHourly,
	"daily":  PlanDaily,
	"weekly": PlanWeekly,
	"0":      PlanHourly,
	"1":      PlanDaily,
	"2":      PlanWeekly,
}

// ParsePlan resolves a plan selector, accepting the legacy "0", "1" and "2" aliases.
func ParsePlan(s string) (Plan, error) {
	p, ok := planAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPlan, s)
	}
	return p, nil
}

// Rates is the tariff table. All amounts are whole pesos.
type Rates struct {
	HourlyRate              int64 `json:"hourly_rate"`
	HourlyCap               int64 `json:"hourly_cap"`
	DailyRate               int64 `json:"daily_rate"`
	WeeklyRate              int64 `json:"weekly_rate"`
	LongStayDays            int   `json:"long_stay_days"`
	LongStayDiscountPercent int64 `json:"long_stay_discount_percent"`
}

// DefaultRates returns the reference tariff.
func DefaultRates() Rates {
	return Rates{
		HourlyRate:              1000,
		HourlyCap:               5000,
		DailyRate:               5000,
		WeeklyRate:              28000,
		LongStayDays:            7,
		LongStayDiscountPercent: 20,
	}
}

// Params carries the plan-specific quote inputs.
// Hours is only read by the hourly plan; zero means "not given" and counts as one hour.
type Params struct {
	Hours    int
	CheckIn  time.Time
	CheckOut time.Time
}

// Quoter computes booking totals from a fixed tariff.
type Quoter struct {
	rates Rates
}

func NewQuoter(rates Rates) *Quoter {
	return &Quoter{rates: rates}
}

// Rates returns the tariff the quoter was built with.
func (q *Quoter) Rates() Rates {
	return q.rates
}

// Quote returns the total for plan and params.
func (q *Quoter) Quote(plan Plan, params Params) (int64, error) {
	switch plan {
	case PlanHourly:
		return q.hourly(params.Hours)
	case PlanDaily:
		return q.daily(StayDays(params.CheckIn, params.CheckOut))
	case PlanWeekly:
		return q.weekly(StayDays(params.CheckIn, params.CheckOut))
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPlan, plan)
	}
}

func (q *Quoter) hourly(hours int) (int64, error) {
	if hours < 0 {
		return 0, ErrAmountUnavailable
	}
	if hours == 0 {
		hours = 1
	}
	if q.rates.HourlyRate > 0 && int64(hours) > q.rates.HourlyCap/q.rates.HourlyRate {
		return q.rates.HourlyCap, nil
	}
	amount := int64(hours) * q.rates.HourlyRate
	if amount > q.rates.HourlyCap {
		amount = q.rates.HourlyCap
	}
	return amount, nil
}

func (q *Quoter) daily(days int) (int64, error) {
	if days < 1 {
		return 0, ErrAmountUnavailable
	}
	subtotal := int64(days) * q.rates.DailyRate
	if days >= q.rates.LongStayDays {
		return roundDiv(subtotal*(100-q.rates.LongStayDiscountPercent), 100), nil
	}
	return subtotal, nil
}

func (q *Quoter) weekly(days int) (int64, error) {
	if days < 1 {
		return 0, ErrAmountUnavailable
	}
	if days <= 7 {
		return q.rates.WeeklyRate, nil
	}
	weeks := int64(days / 7)
	remainder := int64(days % 7)
	return weeks*q.rates.WeeklyRate + roundDiv(remainder*q.rates.WeeklyRate, 7), nil
}

// StayDays is the number of started 24h periods between checkIn and checkOut.
// Zero or negative spans yield 0.
func StayDays(checkIn, checkOut time.Time) int {
	span := checkOut.Sub(checkIn)
	if span <= 0 {
		return 0
	}
	days := int(span / (24 * time.Hour))
	if span%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// roundDiv divides non-negative n by d rounding half up.
func roundDiv(n, d int64) int64 {
	return (2*n + d) / (2 * d)
}
