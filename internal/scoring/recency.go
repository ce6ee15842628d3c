package scoring

import (
	"math"
	"time"
)

const (
	recencyMidpointDays = 365.0
	recencyScaleDays    = 180.0
	secondsPerDay       = 86400.0
)

// Recency is a logistic decay centred on one year: 0.5 at 365 days, about
// 0.877 for brand-new documents. An unknown timestamp (0) scores 0.5.
func Recency(ts int64, now time.Time) float64 {
	if ts == 0 {
		return 0.5
	}
	age := (float64(now.Unix()) - float64(ts)) / secondsPerDay
	if age < 0 {
		age = 0
	}
	return clamp01(1 / (1 + math.Exp((age-recencyMidpointDays)/recencyScaleDays)))
}
