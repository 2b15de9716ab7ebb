package models

import (
	"fmt"
	"math"
)

// HalfLifeBucket is one of a fixed set of disjoint, ordered ranges over
// reference half-life. A trade belongs to the first bucket whose upper bound
// is >= its half-life; the last bucket is unbounded above.
type HalfLifeBucket struct {
	Label string  `json:"label"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"` // +Inf for the terminal bucket
}

// NewHalfLifeBuckets derives the bucket set from ascending upper bounds,
// e.g. [3 7 14] -> "0-3d", "3-7d", "7-14d", "14d+".
func NewHalfLifeBuckets(bounds []float64) []HalfLifeBucket {
	buckets := make([]HalfLifeBucket, 0, len(bounds)+1)
	lower := 0.0
	for _, upper := range bounds {
		buckets = append(buckets, HalfLifeBucket{
			Label: fmt.Sprintf("%s-%sd", formatBound(lower), formatBound(upper)),
			Lower: lower,
			Upper: upper,
		})
		lower = upper
	}
	buckets = append(buckets, HalfLifeBucket{
		Label: fmt.Sprintf("%sd+", formatBound(lower)),
		Lower: lower,
		Upper: math.Inf(1),
	})
	return buckets
}

// AssignBucket places a reference half-life into a bucket. The boolean is
// false for invalid half-lives (nil, non-finite, zero, negative), which are
// excluded from all buckets.
func AssignBucket(buckets []HalfLifeBucket, halfLife *float64) (HalfLifeBucket, bool) {
	if halfLife == nil || math.IsNaN(*halfLife) || math.IsInf(*halfLife, 0) || *halfLife <= 0 {
		return HalfLifeBucket{}, false
	}
	for _, b := range buckets {
		if *halfLife <= b.Upper {
			return b, true
		}
	}
	// Unreachable while the terminal bucket is unbounded.
	return buckets[len(buckets)-1], true
}

func formatBound(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%d", int(v))
	}
	return fmt.Sprintf("%g", v)
}
