package model

import (
	"math"
	"time"
)

const Day = 24 * time.Hour

// AccessGrant is the access window of one user to one video.
type AccessGrant struct {
	UserID      int64
	VideoID     int
	AccessUntil time.Time
}

func (g *AccessGrant) Active(asOf time.Time) bool { return g.AccessUntil.After(asOf) }

// ExtendAccess returns max(now, current) + days. A nil current means no prior grant.
func ExtendAccess(current *time.Time, now time.Time, days int) time.Time {
	base := now
	if current != nil && current.After(now) {
		base = *current
	}
	return base.Add(time.Duration(days) * Day)
}

// UserExpiry is the latest access_until across all grants of a user.
type UserExpiry struct {
	UserID   int64
	MaxUntil time.Time
}

// RemainingDays rounds the time left up to whole days.
func RemainingDays(until, now time.Time) int {
	left := until.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Seconds() / Day.Seconds()))
}
