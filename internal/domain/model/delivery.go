package model

import "time"

// MaxMessageLifetime caps how long a delivered video stays in the chat.
const MaxMessageLifetime = 24 * time.Hour

// ScheduledDeletion tracks one delivered message that must be removed at DeleteAfter.
type ScheduledDeletion struct {
	ID          string // UUID
	UserID      int64
	ChatID      int64
	MessageID   int
	DeleteAfter time.Time
	CreatedAt   time.Time
}

// DeleteAfter is min(accessUntil, now+lifetime). Privileged deliveries pass nil.
func DeleteAfter(accessUntil *time.Time, now time.Time, lifetime time.Duration) time.Time {
	if lifetime <= 0 {
		lifetime = MaxMessageLifetime
	}
	def := now.Add(lifetime)
	if accessUntil != nil && accessUntil.Before(def) {
		return *accessUntil
	}
	return def
}
