package model

import (
	"sort"
	"time"

	"telegram-video-access/internal/domain"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending" // link issued; awaiting gateway confirmation
	PaymentStatusSuccess PaymentStatus = "success" // confirmed by the gateway and fulfilled
)

// Access durations a payment may buy, in days.
const (
	DurationWeek  = 7
	DurationMonth = 30
)

// Payment records one purchase intent. Amount, VideoIDs and DurationDays are fixed at creation.
type Payment struct {
	ID           string // UUID
	UserID       int64  // Telegram user id
	Label        string // correlation token matched against the gateway's operation history
	Amount       int64  // whole rubles
	Status       PaymentStatus
	VideoIDs     []int // sorted, unique
	DurationDays int
	CreatedAt    time.Time
	PaidAt       *time.Time // set on success
}

// NewPayment validates the purchase request and returns a pending payment.
func NewPayment(id string, userID int64, label string, amount int64, videoIDs []int, durationDays int, now time.Time) (*Payment, error) {
	if id == "" || userID == 0 || label == "" || amount < 0 {
		return nil, domain.ErrInvalidArgument
	}
	if !ValidDuration(durationDays) {
		return nil, domain.ErrInvalidArgument
	}
	ids := NormalizeVideoIDs(videoIDs)
	if len(ids) == 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &Payment{
		ID:           id,
		UserID:       userID,
		Label:        label,
		Amount:       amount,
		Status:       PaymentStatusPending,
		VideoIDs:     ids,
		DurationDays: durationDays,
		CreatedAt:    now,
	}, nil
}

func (p *Payment) IsPending() bool { return p != nil && p.Status == PaymentStatusPending }

// Matches reports whether the payment was created for exactly this selection.
func (p *Payment) Matches(videoIDs []int, durationDays int) bool {
	if p.DurationDays != durationDays {
		return false
	}
	want := NormalizeVideoIDs(videoIDs)
	if len(want) != len(p.VideoIDs) {
		return false
	}
	for i := range want {
		if want[i] != p.VideoIDs[i] {
			return false
		}
	}
	return true
}

func ValidDuration(days int) bool { return days == DurationWeek || days == DurationMonth }

// NormalizeVideoIDs returns a sorted copy without duplicates and non-positive ids.
func NormalizeVideoIDs(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}
