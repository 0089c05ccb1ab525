package usecase

import (
	"math"

	"telegram-video-access/internal/domain/model"
)

type priceTier struct {
	count int
	price int64 // rubles for the whole bundle
}

// Anchor prices per bundle size. Sizes between anchors are interpolated.
var priceTiers = map[int][]priceTier{
	model.DurationWeek:  {{1, 300}, {5, 1200}, {10, 2300}},
	model.DurationMonth: {{1, 500}, {5, 2000}, {10, 3800}},
}

// CalculateTotal returns the bundle price in rubles for count lessons over durationDays.
// Unknown durations are priced as a month.
func CalculateTotal(count, durationDays int) int64 {
	if count <= 0 {
		return 0
	}
	tiers, ok := priceTiers[durationDays]
	if !ok {
		tiers = priceTiers[model.DurationMonth]
	}
	last := tiers[len(tiers)-1]
	if count >= last.count {
		return last.price
	}
	for i := 1; i < len(tiers); i++ {
		lo, hi := tiers[i-1], tiers[i]
		if count > hi.count {
			continue
		}
		if count <= lo.count {
			return lo.price
		}
		step := float64(hi.price-lo.price) / float64(hi.count-lo.count)
		return int64(math.Round(float64(lo.price) + step*float64(count-lo.count)))
	}
	return last.price
}
