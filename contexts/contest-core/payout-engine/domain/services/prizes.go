package services

import (
	"math"

	domainerrors "crucible/contexts/contest-core/payout-engine/domain/errors"
)

// PrizeSplit is one position's share of the pool, as configured on the
// contest. Percentages are not required to sum to 100.
type PrizeSplit struct {
	Position   int
	Percentage float64
}

// PrizeAward is the computed payout for one position.
type PrizeAward struct {
	Position int
	Amount   int64
}

// CalculatePrizes turns a prize split into integer awards. Each amount is
// floored, so rounding remainders stay in the pool rather than being minted.
// Positions beyond the number of entries win nothing.
func CalculatePrizes(splits []PrizeSplit, totalPool int64, entryCount int) ([]PrizeAward, error) {
	if totalPool < 0 || entryCount < 0 {
		return nil, domainerrors.ErrInvalidPrizeInput
	}
	awards := make([]PrizeAward, 0, len(splits))
	for _, split := range splits {
		if split.Position < 1 || split.Percentage < 0 {
			return nil, domainerrors.ErrInvalidPrizeInput
		}
		if split.Position > entryCount {
			continue
		}
		amount := int64(math.Floor(split.Percentage / 100 * float64(totalPool)))
		awards = append(awards, PrizeAward{
			Position: split.Position,
			Amount:   amount,
		})
	}
	return awards, nil
}

// TotalDistributed sums the computed awards.
func TotalDistributed(awards []PrizeAward) int64 {
	var total int64
	for _, award := range awards {
		total += award.Amount
	}
	return total
}

// AmountForPosition returns the award for a position, zero when the position
// has no configured share.
func AmountForPosition(awards []PrizeAward, position int) int64 {
	for _, award := range awards {
		if award.Position == position {
			return award.Amount
		}
	}
	return 0
}
