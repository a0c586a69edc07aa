package entities

import (
	"encoding/json"
	"math"
	"sort"
)

// ParsePrizePositions turns loosely-typed prize configuration JSON into a
// validated position table. Malformed items (null, wrong types, missing
// fields, non-positive or duplicate positions) are dropped; well-formed items
// among them still parse. The result is sorted ascending by position.
func ParsePrizePositions(raw json.RawMessage) []PrizePosition {
	if len(raw) == 0 {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}

	type looseItem struct {
		Position   *float64 `json:"position"`
		Percentage *float64 `json:"percentage"`
	}

	seen := make(map[int]bool, len(items))
	positions := make([]PrizePosition, 0, len(items))
	for _, item := range items {
		var loose looseItem
		if err := json.Unmarshal(item, &loose); err != nil {
			continue
		}
		if loose.Position == nil || loose.Percentage == nil {
			continue
		}
		rank := *loose.Position
		if rank < 1 || rank != math.Trunc(rank) {
			continue
		}
		percentage := *loose.Percentage
		if percentage < 0 || math.IsNaN(percentage) || math.IsInf(percentage, 0) {
			continue
		}
		position := int(rank)
		if seen[position] {
			continue
		}
		seen[position] = true
		positions = append(positions, PrizePosition{
			Position:   position,
			Percentage: percentage,
		})
	}

	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Position < positions[j].Position
	})
	return positions
}
