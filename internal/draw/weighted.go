package draw

import "shinsen_rewards/internal/domain" // Importing domain models

// SelectPrizeIndex walks weights in order and returns the first index whose
// running sum of weights[0..i] is >= sample. A zero weight is still a
// candidate, so sample 0 selects index 0. Negative weights count as zero.
// The second result is false when the running sum never reaches sample,
// which happens when the weights sum to less than one.
func SelectPrizeIndex(weights []float64, sample float64) (int, bool) {
	var cum float64
	for i, w := range weights {
		if w > 0 {
			cum += w
		}
		if cum >= sample {
			return i, true
		}
	}
	return -1, false
}

// FallbackIndex picks the prize used when the weighted walk finds nothing:
// the first no-op entry, else the first entry. Returns -1 for an empty table.
func FallbackIndex(table []domain.PrizeEntry) int {
	if len(table) == 0 {
		return -1
	}
	for i, p := range table {
		if p.Kind == domain.PayoutNone {
			return i
		}
	}
	return 0
}

// Pick selects a prize from an ordinal-ordered table for the given sample.
// matched is false when the fallback policy was used.
func Pick(table []domain.PrizeEntry, sample float64) (idx int, matched bool) {
	weights := make([]float64, len(table))
	for i, p := range table {
		weights[i] = p.Weight
	}
	if idx, ok := SelectPrizeIndex(weights, sample); ok {
		return idx, true
	}
	return FallbackIndex(table), false
}
