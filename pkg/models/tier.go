package models

// Tier represents a model capability level for task attempts.
// Tiers are ordered from cheapest to most capable; escalation walks
// the order left to right.
type Tier string

const (
	// TierFast is the cheap, low-latency model for first attempts.
	TierFast Tier = "fast"
	// TierDeep is the stronger reasoning model for harder tasks.
	TierDeep Tier = "deep"
	// TierReviewer is the most capable model, used as a last resort.
	TierReviewer Tier = "reviewer"
)

// TierOrder is the fixed escalation order, cheapest first.
var TierOrder = []Tier{TierFast, TierDeep, TierReviewer}

// Valid returns true if the tier is a known value.
func (t Tier) Valid() bool {
	switch t {
	case TierFast, TierDeep, TierReviewer:
		return true
	default:
		return false
	}
}

// Next returns the immediate successor tier in the escalation order.
// The second return value is false when t is the last tier (or unknown).
func (t Tier) Next() (Tier, bool) {
	for i, tier := range TierOrder {
		if tier == t && i+1 < len(TierOrder) {
			return TierOrder[i+1], true
		}
	}
	return "", false
}
