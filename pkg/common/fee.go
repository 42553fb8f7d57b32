package common

import "github.com/quantarch/tradesim/pkg/utility/fixed"

type FeeType string
type FeeStatus string

const (
	FeeTypeSpread     FeeType = "spread"
	FeeTypeCommission FeeType = "commission"
	FeeTypeSwap       FeeType = "swap"
	FeeTypeMakerTaker FeeType = "maker-taker"
)

// Entry fees are booked Applied immediately; swap accrues Deferred night by
// night and settles to Applied with the close that pays it. Pending is
// reserved for fees computed ahead of booking, which the sandbox never does.
const (
	FeeStatusPending  FeeStatus = "pending"
	FeeStatusApplied  FeeStatus = "applied"
	FeeStatusDeferred FeeStatus = "deferred"
)

// Fee is one cost item attached to a position. Amounts are quoted in account
// currency; a position's total cost is the sum over its fee list.
type Fee struct {
	Type   FeeType     `json:"type"`
	Amount fixed.Point `json:"amount"`
	Status FeeStatus   `json:"status"`
}

// SumFees returns the total over all fee amounts regardless of status.
func SumFees(fees []Fee) fixed.Point {
	total := fixed.Zero
	for _, fee := range fees {
		total = total.Add(fee.Amount)
	}
	return total
}

// SumFeesByType returns the total for one fee type.
func SumFeesByType(fees []Fee, feeType FeeType) fixed.Point {
	total := fixed.Zero
	for _, fee := range fees {
		if fee.Type == feeType {
			total = total.Add(fee.Amount)
		}
	}
	return total
}
