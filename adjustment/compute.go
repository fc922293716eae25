package adjustment

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/biwswalker/movemate-ledger/types"
)

// TaxPolicy controls withholding tax applied to adjusted totals.
// Tax is charged only for business customers, and only when the
// adjusted subtotal strictly exceeds the threshold. The default is the
// Thai 1% withholding rate over ฿1000.
type TaxPolicy struct {
	Rate      decimal.Decimal
	Threshold types.Money
}

// DefaultTaxPolicy returns the platform default: 1% over ฿1000.
func DefaultTaxPolicy() TaxPolicy {
	return TaxPolicy{
		Rate:      decimal.RequireFromString("0.01"),
		Threshold: types.THB(1000),
	}
}

// Result is the arithmetic outcome of applying one adjustment note.
// Total = SubTotal - TaxAmount always holds: withholding tax is
// deducted by the payer, not added on top.
type Result struct {
	AdjustmentAmount types.Money
	SubTotal         types.Money
	TaxAmount        types.Money
	Total            types.Money
}

// Compute applies a debit or credit adjustment to a running subtotal
// and recomputes tax and total. It is a pure function: callers resolve
// the baseline (original invoice subtotal or previous note's subtotal)
// and persistence separately.
//
// An empty item list is permitted: a zero adjustment still produces a
// note, recording the correction for audit.
func Compute(noteType NoteType, previousSubTotal types.Money, items []LineItem, isBusiness bool, policy TaxPolicy) (Result, error) {
	adj := types.Zero(previousSubTotal.Currency)
	for i, item := range items {
		if item.Amount.IsNegative() {
			return Result{}, fmt.Errorf("adjustment: compute: line item %d (%q): amount must not be negative", i, item.Description)
		}
		adj = adj.Add(item.Amount)
	}

	var subTotal types.Money
	switch noteType {
	case TypeDebit:
		subTotal = previousSubTotal.Add(adj)
	case TypeCredit:
		subTotal = previousSubTotal.Subtract(adj)
		if subTotal.IsNegative() {
			return Result{}, fmt.Errorf("adjustment: compute: credit %s exceeds subtotal %s", adj, previousSubTotal)
		}
	default:
		return Result{}, fmt.Errorf("adjustment: compute: unknown note type %q", noteType)
	}

	tax := types.Zero(subTotal.Currency)
	if isBusiness && subTotal.GreaterThan(policy.Threshold) {
		tax = subTotal.MulRate(policy.Rate)
	}

	return Result{
		AdjustmentAmount: adj,
		SubTotal:         subTotal,
		TaxAmount:        tax,
		Total:            subTotal.Subtract(tax),
	}, nil
}
