// Package docnum formats human-facing document numbers.
//
// A document number is {prefix}{period}{sequence}: a fixed kind prefix,
// the issue period as YYMM, and the sequence number zero-padded to the
// kind's width. Example: the first debit note of June 2026 is
// "DR2606001". Sequences larger than the pad width keep all their
// digits, the number just grows longer.
package docnum

import (
	"context"
	"fmt"
	"time"

	"github.com/biwswalker/movemate-ledger/sequence"
)

// Platform operates on Thailand time. Periods are bucketed in a fixed
// UTC+7 zone so numbering does not depend on host tzdata.
var bangkok = time.FixedZone("ICT", 7*60*60)

// Period is a YYMM issue period, e.g. "2606" for June 2026.
type Period string

// PeriodOf returns the issue period for t in platform time.
func PeriodOf(t time.Time) Period {
	return Period(t.In(bangkok).Format("0601"))
}

// Kind identifies a numbered document class.
type Kind string

const (
	KindInvoice            Kind = "invoice"
	KindDebitNote          Kind = "debit_note"
	KindCreditNote         Kind = "credit_note"
	KindPayment            Kind = "payment"
	KindIndividualCustomer Kind = "individual_customer"
	KindBusinessCustomer   Kind = "business_customer"
	KindShipment           Kind = "shipment"
)

// Spec binds a kind to its prefix, backing counter, and pad width.
type Spec struct {
	Prefix  string
	Counter sequence.CounterType
	Width   int
}

var specs = map[Kind]Spec{
	KindInvoice:            {Prefix: "IV", Counter: sequence.CounterInvoice, Width: 3},
	KindDebitNote:          {Prefix: "DR", Counter: sequence.CounterDebitNote, Width: 3},
	KindCreditNote:         {Prefix: "CR", Counter: sequence.CounterCreditNote, Width: 3},
	KindPayment:            {Prefix: "PAYCAS", Counter: sequence.CounterPayment, Width: 3},
	KindIndividualCustomer: {Prefix: "MMI", Counter: sequence.CounterIndividual, Width: 4},
	KindBusinessCustomer:   {Prefix: "MMB", Counter: sequence.CounterBusiness, Width: 4},
	KindShipment:           {Prefix: "SH", Counter: sequence.CounterShipment, Width: 4},
}

// Lookup returns the numbering spec for a kind.
func Lookup(kind Kind) (Spec, error) {
	spec, ok := specs[kind]
	if !ok {
		return Spec{}, fmt.Errorf("docnum: unknown document kind %q", kind)
	}

	return spec, nil
}

// Format renders a document number. seq is zero-padded to width; wider
// values are never truncated.
func Format(prefix string, period Period, seq int64, width int) string {
	return fmt.Sprintf("%s%s%0*d", prefix, period, width, seq)
}

// Next draws the next sequence value for kind from store and formats
// the document number for the period containing at.
func Next(ctx context.Context, store sequence.Store, kind Kind, at time.Time) (string, error) {
	spec, err := Lookup(kind)
	if err != nil {
		return "", err
	}

	seq, err := store.NextSequence(ctx, spec.Counter)
	if err != nil {
		return "", fmt.Errorf("docnum: next %s: %w", kind, err)
	}

	return Format(spec.Prefix, PeriodOf(at), seq, spec.Width), nil
}
