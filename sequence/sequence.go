// Package sequence defines the durable per-type monotonic counters that
// back document numbering. Each counter type owns an independent
// sequence; NextSequence atomically increments and returns the new
// value, so two concurrent callers can never observe the same number.
package sequence

import "context"

// CounterType names one independent counter.
type CounterType string

const (
	CounterIndividual CounterType = "individual"
	CounterBusiness   CounterType = "business"
	CounterInvoice    CounterType = "invoice"
	CounterDebitNote  CounterType = "debitnote"
	CounterCreditNote CounterType = "creditnote"
	CounterPayment    CounterType = "payment"
	CounterShipment   CounterType = "shipment"
)

// All lists every known counter type, in a stable order. Stores use it
// to seed rows and tests use it to sweep the counter space.
func All() []CounterType {
	return []CounterType{
		CounterIndividual,
		CounterBusiness,
		CounterInvoice,
		CounterDebitNote,
		CounterCreditNote,
		CounterPayment,
		CounterShipment,
	}
}

// Store issues sequence numbers. Implementations must make NextSequence
// atomic: the increment and read happen as one operation, and the
// counter never moves backwards. Counters start at zero, so the first
// issued value is 1. An unknown counter type is created on first use.
type Store interface {
	NextSequence(ctx context.Context, counter CounterType) (int64, error)
	// CurrentSequence returns the last issued value without consuming
	// one. Zero means nothing has been issued yet.
	CurrentSequence(ctx context.Context, counter CounterType) (int64, error)
}
