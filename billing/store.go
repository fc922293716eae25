package billing

import (
	"context"
	"time"

	"github.com/biwswalker/movemate-ledger/id"
)

type Store interface {
	Create(ctx context.Context, rec *Record) error
	Get(ctx context.Context, billingID id.BillingID) (*Record, error)
	Update(ctx context.Context, rec *Record) error
	ListByCustomer(ctx context.Context, custID id.CustomerID, opts ListOpts) ([]*Record, error)
	ListDueBefore(ctx context.Context, cutoff time.Time) ([]*Record, error)
}

type ListOpts struct {
	Status Status
	Limit  int
	Offset int
}
