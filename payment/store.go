package payment

import (
	"context"

	"github.com/biwswalker/movemate-ledger/id"
)

type Store interface {
	Create(ctx context.Context, p *Payment) error
	Get(ctx context.Context, paymentID id.PaymentID) (*Payment, error)
	GetByNumber(ctx context.Context, paymentNumber string) (*Payment, error)
	Update(ctx context.Context, p *Payment) error
	ListByBilling(ctx context.Context, billingID id.BillingID) ([]*Payment, error)
}
