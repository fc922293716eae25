package invoice

import (
	"context"

	"github.com/biwswalker/movemate-ledger/id"
)

type Store interface {
	Create(ctx context.Context, inv *Invoice) error
	Get(ctx context.Context, invID id.InvoiceID) (*Invoice, error)
	GetByNumber(ctx context.Context, invoiceNumber string) (*Invoice, error)
	ListByCustomer(ctx context.Context, custID id.CustomerID, opts ListOpts) ([]*Invoice, error)
	AttachDocument(ctx context.Context, invID id.InvoiceID, artifactID id.ArtifactID) error
}

type ListOpts struct {
	Limit  int
	Offset int
}
