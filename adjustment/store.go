package adjustment

import (
	"context"

	"github.com/biwswalker/movemate-ledger/artifact"
	"github.com/biwswalker/movemate-ledger/id"
)

type Store interface {
	Create(ctx context.Context, note *Note) error
	Get(ctx context.Context, noteID id.AdjustmentID) (*Note, error)
	GetByNumber(ctx context.Context, documentNumber string) (*Note, error)
	ListByBilling(ctx context.Context, billingID id.BillingID) ([]*Note, error)
	AttachDocument(ctx context.Context, noteID id.AdjustmentID, art *artifact.Artifact) error
}
