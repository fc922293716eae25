package customer

import (
	"context"

	"github.com/biwswalker/movemate-ledger/id"
)

type Store interface {
	Create(ctx context.Context, c *Customer) error
	Get(ctx context.Context, custID id.CustomerID) (*Customer, error)
	GetByUserNumber(ctx context.Context, userNumber string) (*Customer, error)
	GetByEmail(ctx context.Context, email string) (*Customer, error)
	Update(ctx context.Context, c *Customer) error
	List(ctx context.Context, opts ListOpts) ([]*Customer, error)
}

type ListOpts struct {
	UserType UserType
	Status   Status
	Limit    int
	Offset   int
}
