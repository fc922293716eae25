package store

import (
	"context"
	"time"

	"github.com/biwswalker/movemate-ledger/adjustment"
	"github.com/biwswalker/movemate-ledger/artifact"
	"github.com/biwswalker/movemate-ledger/billing"
	"github.com/biwswalker/movemate-ledger/customer"
	"github.com/biwswalker/movemate-ledger/id"
	"github.com/biwswalker/movemate-ledger/invoice"
	"github.com/biwswalker/movemate-ledger/payment"
	"github.com/biwswalker/movemate-ledger/sequence"
	"github.com/biwswalker/movemate-ledger/txn"
)

// Store is the unified storage interface for all ledger entities.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
//
// Every method joins the transaction carried by ctx (see txn.FromContext)
// when one is present; otherwise it runs standalone.
type Store interface {
	// Transactions
	txn.Provider

	// Sequence methods
	NextSequence(ctx context.Context, counter sequence.CounterType) (int64, error)
	CurrentSequence(ctx context.Context, counter sequence.CounterType) (int64, error)

	// Customer methods
	CreateCustomer(ctx context.Context, c *customer.Customer) error
	GetCustomer(ctx context.Context, custID id.CustomerID) (*customer.Customer, error)
	GetCustomerByUserNumber(ctx context.Context, userNumber string) (*customer.Customer, error)
	GetCustomerByEmail(ctx context.Context, email string) (*customer.Customer, error)
	UpdateCustomer(ctx context.Context, c *customer.Customer) error
	ListCustomers(ctx context.Context, opts customer.ListOpts) ([]*customer.Customer, error)

	// Billing methods
	CreateBilling(ctx context.Context, rec *billing.Record) error
	GetBilling(ctx context.Context, billingID id.BillingID) (*billing.Record, error)
	UpdateBilling(ctx context.Context, rec *billing.Record) error
	ListBillingByCustomer(ctx context.Context, custID id.CustomerID, opts billing.ListOpts) ([]*billing.Record, error)
	ListBillingDueBefore(ctx context.Context, cutoff time.Time) ([]*billing.Record, error)

	// Invoice methods
	CreateInvoice(ctx context.Context, inv *invoice.Invoice) error
	GetInvoice(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, error)
	GetInvoiceByNumber(ctx context.Context, invoiceNumber string) (*invoice.Invoice, error)
	ListInvoicesByCustomer(ctx context.Context, custID id.CustomerID, opts invoice.ListOpts) ([]*invoice.Invoice, error)

	// Adjustment note methods
	CreateAdjustment(ctx context.Context, note *adjustment.Note) error
	GetAdjustment(ctx context.Context, noteID id.AdjustmentID) (*adjustment.Note, error)
	GetAdjustmentByNumber(ctx context.Context, documentNumber string) (*adjustment.Note, error)
	ListAdjustmentsByBilling(ctx context.Context, billingID id.BillingID) ([]*adjustment.Note, error)
	AttachAdjustmentDocument(ctx context.Context, noteID id.AdjustmentID, art *artifact.Artifact) error

	// Payment methods
	CreatePayment(ctx context.Context, p *payment.Payment) error
	GetPayment(ctx context.Context, paymentID id.PaymentID) (*payment.Payment, error)
	GetPaymentByNumber(ctx context.Context, paymentNumber string) (*payment.Payment, error)
	UpdatePayment(ctx context.Context, p *payment.Payment) error
	ListPaymentsByBilling(ctx context.Context, billingID id.BillingID) ([]*payment.Payment, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
