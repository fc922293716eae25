package billing

import (
	"time"

	"github.com/biwswalker/movemate-ledger/id"
	"github.com/biwswalker/movemate-ledger/types"
)

// Record is the mutable head of a billing cycle. It tracks the current
// amounts (as shifted by adjustment notes), the chain of adjustment
// notes, the latest payment attempt, and the cycle status.
type Record struct {
	types.Entity
	ID                id.BillingID      `json:"id"`
	CustomerID        id.CustomerID     `json:"customer_id"`
	InvoiceID         id.InvoiceID      `json:"invoice_id"`
	Status            Status            `json:"status"`
	State             State             `json:"state"`
	PaymentMethod     PaymentMethod     `json:"payment_method"`
	Currency          string            `json:"currency"`
	SubTotal          types.Money       `json:"sub_total"`
	TaxAmount         types.Money       `json:"tax_amount"`
	Total             types.Money       `json:"total"`
	AdjustmentNoteIDs []id.AdjustmentID `json:"adjustment_note_ids,omitempty"`
	LatestPaymentID   id.PaymentID      `json:"latest_payment_id,omitempty"`
	PeriodStart       time.Time         `json:"period_start"`
	PeriodEnd         time.Time         `json:"period_end"`
	IssueDate         time.Time         `json:"issue_date"`
	DueDate           time.Time         `json:"due_date"`
	PaidAt            *time.Time        `json:"paid_at,omitempty"`
	CancelledAt       *time.Time        `json:"cancelled_at,omitempty"`
	RefundedAt        *time.Time        `json:"refunded_at,omitempty"`
	Remark            string            `json:"remark,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

type State string

const (
	StateCurrent   State = "CURRENT"
	StateCompleted State = "COMPLETED"
)

type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "CASH"
	PaymentMethodCredit PaymentMethod = "CREDIT"
)
