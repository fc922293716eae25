package payment

import (
	"time"

	"github.com/biwswalker/movemate-ledger/id"
	"github.com/biwswalker/movemate-ledger/types"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusVerify    Status = "VERIFY" // bank slip uploaded, awaiting review
	StatusComplete  Status = "COMPLETE"
	StatusCancelled Status = "CANCELLED"
	StatusFailed    Status = "FAILED"
	StatusRefunded  Status = "REFUNDED"
)

type Method string

const (
	MethodCash   Method = "CASH"   // bank transfer per cycle
	MethodCredit Method = "CREDIT" // invoiced on credit terms
)

// Payment is one settlement attempt against a billing cycle. Amounts
// are snapshotted at creation so later adjustment notes supersede the
// pending payment rather than mutate it.
type Payment struct {
	types.Entity
	ID            id.PaymentID      `json:"id"`
	PaymentNumber string            `json:"payment_number"` // PAYCAS2606001
	BillingID     id.BillingID      `json:"billing_id"`
	CustomerID    id.CustomerID     `json:"customer_id"`
	Status        Status            `json:"status"`
	Method        Method            `json:"method"`
	Currency      string            `json:"currency"`
	SubTotal      types.Money       `json:"sub_total"`
	TaxAmount     types.Money       `json:"tax_amount"`
	Total         types.Money       `json:"total"`
	EvidenceURL   string            `json:"evidence_url,omitempty"`
	PaidAt        *time.Time        `json:"paid_at,omitempty"`
	CancelledAt   *time.Time        `json:"cancelled_at,omitempty"`
	Remark        string            `json:"remark,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// IsOpen reports whether the payment can still be cancelled or
// completed.
func (p *Payment) IsOpen() bool {
	return p.Status == StatusPending || p.Status == StatusVerify
}
