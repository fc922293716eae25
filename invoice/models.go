package invoice

import (
	"time"

	"github.com/biwswalker/movemate-ledger/artifact"
	"github.com/biwswalker/movemate-ledger/id"
	"github.com/biwswalker/movemate-ledger/types"
)

// Invoice is the original billed document for a billing cycle. It is
// immutable after issue: corrections are recorded as adjustment notes
// that reference it, never as in-place edits.
type Invoice struct {
	types.Entity
	ID            id.InvoiceID       `json:"id"`
	InvoiceNumber string             `json:"invoice_number"` // IV2606001
	BillingID     id.BillingID       `json:"billing_id"`
	CustomerID    id.CustomerID      `json:"customer_id"`
	Currency      string             `json:"currency"`
	SubTotal      types.Money        `json:"sub_total"`
	TaxAmount     types.Money        `json:"tax_amount"`
	Total         types.Money        `json:"total"`
	LineItems     []LineItem         `json:"line_items"`
	IssueDate     time.Time          `json:"issue_date"`
	DueDate       *time.Time         `json:"due_date,omitempty"`
	Document      *artifact.Artifact `json:"document,omitempty"`
	Metadata      map[string]string  `json:"metadata,omitempty"`
}

type LineItem struct {
	Description string      `json:"description"`
	Quantity    int64       `json:"quantity"`
	UnitAmount  types.Money `json:"unit_amount"`
	Amount      types.Money `json:"amount"`
}
