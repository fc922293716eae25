package adjustment

import (
	"time"

	"github.com/biwswalker/movemate-ledger/artifact"
	"github.com/biwswalker/movemate-ledger/id"
	"github.com/biwswalker/movemate-ledger/types"
)

type NoteType string

const (
	TypeDebit  NoteType = "DEBIT_NOTE"
	TypeCredit NoteType = "CREDIT_NOTE"
)

type DocumentType string

const (
	DocumentInvoice    DocumentType = "INVOICE"
	DocumentDebitNote  DocumentType = "DEBIT_NOTE"
	DocumentCreditNote DocumentType = "CREDIT_NOTE"
)

// DocumentRef points at the document a note adjusts: the original
// invoice for the first note on a cycle, the previous note thereafter.
// Notes on a billing cycle form a singly linked chain through this ref.
type DocumentRef struct {
	DocumentNumber string       `json:"document_number"`
	DocumentType   DocumentType `json:"document_type"`
}

// Note is one append-only debit or credit adjustment against a billing
// cycle. Once written, a note is never modified except to attach the
// rendered document artifact.
type Note struct {
	types.Entity
	ID               id.AdjustmentID    `json:"id"`
	DocumentNumber   string             `json:"document_number"` // DR2606001 / CR2606001
	Type             NoteType           `json:"type"`
	BillingID        id.BillingID       `json:"billing_id"`
	CustomerID       id.CustomerID      `json:"customer_id"`
	PreviousDocument DocumentRef        `json:"previous_document"`
	LineItems        []LineItem         `json:"line_items"`
	AdjustmentAmount types.Money        `json:"adjustment_amount"`
	PreviousSubTotal types.Money        `json:"previous_sub_total"`
	SubTotal         types.Money        `json:"sub_total"` // running subtotal after this note
	TaxAmount        types.Money        `json:"tax_amount"`
	Total            types.Money        `json:"total"`
	IssueDate        time.Time          `json:"issue_date"`
	Remark           string             `json:"remark,omitempty"`
	Document         *artifact.Artifact `json:"document,omitempty"`
}

type LineItem struct {
	Description string      `json:"description"`
	Amount      types.Money `json:"amount"`
}

// RefType returns the document type a chain successor uses to point at
// this note.
func (n *Note) RefType() DocumentType {
	if n.Type == TypeCredit {
		return DocumentCreditNote
	}

	return DocumentDebitNote
}
