// Package artifact generates and describes rendered document files
// (PDF invoices, debit/credit notes, payment receipts).
//
// Artifact generation runs after the owning transaction commits. A
// failed generation never rolls back ledger state; the document can be
// regenerated from the stored record at any time.
package artifact

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/biwswalker/movemate-ledger/id"
)

// DocumentKind names the document class an artifact renders.
type DocumentKind string

const (
	KindInvoice    DocumentKind = "invoice"
	KindDebitNote  DocumentKind = "debit_note"
	KindCreditNote DocumentKind = "credit_note"
	KindReceipt    DocumentKind = "receipt"
)

// Artifact is a reference to a generated document file.
type Artifact struct {
	ID          id.ArtifactID `json:"id"`
	Kind        DocumentKind  `json:"kind"`
	FileName    string        `json:"file_name"`
	FilePath    string        `json:"file_path"`
	ContentType string        `json:"content_type"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// Request carries everything a Generator needs to render a document.
// Payload is the full domain record (invoice, adjustment note, payment)
// being rendered; generators type-switch on it.
type Request struct {
	Kind           DocumentKind
	DocumentNumber string
	Payload        any
}

// Generator renders a document file and returns its artifact reference.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Artifact, error)
}

// Noop is a Generator that records the artifact reference without
// rendering a file. It is the default when no generator is configured,
// and what tests use.
type Noop struct{}

func NewNoop() *Noop { return &Noop{} }

func (n *Noop) Generate(_ context.Context, req Request) (*Artifact, error) {
	if req.DocumentNumber == "" {
		return nil, fmt.Errorf("artifact: generate: missing document number")
	}

	name := strings.ToLower(req.DocumentNumber) + ".pdf"

	return &Artifact{
		ID:          id.NewArtifactID(),
		Kind:        req.Kind,
		FileName:    name,
		FilePath:    "generated/" + string(req.Kind) + "/" + name,
		ContentType: "application/pdf",
		GeneratedAt: time.Now().UTC(),
	}, nil
}
