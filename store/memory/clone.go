package memory

import (
	"slices"
	"sort"

	"github.com/biwswalker/movemate-ledger/adjustment"
	"github.com/biwswalker/movemate-ledger/billing"
	"github.com/biwswalker/movemate-ledger/customer"
	"github.com/biwswalker/movemate-ledger/invoice"
	"github.com/biwswalker/movemate-ledger/payment"
)

// Records are cloned on the way in and out so a caller mutating a
// returned value, or its own argument after a staged write, can never
// corrupt committed state. That keeps aborted transactions genuinely
// invisible.

func cloneCustomer(c *customer.Customer) *customer.Customer {
	out := *c
	out.Metadata = cloneMap(c.Metadata)

	return &out
}

func cloneBilling(rec *billing.Record) *billing.Record {
	out := *rec
	out.AdjustmentNoteIDs = slices.Clone(rec.AdjustmentNoteIDs)
	out.Metadata = cloneMap(rec.Metadata)

	return &out
}

func cloneInvoice(inv *invoice.Invoice) *invoice.Invoice {
	out := *inv
	out.LineItems = slices.Clone(inv.LineItems)
	out.Metadata = cloneMap(inv.Metadata)
	if inv.Document != nil {
		doc := *inv.Document
		out.Document = &doc
	}

	return &out
}

func cloneNote(note *adjustment.Note) *adjustment.Note {
	out := *note
	out.LineItems = slices.Clone(note.LineItems)
	if note.Document != nil {
		doc := *note.Document
		out.Document = &doc
	}

	return &out
}

func clonePayment(p *payment.Payment) *payment.Payment {
	out := *p
	out.Metadata = cloneMap(p.Metadata)

	return &out
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}

	return out
}

func sortNotes(notes []*adjustment.Note) {
	sort.Slice(notes, func(i, j int) bool {
		if notes[i].IssueDate.Equal(notes[j].IssueDate) {
			return notes[i].DocumentNumber < notes[j].DocumentNumber
		}

		return notes[i].IssueDate.Before(notes[j].IssueDate)
	})
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}

	return items
}
