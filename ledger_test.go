package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/biwswalker/movemate-ledger"
	"github.com/biwswalker/movemate-ledger/adjustment"
	"github.com/biwswalker/movemate-ledger/billing"
	"github.com/biwswalker/movemate-ledger/customer"
	"github.com/biwswalker/movemate-ledger/invoice"
	"github.com/biwswalker/movemate-ledger/payment"
	"github.com/biwswalker/movemate-ledger/store"
	"github.com/biwswalker/movemate-ledger/store/memory"
	"github.com/biwswalker/movemate-ledger/types"
)

// issueDate pins every document to period 2606 so numbers are
// deterministic regardless of when the tests run.
var issueDate = time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)

func newTestLedger(t *testing.T, s store.Store) *ledger.Ledger {
	t.Helper()

	l := ledger.New(s)
	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = l.Stop() })

	return l
}

func registerCustomer(t *testing.T, l *ledger.Ledger, userType customer.UserType) *customer.Customer {
	t.Helper()

	c := &customer.Customer{
		UserType: userType,
		FullName: "Somchai Transport",
		Email:    string(userType) + "@movemate.example",
	}
	if err := l.RegisterCustomer(context.Background(), c); err != nil {
		t.Fatalf("RegisterCustomer: %v", err)
	}

	return c
}

func openBilling(t *testing.T, l *ledger.Ledger, cust *customer.Customer, amount float64) *ledger.BillingCycle {
	t.Helper()

	cycle, err := l.OpenBillingCycle(context.Background(), ledger.OpenBillingInput{
		CustomerID: cust.ID,
		LineItems: []invoice.LineItem{
			{
				Description: "Freight BKK-CNX",
				Quantity:    1,
				UnitAmount:  types.THB(amount),
				Amount:      types.THB(amount),
			},
		},
		IssueDate: issueDate,
	})
	if err != nil {
		t.Fatalf("OpenBillingCycle: %v", err)
	}

	return cycle
}

func debitNote(t *testing.T, l *ledger.Ledger, cycle *ledger.BillingCycle, amount float64) *ledger.AdjustmentOutcome {
	t.Helper()

	out, err := l.CreateAdjustmentNote(context.Background(), ledger.AdjustmentInput{
		BillingID: cycle.Record.ID,
		Type:      adjustment.TypeDebit,
		LineItems: []adjustment.LineItem{{Description: "Additional drop point", Amount: types.THB(amount)}},
		IssueDate: issueDate,
	})
	if err != nil {
		t.Fatalf("CreateAdjustmentNote: %v", err)
	}

	return out
}

func TestEndToEndDebitNote(t *testing.T) {
	l := newTestLedger(t, memory.New())
	cust := registerCustomer(t, l, customer.UserTypeBusiness)

	cycle := openBilling(t, l, cust, 5000)
	if cycle.Invoice.InvoiceNumber != "IV2606001" {
		t.Errorf("invoice number = %q, want IV2606001", cycle.Invoice.InvoiceNumber)
	}

	out := debitNote(t, l, cycle, 300)

	if out.Note.DocumentNumber != "DR2606001" {
		t.Errorf("note number = %q, want DR2606001", out.Note.DocumentNumber)
	}
	if out.Note.PreviousDocument.DocumentNumber != cycle.Invoice.InvoiceNumber {
		t.Errorf("previous document = %q, want %q", out.Note.PreviousDocument.DocumentNumber, cycle.Invoice.InvoiceNumber)
	}
	if out.Note.PreviousDocument.DocumentType != adjustment.DocumentInvoice {
		t.Errorf("previous document type = %q, want INVOICE", out.Note.PreviousDocument.DocumentType)
	}

	rec, err := l.GetBilling(context.Background(), cycle.Record.ID)
	if err != nil {
		t.Fatalf("GetBilling: %v", err)
	}
	if !rec.SubTotal.Equal(types.THB(5300)) {
		t.Errorf("subtotal = %s, want 5300", rec.SubTotal.FormatMajor())
	}
	if !rec.TaxAmount.Equal(types.THB(53)) {
		t.Errorf("tax = %s, want 53", rec.TaxAmount.FormatMajor())
	}
	if !rec.Total.Equal(types.THB(5247)) {
		t.Errorf("total = %s, want 5247", rec.Total.FormatMajor())
	}

	pays, err := l.ListPayments(context.Background(), cycle.Record.ID)
	if err != nil {
		t.Fatalf("ListPayments: %v", err)
	}
	open := 0
	for _, p := range pays {
		if p.IsOpen() {
			open++
			if !p.Total.Equal(types.THB(5247)) {
				t.Errorf("pending payment total = %s, want 5247", p.Total.FormatMajor())
			}
		}
	}
	if open != 1 {
		t.Fatalf("open payments = %d, want exactly 1", open)
	}

	if out.Note.Document == nil {
		t.Error("expected document artifact attached to note")
	}
}

func TestNoteChainIntegrity(t *testing.T) {
	l := newTestLedger(t, memory.New())
	cust := registerCustomer(t, l, customer.UserTypeBusiness)
	cycle := openBilling(t, l, cust, 5000)

	first := debitNote(t, l, cycle, 300)

	second, err := l.CreateAdjustmentNote(context.Background(), ledger.AdjustmentInput{
		BillingID: cycle.Record.ID,
		Type:      adjustment.TypeCredit,
		LineItems: []adjustment.LineItem{{Description: "Service not rendered", Amount: types.THB(100)}},
		IssueDate: issueDate,
	})
	if err != nil {
		t.Fatalf("second note: %v", err)
	}

	third := debitNote(t, l, cycle, 50)

	if got := second.Note.PreviousDocument; got.DocumentNumber != first.Note.DocumentNumber || got.DocumentType != adjustment.DocumentDebitNote {
		t.Errorf("second note chains to %+v, want {%s DEBIT_NOTE}", got, first.Note.DocumentNumber)
	}
	if got := third.Note.PreviousDocument; got.DocumentNumber != second.Note.DocumentNumber || got.DocumentType != adjustment.DocumentCreditNote {
		t.Errorf("third note chains to %+v, want {%s CREDIT_NOTE}", got, second.Note.DocumentNumber)
	}

	// Baselines carry forward: each note's previous subtotal is the
	// prior document's subtotal.
	if !second.Note.PreviousSubTotal.Equal(first.Note.SubTotal) {
		t.Errorf("second note previous subtotal = %s, want %s",
			second.Note.PreviousSubTotal.FormatMajor(), first.Note.SubTotal.FormatMajor())
	}
	if !third.Note.SubTotal.Equal(types.THB(5250)) {
		t.Errorf("final subtotal = %s, want 5250", third.Note.SubTotal.FormatMajor())
	}

	notes, err := l.ListAdjustments(context.Background(), cycle.Record.ID)
	if err != nil {
		t.Fatalf("ListAdjustments: %v", err)
	}
	if len(notes) != 3 {
		t.Fatalf("notes = %d, want 3", len(notes))
	}
}

func TestBaselineFollowsLatestIssueDate(t *testing.T) {
	l := newTestLedger(t, memory.New())
	cust := registerCustomer(t, l, customer.UserTypeBusiness)
	cycle := openBilling(t, l, cust, 5000)

	first := debitNote(t, l, cycle, 300)

	// A backdated correction does not become the chain head.
	backdated, err := l.CreateAdjustmentNote(context.Background(), ledger.AdjustmentInput{
		BillingID: cycle.Record.ID,
		Type:      adjustment.TypeDebit,
		LineItems: []adjustment.LineItem{{Description: "Late-reported surcharge", Amount: types.THB(100)}},
		IssueDate: issueDate.Add(-24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("backdated note: %v", err)
	}
	if backdated.Note.PreviousDocument.DocumentNumber != first.Note.DocumentNumber {
		t.Errorf("backdated note chains to %q, want %q", backdated.Note.PreviousDocument.DocumentNumber, first.Note.DocumentNumber)
	}

	third := debitNote(t, l, cycle, 50)

	// The baseline is the note with the latest issue date, which is also
	// the last element of the listed (issue-date ordered) chain.
	if third.Note.PreviousDocument.DocumentNumber != first.Note.DocumentNumber {
		t.Errorf("third note chains to %q, want latest-issued %q", third.Note.PreviousDocument.DocumentNumber, first.Note.DocumentNumber)
	}
	if !third.Note.PreviousSubTotal.Equal(first.Note.SubTotal) {
		t.Errorf("third note previous subtotal = %s, want %s",
			third.Note.PreviousSubTotal.FormatMajor(), first.Note.SubTotal.FormatMajor())
	}

	notes, err := l.ListAdjustments(context.Background(), cycle.Record.ID)
	if err != nil {
		t.Fatalf("ListAdjustments: %v", err)
	}
	if got := notes[len(notes)-1].DocumentNumber; got != third.Note.DocumentNumber {
		t.Errorf("latest listed note = %q, want %q", got, third.Note.DocumentNumber)
	}
}

func TestInactiveCustomerCannotOpenBilling(t *testing.T) {
	s := memory.New()
	l := newTestLedger(t, s)
	cust := registerCustomer(t, l, customer.UserTypeBusiness)

	cust.Status = customer.StatusBanned
	if err := s.UpdateCustomer(context.Background(), cust); err != nil {
		t.Fatalf("UpdateCustomer: %v", err)
	}

	_, err := l.OpenBillingCycle(context.Background(), ledger.OpenBillingInput{
		CustomerID: cust.ID,
		LineItems: []invoice.LineItem{
			{Description: "Freight", Quantity: 1, UnitAmount: types.THB(100), Amount: types.THB(100)},
		},
		IssueDate: issueDate,
	})
	if !errors.Is(err, ledger.ErrCustomerInactive) {
		t.Errorf("err = %v, want ErrCustomerInactive", err)
	}
}

func TestPendingPaymentReissueIsIdempotent(t *testing.T) {
	l := newTestLedger(t, memory.New())
	cust := registerCustomer(t, l, customer.UserTypeBusiness)
	cycle := openBilling(t, l, cust, 5000)

	debitNote(t, l, cycle, 300)
	out := debitNote(t, l, cycle, 200)

	pays, err := l.ListPayments(context.Background(), cycle.Record.ID)
	if err != nil {
		t.Fatalf("ListPayments: %v", err)
	}
	if len(pays) != 3 {
		t.Fatalf("payments = %d, want 3 (initial plus one per note)", len(pays))
	}

	open := 0
	for _, p := range pays {
		if p.IsOpen() {
			open++
			if p.ID != out.Payment.ID {
				t.Errorf("open payment is %s, want latest %s", p.ID, out.Payment.ID)
			}
		} else if p.Status != payment.StatusCancelled {
			t.Errorf("superseded payment %s has status %s, want CANCELLED", p.ID, p.Status)
		}
	}
	if open != 1 {
		t.Fatalf("open payments after second note = %d, want exactly 1", open)
	}
}

func TestIndividualCustomerPaysNoTax(t *testing.T) {
	l := newTestLedger(t, memory.New())
	cust := registerCustomer(t, l, customer.UserTypeIndividual)
	cycle := openBilling(t, l, cust, 5000)

	out := debitNote(t, l, cycle, 300)

	if !out.Note.TaxAmount.IsZero() {
		t.Errorf("individual tax = %s, want 0", out.Note.TaxAmount.FormatMajor())
	}
	if !out.Note.Total.Equal(types.THB(5300)) {
		t.Errorf("total = %s, want 5300", out.Note.Total.FormatMajor())
	}
	if cust.UserNumber[:3] != "MMI" {
		t.Errorf("user number = %q, want MMI prefix", cust.UserNumber)
	}
}

func TestEmptyLineItemsIsAuditedNoOp(t *testing.T) {
	l := newTestLedger(t, memory.New())
	cust := registerCustomer(t, l, customer.UserTypeBusiness)
	cycle := openBilling(t, l, cust, 5000)
	before := cycle.Payment.ID

	out, err := l.CreateAdjustmentNote(context.Background(), ledger.AdjustmentInput{
		BillingID: cycle.Record.ID,
		Type:      adjustment.TypeDebit,
		IssueDate: issueDate,
		Remark:    "voided correction",
	})
	if err != nil {
		t.Fatalf("CreateAdjustmentNote: %v", err)
	}

	if !out.Note.AdjustmentAmount.IsZero() {
		t.Errorf("adjustment amount = %s, want 0", out.Note.AdjustmentAmount.FormatMajor())
	}
	if !out.Billing.SubTotal.Equal(types.THB(5000)) {
		t.Errorf("subtotal = %s, want unchanged 5000", out.Billing.SubTotal.FormatMajor())
	}
	// The note is still recorded and the payment still reissued.
	if out.Payment.ID == before {
		t.Error("expected a fresh pending payment")
	}
	notes, _ := l.ListAdjustments(context.Background(), cycle.Record.ID)
	if len(notes) != 1 {
		t.Fatalf("notes = %d, want 1", len(notes))
	}
}

// failingStore injects a payment-write failure to prove the whole
// adjustment aborts as one unit.
type failingStore struct {
	store.Store
	failPayments bool
}

func (f *failingStore) CreatePayment(ctx context.Context, p *payment.Payment) error {
	if f.failPayments {
		return errors.New("disk full")
	}

	return f.Store.CreatePayment(ctx, p)
}

func TestAdjustmentIsAtomicUnderPaymentFailure(t *testing.T) {
	fs := &failingStore{Store: memory.New()}
	l := newTestLedger(t, fs)
	cust := registerCustomer(t, l, customer.UserTypeBusiness)
	cycle := openBilling(t, l, cust, 5000)

	fs.failPayments = true
	_, err := l.CreateAdjustmentNote(context.Background(), ledger.AdjustmentInput{
		BillingID: cycle.Record.ID,
		Type:      adjustment.TypeDebit,
		LineItems: []adjustment.LineItem{{Description: "Extra", Amount: types.THB(300)}},
		IssueDate: issueDate,
	})
	if err == nil {
		t.Fatal("expected injected failure to surface")
	}
	fs.failPayments = false

	rec, err := l.GetBilling(context.Background(), cycle.Record.ID)
	if err != nil {
		t.Fatalf("GetBilling: %v", err)
	}
	if len(rec.AdjustmentNoteIDs) != 0 {
		t.Errorf("note IDs survived aborted transaction: %v", rec.AdjustmentNoteIDs)
	}
	if !rec.Total.Equal(cycle.Record.Total) {
		t.Errorf("total = %s, want pre-attempt %s", rec.Total.FormatMajor(), cycle.Record.Total.FormatMajor())
	}

	notes, _ := l.ListAdjustments(context.Background(), cycle.Record.ID)
	if len(notes) != 0 {
		t.Fatalf("notes = %d after abort, want 0", len(notes))
	}

	pays, _ := l.ListPayments(context.Background(), cycle.Record.ID)
	if len(pays) != 1 || !pays[0].IsOpen() {
		t.Fatalf("expected the original pending payment untouched, got %d payments", len(pays))
	}
}

func TestAdjustmentRejectedOnClosedBilling(t *testing.T) {
	l := newTestLedger(t, memory.New())
	cust := registerCustomer(t, l, customer.UserTypeBusiness)
	cycle := openBilling(t, l, cust, 5000)

	if _, err := l.CancelBilling(context.Background(), cycle.Record.ID, "customer cancelled shipment"); err != nil {
		t.Fatalf("CancelBilling: %v", err)
	}

	_, err := l.CreateAdjustmentNote(context.Background(), ledger.AdjustmentInput{
		BillingID: cycle.Record.ID,
		Type:      adjustment.TypeDebit,
		LineItems: []adjustment.LineItem{{Description: "Extra", Amount: types.THB(300)}},
	})
	if !errors.Is(err, ledger.ErrBillingClosed) {
		t.Errorf("err = %v, want ErrBillingClosed", err)
	}
}

func TestInputValidatedBeforeTransaction(t *testing.T) {
	l := newTestLedger(t, memory.New())

	_, err := l.CreateAdjustmentNote(context.Background(), ledger.AdjustmentInput{
		Type: adjustment.TypeDebit,
	})
	var ve ledger.ValidationError
	if !errors.As(err, &ve) || ve.Field != "billing_id" {
		t.Errorf("err = %v, want ValidationError on billing_id", err)
	}

	cust := registerCustomer(t, l, customer.UserTypeBusiness)
	cycle := openBilling(t, l, cust, 5000)
	_, err = l.CreateAdjustmentNote(context.Background(), ledger.AdjustmentInput{
		BillingID: cycle.Record.ID,
		Type:      "MEMO",
	})
	if !errors.As(err, &ve) || ve.Field != "type" {
		t.Errorf("err = %v, want ValidationError on type", err)
	}
}

func TestSettlementAndRefundFlow(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, memory.New())
	cust := registerCustomer(t, l, customer.UserTypeBusiness)
	cycle := openBilling(t, l, cust, 5000)

	if _, err := l.SubmitPayment(ctx, cycle.Record.ID, "https://cdn.example/slip.jpg"); err != nil {
		t.Fatalf("SubmitPayment: %v", err)
	}
	rec, err := l.ConfirmPayment(ctx, cycle.Record.ID)
	if err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}
	if rec.Status != billing.StatusPaid || rec.PaidAt == nil {
		t.Fatalf("status = %s, paidAt = %v, want PAID with timestamp", rec.Status, rec.PaidAt)
	}

	pay, err := l.GetPayment(ctx, rec.LatestPaymentID)
	if err != nil {
		t.Fatalf("GetPayment: %v", err)
	}
	if pay.Status != payment.StatusComplete {
		t.Errorf("payment status = %s, want COMPLETE", pay.Status)
	}

	if _, err := l.StartRefund(ctx, cycle.Record.ID, "duplicate charge"); err != nil {
		t.Fatalf("StartRefund: %v", err)
	}
	rec, err = l.CompleteRefund(ctx, cycle.Record.ID)
	if err != nil {
		t.Fatalf("CompleteRefund: %v", err)
	}
	if rec.Status != billing.StatusRefunded || rec.RefundedAt == nil {
		t.Fatalf("status = %s, want REFUNDED with timestamp", rec.Status)
	}

	pay, _ = l.GetPayment(ctx, rec.LatestPaymentID)
	if pay.Status != payment.StatusRefunded {
		t.Errorf("payment status = %s, want REFUNDED", pay.Status)
	}

	// Terminal states reject further transitions.
	if _, err := l.MarkOverdue(ctx, cycle.Record.ID); !errors.Is(err, ledger.ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestSweepOverdue(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, memory.New())
	cust := registerCustomer(t, l, customer.UserTypeBusiness)
	cycle := openBilling(t, l, cust, 5000)

	marked, err := l.SweepOverdue(ctx, issueDate.Add(30*24*time.Hour))
	if err != nil {
		t.Fatalf("SweepOverdue: %v", err)
	}
	if marked != 1 {
		t.Fatalf("marked = %d, want 1", marked)
	}

	rec, _ := l.GetBilling(ctx, cycle.Record.ID)
	if rec.Status != billing.StatusOverdue {
		t.Errorf("status = %s, want OVERDUE", rec.Status)
	}

	// Second sweep finds nothing to do.
	marked, err = l.SweepOverdue(ctx, issueDate.Add(60*24*time.Hour))
	if err != nil {
		t.Fatalf("second SweepOverdue: %v", err)
	}
	if marked != 0 {
		t.Errorf("second sweep marked = %d, want 0", marked)
	}
}

func TestSequentialDocumentNumbers(t *testing.T) {
	l := newTestLedger(t, memory.New())
	cust := registerCustomer(t, l, customer.UserTypeBusiness)

	first := openBilling(t, l, cust, 1000)
	second := openBilling(t, l, cust, 2000)

	if first.Invoice.InvoiceNumber != "IV2606001" || second.Invoice.InvoiceNumber != "IV2606002" {
		t.Errorf("invoice numbers = %q, %q, want IV2606001, IV2606002",
			first.Invoice.InvoiceNumber, second.Invoice.InvoiceNumber)
	}
	if first.Payment.PaymentNumber != "PAYCAS2606001" {
		t.Errorf("payment number = %q, want PAYCAS2606001", first.Payment.PaymentNumber)
	}
}
