package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/biwswalker/movemate-ledger/adjustment"
	"github.com/biwswalker/movemate-ledger/artifact"
	"github.com/biwswalker/movemate-ledger/billing"
	"github.com/biwswalker/movemate-ledger/customer"
	"github.com/biwswalker/movemate-ledger/docnum"
	"github.com/biwswalker/movemate-ledger/id"
	"github.com/biwswalker/movemate-ledger/invoice"
	"github.com/biwswalker/movemate-ledger/payment"
	"github.com/biwswalker/movemate-ledger/plugin"
	"github.com/biwswalker/movemate-ledger/sequence"
	"github.com/biwswalker/movemate-ledger/store"
	"github.com/biwswalker/movemate-ledger/txn"
	"github.com/biwswalker/movemate-ledger/types"
)

// Ledger is the main billing engine. All mutations of billing state run
// inside the transactional executor: on a write conflict the whole unit
// of work is retried, so partial adjustments are never observable.
type Ledger struct {
	store   store.Store
	runner  *txn.Runner
	plugins *plugin.Registry
	logger  *slog.Logger

	// Configuration
	taxPolicy    adjustment.TaxPolicy
	currency     string
	generator    artifact.Generator
	maxAttempts  int
	retryBase    time.Duration
	paymentTerms time.Duration
}

// New creates a new Ledger instance over a store.
func New(s store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:        s,
		plugins:      plugin.NewRegistry(),
		logger:       slog.Default(),
		taxPolicy:    adjustment.DefaultTaxPolicy(),
		currency:     "thb",
		generator:    artifact.NewNoop(),
		maxAttempts:  txn.DefaultMaxAttempts,
		retryBase:    txn.DefaultBaseDelay,
		paymentTerms: 15 * 24 * time.Hour,
	}

	for _, opt := range opts {
		opt(l)
	}

	l.runner = txn.NewRunner(s,
		txn.WithLogger(l.logger),
		txn.WithMaxAttempts(l.maxAttempts),
		txn.WithBaseDelay(l.retryBase),
		txn.WithRetryHook(func(attempt int, err error) {
			l.plugins.EmitConflictRetried(context.Background(), "ledger", attempt, err)
		}),
	)

	return l
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithRetry configures the transactional executor's conflict-retry
// bound and the first backoff interval.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(l *Ledger) {
		l.maxAttempts = maxAttempts
		l.retryBase = baseDelay
	}
}

// WithTaxPolicy overrides the withholding tax policy.
func WithTaxPolicy(policy adjustment.TaxPolicy) Option {
	return func(l *Ledger) { l.taxPolicy = policy }
}

// WithCurrency sets the platform currency (default "thb").
func WithCurrency(currency string) Option {
	return func(l *Ledger) { l.currency = currency }
}

// WithArtifactGenerator sets the document artifact generator.
func WithArtifactGenerator(g artifact.Generator) Option {
	return func(l *Ledger) { l.generator = g }
}

// WithPaymentTerms sets how long after issue a billing cycle falls due.
func WithPaymentTerms(terms time.Duration) Option {
	return func(l *Ledger) { l.paymentTerms = terms }
}

// Start migrates the store and initializes plugins.
func (l *Ledger) Start(ctx context.Context) error {
	if err := l.store.Migrate(ctx); err != nil {
		return err
	}

	l.plugins.EmitInit(ctx, l)

	l.logger.Info("ledger started",
		"max_attempts", l.maxAttempts,
		"retry_base", l.retryBase,
		"currency", l.currency,
	)

	return nil
}

// Stop shuts down the Ledger.
func (l *Ledger) Stop() error {
	l.plugins.EmitShutdown(context.Background())

	return l.store.Close()
}

// ──────────────────────────────────────────────────
// Customer Management
// ──────────────────────────────────────────────────

// RegisterCustomer registers a customer account and mints its user
// number (MMI... for individuals, MMB... for businesses).
func (l *Ledger) RegisterCustomer(ctx context.Context, c *customer.Customer) error {
	if c.FullName == "" {
		return ValidationError{Field: "full_name", Message: "must not be empty"}
	}
	if c.Email == "" {
		return ValidationError{Field: "email", Message: "must not be empty"}
	}
	kind := docnum.KindIndividualCustomer
	switch c.UserType {
	case customer.UserTypeIndividual:
	case customer.UserTypeBusiness:
		kind = docnum.KindBusinessCustomer
	default:
		return ValidationError{Field: "user_type", Message: fmt.Sprintf("unknown user type %q", c.UserType)}
	}

	if c.ID.IsNil() {
		c.ID = id.NewCustomerID()
	}
	c.Entity = types.NewEntity()
	if c.Status == "" {
		c.Status = customer.StatusActive
	}

	err := l.runner.Run(ctx, func(txCtx context.Context) error {
		userNumber, err := docnum.Next(txCtx, l.store, kind, time.Now())
		if err != nil {
			return err
		}
		c.UserNumber = userNumber

		return l.store.CreateCustomer(txCtx, c)
	})
	if err != nil {
		return err
	}

	l.plugins.EmitCustomerRegistered(ctx, c)

	return nil
}

// GetCustomer retrieves a customer by ID.
func (l *Ledger) GetCustomer(ctx context.Context, custID id.CustomerID) (*customer.Customer, error) {
	return l.store.GetCustomer(ctx, custID)
}

// GetCustomerByUserNumber retrieves a customer by user number.
func (l *Ledger) GetCustomerByUserNumber(ctx context.Context, userNumber string) (*customer.Customer, error) {
	return l.store.GetCustomerByUserNumber(ctx, userNumber)
}

// ──────────────────────────────────────────────────
// Billing Cycle Management
// ──────────────────────────────────────────────────

// OpenBillingInput describes a new billing cycle.
type OpenBillingInput struct {
	CustomerID    id.CustomerID
	PaymentMethod billing.PaymentMethod
	LineItems     []invoice.LineItem
	PeriodStart   time.Time
	PeriodEnd     time.Time
	IssueDate     time.Time
	Metadata      map[string]string
}

// BillingCycle is the result of opening a cycle: the billing record,
// its immutable invoice, and the initial pending payment.
type BillingCycle struct {
	Record  *billing.Record
	Invoice *invoice.Invoice
	Payment *payment.Payment
}

// OpenBillingCycle issues an invoice for a customer, opens the billing
// record in CURRENT status, and creates the initial pending payment.
func (l *Ledger) OpenBillingCycle(ctx context.Context, in OpenBillingInput) (*BillingCycle, error) {
	if in.CustomerID.IsNil() {
		return nil, ValidationError{Field: "customer_id", Message: "must not be empty"}
	}
	if len(in.LineItems) == 0 {
		return nil, ValidationError{Field: "line_items", Message: "at least one line item required"}
	}
	if in.IssueDate.IsZero() {
		in.IssueDate = time.Now()
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = billing.PaymentMethodCash
	}

	cycle, err := txn.Execute(ctx, l.runner, func(txCtx context.Context) (*BillingCycle, error) {
		cust, err := l.store.GetCustomer(txCtx, in.CustomerID)
		if err != nil {
			return nil, err
		}
		if cust.Status != customer.StatusActive {
			return nil, fmt.Errorf("%w: %s", ErrCustomerInactive, cust.Status)
		}

		subTotal := types.Zero(l.currency)
		for _, li := range in.LineItems {
			subTotal = subTotal.Add(li.Amount)
		}
		tax := l.computeTax(txCtx, subTotal, cust.IsBusiness())
		total := subTotal.Subtract(tax)

		invoiceNumber, err := docnum.Next(txCtx, l.store, docnum.KindInvoice, in.IssueDate)
		if err != nil {
			return nil, err
		}

		billingID := id.NewBillingID()
		dueDate := in.IssueDate.Add(l.paymentTerms)

		inv := &invoice.Invoice{
			Entity:        types.NewEntity(),
			ID:            id.NewInvoiceID(),
			InvoiceNumber: invoiceNumber,
			BillingID:     billingID,
			CustomerID:    cust.ID,
			Currency:      l.currency,
			SubTotal:      subTotal,
			TaxAmount:     tax,
			Total:         total,
			LineItems:     in.LineItems,
			IssueDate:     in.IssueDate,
			DueDate:       &dueDate,
		}
		if err := l.store.CreateInvoice(txCtx, inv); err != nil {
			return nil, err
		}

		pay, err := l.issuePayment(txCtx, billingID, cust.ID, in.PaymentMethod, subTotal, tax, total, in.IssueDate)
		if err != nil {
			return nil, err
		}

		rec := &billing.Record{
			Entity:          types.NewEntity(),
			ID:              billingID,
			CustomerID:      cust.ID,
			InvoiceID:       inv.ID,
			Status:          billing.StatusCurrent,
			State:           billing.StateCurrent,
			PaymentMethod:   in.PaymentMethod,
			Currency:        l.currency,
			SubTotal:        subTotal,
			TaxAmount:       tax,
			Total:           total,
			LatestPaymentID: pay.ID,
			PeriodStart:     in.PeriodStart,
			PeriodEnd:       in.PeriodEnd,
			IssueDate:       in.IssueDate,
			DueDate:         dueDate,
			Metadata:        in.Metadata,
		}
		if err := l.store.CreateBilling(txCtx, rec); err != nil {
			return nil, err
		}

		return &BillingCycle{Record: rec, Invoice: inv, Payment: pay}, nil
	})
	if err != nil {
		return nil, err
	}

	l.plugins.EmitBillingOpened(ctx, cycle.Record, cycle.Invoice)
	l.plugins.EmitPaymentCreated(ctx, cycle.Payment)

	return cycle, nil
}

// GetBilling retrieves a billing record by ID.
func (l *Ledger) GetBilling(ctx context.Context, billingID id.BillingID) (*billing.Record, error) {
	return l.store.GetBilling(ctx, billingID)
}

// GetInvoice retrieves an invoice by ID.
func (l *Ledger) GetInvoice(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	return l.store.GetInvoice(ctx, invID)
}

// ──────────────────────────────────────────────────
// Adjustment Notes
// ──────────────────────────────────────────────────

// AdjustmentInput describes a debit or credit note to append to a
// billing cycle.
type AdjustmentInput struct {
	BillingID id.BillingID
	Type      adjustment.NoteType
	LineItems []adjustment.LineItem
	Remark    string
	IssueDate time.Time
}

// AdjustmentOutcome is everything an adjustment produces: the note, the
// reissued pending payment, the superseded payment (nil for the first
// note if none was open), and the updated billing record.
type AdjustmentOutcome struct {
	Note            *adjustment.Note
	Payment         *payment.Payment
	CanceledPayment *payment.Payment
	Billing         *billing.Record
}

// CreateAdjustmentNote appends an adjustment note to a billing cycle.
//
// The note chains to the previous note, or to the original invoice if
// it is the first. The billing amounts are recomputed, the latest
// pending payment is cancelled, and a fresh pending payment is issued
// for the new total. All of this commits atomically; the document
// artifact is generated and attached after commit.
func (l *Ledger) CreateAdjustmentNote(ctx context.Context, in AdjustmentInput) (*AdjustmentOutcome, error) {
	if in.BillingID.IsNil() {
		return nil, ValidationError{Field: "billing_id", Message: "must not be empty"}
	}
	if in.Type != adjustment.TypeDebit && in.Type != adjustment.TypeCredit {
		return nil, ValidationError{Field: "type", Message: fmt.Sprintf("unknown note type %q", in.Type)}
	}
	if in.IssueDate.IsZero() {
		in.IssueDate = time.Now()
	}

	outcome, err := txn.Execute(ctx, l.runner, func(txCtx context.Context) (*AdjustmentOutcome, error) {
		rec, err := l.store.GetBilling(txCtx, in.BillingID)
		if err != nil {
			return nil, err
		}
		if !rec.Status.IsOpen() {
			return nil, fmt.Errorf("%w: status %s", ErrBillingClosed, rec.Status)
		}

		cust, err := l.store.GetCustomer(txCtx, rec.CustomerID)
		if err != nil {
			return nil, err
		}

		prevSubTotal, prevRef, err := l.resolveBaseline(txCtx, rec)
		if err != nil {
			return nil, err
		}

		result, err := adjustment.Compute(in.Type, prevSubTotal, in.LineItems, cust.IsBusiness(), l.taxPolicy)
		if err != nil {
			return nil, err
		}
		if tax, ok := l.pluginTax(txCtx, result.SubTotal, cust.IsBusiness()); ok {
			result.TaxAmount = tax
			result.Total = result.SubTotal.Subtract(tax)
		}

		kind := docnum.KindDebitNote
		if in.Type == adjustment.TypeCredit {
			kind = docnum.KindCreditNote
		}
		documentNumber, err := docnum.Next(txCtx, l.store, kind, in.IssueDate)
		if err != nil {
			return nil, err
		}

		note := &adjustment.Note{
			Entity:           types.NewEntity(),
			ID:               id.NewAdjustmentID(),
			DocumentNumber:   documentNumber,
			Type:             in.Type,
			BillingID:        rec.ID,
			CustomerID:       cust.ID,
			PreviousDocument: prevRef,
			LineItems:        in.LineItems,
			AdjustmentAmount: result.AdjustmentAmount,
			PreviousSubTotal: prevSubTotal,
			SubTotal:         result.SubTotal,
			TaxAmount:        result.TaxAmount,
			Total:            result.Total,
			IssueDate:        in.IssueDate,
			Remark:           in.Remark,
		}
		if err := l.store.CreateAdjustment(txCtx, note); err != nil {
			return nil, err
		}

		canceled, err := l.cancelOpenPayment(txCtx, rec, "superseded by "+documentNumber)
		if err != nil {
			return nil, err
		}

		pay, err := l.issuePayment(txCtx, rec.ID, cust.ID, rec.PaymentMethod, result.SubTotal, result.TaxAmount, result.Total, in.IssueDate)
		if err != nil {
			return nil, err
		}

		rec.AdjustmentNoteIDs = append(rec.AdjustmentNoteIDs, note.ID)
		rec.SubTotal = result.SubTotal
		rec.TaxAmount = result.TaxAmount
		rec.Total = result.Total
		rec.LatestPaymentID = pay.ID
		rec.Touch()
		if err := l.store.UpdateBilling(txCtx, rec); err != nil {
			return nil, err
		}

		return &AdjustmentOutcome{
			Note:            note,
			Payment:         pay,
			CanceledPayment: canceled,
			Billing:         rec,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	// Artifact generation runs after commit: a rendering failure must
	// not roll back the ledger, the document can be regenerated.
	l.attachArtifact(ctx, outcome.Note)

	l.plugins.EmitAdjustmentCreated(ctx, outcome.Note)
	if outcome.CanceledPayment != nil {
		l.plugins.EmitPaymentCanceled(ctx, outcome.CanceledPayment)
	}
	l.plugins.EmitPaymentCreated(ctx, outcome.Payment)

	return outcome, nil
}

// resolveBaseline finds the subtotal and document reference the next
// note chains from: the note with the latest issue date, or the
// original invoice when no notes exist yet. Listing order and chain
// order agree because both follow issue date.
func (l *Ledger) resolveBaseline(ctx context.Context, rec *billing.Record) (types.Money, adjustment.DocumentRef, error) {
	notes, err := l.store.ListAdjustmentsByBilling(ctx, rec.ID)
	if err != nil {
		return types.Money{}, adjustment.DocumentRef{}, err
	}
	if len(notes) == 0 && len(rec.AdjustmentNoteIDs) > 0 {
		return types.Money{}, adjustment.DocumentRef{}, fmt.Errorf("%w: %d notes recorded but none found", ErrBrokenNoteChain, len(rec.AdjustmentNoteIDs))
	}
	if n := len(notes); n > 0 {
		last := notes[n-1]

		return last.SubTotal, adjustment.DocumentRef{
			DocumentNumber: last.DocumentNumber,
			DocumentType:   last.RefType(),
		}, nil
	}

	if rec.InvoiceID.IsNil() {
		return types.Money{}, adjustment.DocumentRef{}, ErrMissingInvoiceRef
	}
	inv, err := l.store.GetInvoice(ctx, rec.InvoiceID)
	if err != nil {
		return types.Money{}, adjustment.DocumentRef{}, err
	}

	return inv.SubTotal, adjustment.DocumentRef{
		DocumentNumber: inv.InvoiceNumber,
		DocumentType:   adjustment.DocumentInvoice,
	}, nil
}

// GetAdjustment retrieves an adjustment note by ID.
func (l *Ledger) GetAdjustment(ctx context.Context, noteID id.AdjustmentID) (*adjustment.Note, error) {
	return l.store.GetAdjustment(ctx, noteID)
}

// GetAdjustmentByNumber retrieves an adjustment note by document number.
func (l *Ledger) GetAdjustmentByNumber(ctx context.Context, documentNumber string) (*adjustment.Note, error) {
	return l.store.GetAdjustmentByNumber(ctx, documentNumber)
}

// ListAdjustments lists the adjustment notes of a billing cycle in
// chain order.
func (l *Ledger) ListAdjustments(ctx context.Context, billingID id.BillingID) ([]*adjustment.Note, error) {
	return l.store.ListAdjustmentsByBilling(ctx, billingID)
}

// ──────────────────────────────────────────────────
// Payments & Status Transitions
// ──────────────────────────────────────────────────

// SubmitPayment records payment evidence and moves the cycle to VERIFY.
func (l *Ledger) SubmitPayment(ctx context.Context, billingID id.BillingID, evidenceURL string) (*billing.Record, error) {
	return l.transition(ctx, billingID, billing.StatusVerify, func(txCtx context.Context, rec *billing.Record) error {
		pay, err := l.openPayment(txCtx, rec)
		if err != nil {
			return err
		}
		pay.Status = payment.StatusVerify
		pay.EvidenceURL = evidenceURL
		pay.Touch()

		return l.store.UpdatePayment(txCtx, pay)
	})
}

// ConfirmPayment settles the billing cycle: status PAID, latest payment
// COMPLETE.
func (l *Ledger) ConfirmPayment(ctx context.Context, billingID id.BillingID) (*billing.Record, error) {
	return l.transition(ctx, billingID, billing.StatusPaid, func(txCtx context.Context, rec *billing.Record) error {
		pay, err := l.openPayment(txCtx, rec)
		if err != nil {
			return err
		}
		now := time.Now()
		pay.Status = payment.StatusComplete
		pay.PaidAt = &now
		pay.Touch()
		if err := l.store.UpdatePayment(txCtx, pay); err != nil {
			return err
		}

		rec.PaidAt = &now
		rec.State = billing.StateCompleted

		return nil
	})
}

// RejectPayment sends a VERIFY cycle back to CURRENT, reopening the
// latest payment.
func (l *Ledger) RejectPayment(ctx context.Context, billingID id.BillingID, remark string) (*billing.Record, error) {
	return l.transition(ctx, billingID, billing.StatusCurrent, func(txCtx context.Context, rec *billing.Record) error {
		pay, err := l.openPayment(txCtx, rec)
		if err != nil {
			return err
		}
		pay.Status = payment.StatusPending
		pay.Remark = remark
		pay.Touch()

		return l.store.UpdatePayment(txCtx, pay)
	})
}

// MarkOverdue flags a billing cycle past its due date.
func (l *Ledger) MarkOverdue(ctx context.Context, billingID id.BillingID) (*billing.Record, error) {
	return l.transition(ctx, billingID, billing.StatusOverdue, nil)
}

// SweepOverdue marks every open cycle past due at the given time.
func (l *Ledger) SweepOverdue(ctx context.Context, now time.Time) (int, error) {
	due, err := l.store.ListBillingDueBefore(ctx, now)
	if err != nil {
		return 0, err
	}

	marked := 0
	for _, rec := range due {
		if !billing.CanTransition(rec.Status, billing.StatusOverdue) {
			continue
		}
		if _, err := l.MarkOverdue(ctx, rec.ID); err != nil {
			l.logger.Warn("overdue sweep failed for billing",
				"billing_id", rec.ID.String(),
				"error", err,
			)
			continue
		}
		marked++
	}

	return marked, nil
}

// CancelBilling cancels an open billing cycle and its pending payment.
func (l *Ledger) CancelBilling(ctx context.Context, billingID id.BillingID, remark string) (*billing.Record, error) {
	return l.transition(ctx, billingID, billing.StatusCancelled, func(txCtx context.Context, rec *billing.Record) error {
		if _, err := l.cancelOpenPayment(txCtx, rec, remark); err != nil {
			return err
		}
		now := time.Now()
		rec.CancelledAt = &now
		rec.Remark = remark

		return nil
	})
}

// StartRefund begins refunding a settled billing cycle.
func (l *Ledger) StartRefund(ctx context.Context, billingID id.BillingID, remark string) (*billing.Record, error) {
	return l.transition(ctx, billingID, billing.StatusRefund, func(_ context.Context, rec *billing.Record) error {
		rec.Remark = remark

		return nil
	})
}

// CompleteRefund finishes a refund: status REFUNDED, latest payment
// REFUNDED.
func (l *Ledger) CompleteRefund(ctx context.Context, billingID id.BillingID) (*billing.Record, error) {
	return l.transition(ctx, billingID, billing.StatusRefunded, func(txCtx context.Context, rec *billing.Record) error {
		if !rec.LatestPaymentID.IsNil() {
			pay, err := l.store.GetPayment(txCtx, rec.LatestPaymentID)
			if err != nil {
				return err
			}
			pay.Status = payment.StatusRefunded
			pay.Touch()
			if err := l.store.UpdatePayment(txCtx, pay); err != nil {
				return err
			}
		}
		now := time.Now()
		rec.RefundedAt = &now

		return nil
	})
}

// GetPayment retrieves a payment by ID.
func (l *Ledger) GetPayment(ctx context.Context, paymentID id.PaymentID) (*payment.Payment, error) {
	return l.store.GetPayment(ctx, paymentID)
}

// ListPayments lists all payments of a billing cycle, oldest first.
func (l *Ledger) ListPayments(ctx context.Context, billingID id.BillingID) ([]*payment.Payment, error) {
	return l.store.ListPaymentsByBilling(ctx, billingID)
}

// ──────────────────────────────────────────────────
// Sequences
// ──────────────────────────────────────────────────

// NextSequence draws and durably consumes the next value of a counter.
func (l *Ledger) NextSequence(ctx context.Context, counter sequence.CounterType) (int64, error) {
	return l.store.NextSequence(ctx, counter)
}

// CurrentSequence reports the last allocated value of a counter without
// consuming one. Zero means the counter has never been used.
func (l *Ledger) CurrentSequence(ctx context.Context, counter sequence.CounterType) (int64, error) {
	return l.store.CurrentSequence(ctx, counter)
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

// transition moves a billing record to a new status inside a
// transaction, running extra (if non-nil) before persisting.
func (l *Ledger) transition(ctx context.Context, billingID id.BillingID, to billing.Status, extra func(ctx context.Context, rec *billing.Record) error) (*billing.Record, error) {
	if billingID.IsNil() {
		return nil, ValidationError{Field: "billing_id", Message: "must not be empty"}
	}

	var from billing.Status
	rec, err := txn.Execute(ctx, l.runner, func(txCtx context.Context) (*billing.Record, error) {
		rec, err := l.store.GetBilling(txCtx, billingID)
		if err != nil {
			return nil, err
		}
		if !billing.CanTransition(rec.Status, to) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, rec.Status, to)
		}
		from = rec.Status
		rec.Status = to
		if extra != nil {
			if err := extra(txCtx, rec); err != nil {
				return nil, err
			}
		}
		rec.Touch()
		if err := l.store.UpdateBilling(txCtx, rec); err != nil {
			return nil, err
		}

		return rec, nil
	})
	if err != nil {
		return nil, err
	}

	l.plugins.EmitBillingStatusChanged(ctx, rec, string(from), string(to))

	return rec, nil
}

// openPayment loads the billing record's latest payment and verifies it
// can still be acted on.
func (l *Ledger) openPayment(ctx context.Context, rec *billing.Record) (*payment.Payment, error) {
	if rec.LatestPaymentID.IsNil() {
		return nil, ErrPaymentNotFound
	}
	pay, err := l.store.GetPayment(ctx, rec.LatestPaymentID)
	if err != nil {
		return nil, err
	}
	if !pay.IsOpen() {
		return nil, fmt.Errorf("%w: status %s", ErrPaymentClosed, pay.Status)
	}

	return pay, nil
}

// cancelOpenPayment cancels the latest payment if it is still open.
// Closed or absent payments are left untouched, so the cancellation is
// idempotent across repeated adjustments.
func (l *Ledger) cancelOpenPayment(ctx context.Context, rec *billing.Record, remark string) (*payment.Payment, error) {
	if rec.LatestPaymentID.IsNil() {
		return nil, nil
	}
	pay, err := l.store.GetPayment(ctx, rec.LatestPaymentID)
	if err != nil {
		return nil, err
	}
	if !pay.IsOpen() {
		return nil, nil
	}

	now := time.Now()
	pay.Status = payment.StatusCancelled
	pay.CancelledAt = &now
	pay.Remark = remark
	pay.Touch()
	if err := l.store.UpdatePayment(ctx, pay); err != nil {
		return nil, err
	}

	return pay, nil
}

// issuePayment mints a payment number and creates a PENDING payment.
func (l *Ledger) issuePayment(ctx context.Context, billingID id.BillingID, custID id.CustomerID, method billing.PaymentMethod, subTotal, tax, total types.Money, at time.Time) (*payment.Payment, error) {
	paymentNumber, err := docnum.Next(ctx, l.store, docnum.KindPayment, at)
	if err != nil {
		return nil, err
	}

	pay := &payment.Payment{
		Entity:        types.NewEntity(),
		ID:            id.NewPaymentID(),
		PaymentNumber: paymentNumber,
		BillingID:     billingID,
		CustomerID:    custID,
		Status:        payment.StatusPending,
		Method:        payment.Method(method),
		Currency:      subTotal.Currency,
		SubTotal:      subTotal,
		TaxAmount:     tax,
		Total:         total,
	}
	if err := l.store.CreatePayment(ctx, pay); err != nil {
		return nil, err
	}

	return pay, nil
}

// computeTax applies the withholding tax policy, preferring a
// registered TaxCalculator plugin.
func (l *Ledger) computeTax(ctx context.Context, subTotal types.Money, isBusiness bool) types.Money {
	if tax, ok := l.pluginTax(ctx, subTotal, isBusiness); ok {
		return tax
	}
	if isBusiness && subTotal.GreaterThan(l.taxPolicy.Threshold) {
		return subTotal.MulRate(l.taxPolicy.Rate)
	}

	return types.Zero(subTotal.Currency)
}

// pluginTax consults the first registered TaxCalculator plugin, if any.
func (l *Ledger) pluginTax(ctx context.Context, subTotal types.Money, isBusiness bool) (types.Money, bool) {
	calcs := l.plugins.GetTaxCalculators()
	if len(calcs) == 0 {
		return types.Money{}, false
	}

	raw, err := calcs[0].CalculateTax(ctx, subTotal, isBusiness)
	if err != nil {
		l.logger.Warn("tax calculator plugin failed, using policy",
			"plugin", calcs[0].Name(),
			"error", err,
		)
		return types.Money{}, false
	}
	tax, ok := raw.(types.Money)
	if !ok {
		l.logger.Warn("tax calculator plugin returned unexpected type",
			"plugin", calcs[0].Name(),
		)
		return types.Money{}, false
	}

	return tax, true
}

// attachArtifact renders the note's document and attaches it. Failures
// are logged, never propagated: the committed ledger state stands.
func (l *Ledger) attachArtifact(ctx context.Context, note *adjustment.Note) {
	kind := artifact.KindDebitNote
	if note.Type == adjustment.TypeCredit {
		kind = artifact.KindCreditNote
	}

	art, err := l.generator.Generate(ctx, artifact.Request{
		Kind:           kind,
		DocumentNumber: note.DocumentNumber,
		Payload:        note,
	})
	if err != nil {
		l.logger.Error("artifact generation failed",
			"document_number", note.DocumentNumber,
			"error", err,
		)
		return
	}

	if err := l.store.AttachAdjustmentDocument(ctx, note.ID, art); err != nil {
		l.logger.Error("artifact attach failed",
			"document_number", note.DocumentNumber,
			"error", err,
		)
		return
	}
	note.Document = art

	l.plugins.EmitArtifactAttached(ctx, note.DocumentNumber, art)
}
