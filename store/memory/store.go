// Package memory provides an in-memory Store implementation with real
// transaction semantics: sessions stage writes against observed record
// versions and commit atomically, reporting a write conflict when a
// concurrently committed change invalidates what the session read.
// It backs tests and single-process deployments.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	ledger "github.com/biwswalker/movemate-ledger"
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

type bucket string

const (
	bucketCustomer   bucket = "customers"
	bucketBilling    bucket = "billings"
	bucketInvoice    bucket = "invoices"
	bucketAdjustment bucket = "adjustments"
	bucketPayment    bucket = "payments"
)

var notFound = map[bucket]error{
	bucketCustomer:   ledger.ErrCustomerNotFound,
	bucketBilling:    ledger.ErrBillingNotFound,
	bucketInvoice:    ledger.ErrInvoiceNotFound,
	bucketAdjustment: ledger.ErrAdjustmentNotFound,
	bucketPayment:    ledger.ErrPaymentNotFound,
}

type record struct {
	version uint64
	value   any
}

type counterRec struct {
	version uint64
	value   int64
}

type Store struct {
	mu       sync.Mutex
	buckets  map[bucket]map[string]*record
	counters map[sequence.CounterType]*counterRec
	closed   bool
}

func New() *Store {
	s := &Store{
		buckets:  make(map[bucket]map[string]*record),
		counters: make(map[sequence.CounterType]*counterRec),
	}
	for _, b := range []bucket{bucketCustomer, bucketBilling, bucketInvoice, bucketAdjustment, bucketPayment} {
		s.buckets[b] = make(map[string]*record)
	}

	return s
}

// ──────────────────────────────────────────────────
// txn.Provider
// ──────────────────────────────────────────────────

func (s *Store) Begin(_ context.Context) (txn.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ledger.ErrStoreClosed
	}

	return &session{
		store:        s,
		reads:        make(map[entKey]uint64),
		writes:       make(map[entKey]any),
		counterReads: make(map[sequence.CounterType]uint64),
		counterDelta: make(map[sequence.CounterType]int64),
	}, nil
}

func (s *Store) IsWriteConflict(err error) bool {
	return errors.Is(err, ledger.ErrWriteConflict)
}

// sessionFrom returns the session carried by ctx if it belongs to this
// store.
func (s *Store) sessionFrom(ctx context.Context) *session {
	raw, ok := txn.FromContext(ctx)
	if !ok {
		return nil
	}
	sess, ok := raw.(*session)
	if !ok || sess.store != s {
		return nil
	}

	return sess
}

type entKey struct {
	bucket bucket
	id     string
}

type session struct {
	store        *Store
	mu           sync.Mutex
	reads        map[entKey]uint64
	writes       map[entKey]any
	counterReads map[sequence.CounterType]uint64
	counterDelta map[sequence.CounterType]int64
	done         bool
}

func (t *session) Context(ctx context.Context) context.Context {
	return txn.NewContext(ctx, t)
}

func (t *session) Commit(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return fmt.Errorf("memory: commit: session already finished")
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if t.store.closed {
		return ledger.ErrStoreClosed
	}

	// Validate every observed version before applying anything.
	for k, observed := range t.reads {
		if current := t.store.versionOf(k); current != observed {
			return fmt.Errorf("%w: %s/%s modified concurrently", ledger.ErrWriteConflict, k.bucket, k.id)
		}
	}
	for ct, observed := range t.counterReads {
		if current := t.store.counterVersionOf(ct); current != observed {
			return fmt.Errorf("%w: counter %s modified concurrently", ledger.ErrWriteConflict, ct)
		}
	}

	for k, val := range t.writes {
		m := t.store.buckets[k.bucket]
		if rec, ok := m[k.id]; ok {
			rec.version++
			rec.value = val
		} else {
			m[k.id] = &record{version: 1, value: val}
		}
	}
	for ct, delta := range t.counterDelta {
		c := t.store.counterLocked(ct)
		c.value += delta
		c.version++
	}

	t.done = true

	return nil
}

func (t *session) Abort(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done = true

	return nil
}

func (t *session) Close(_ context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done = true
}

// get returns the session's view of a record, registering the observed
// version for commit-time validation.
func (t *session) get(k entKey) (any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if val, ok := t.writes[k]; ok {
		return val, nil
	}

	t.store.mu.Lock()
	rec, ok := t.store.buckets[k.bucket][k.id]
	var version uint64
	var val any
	if ok {
		version = rec.version
		val = rec.value
	}
	t.store.mu.Unlock()

	if _, seen := t.reads[k]; !seen {
		t.reads[k] = version
	}
	if !ok {
		return nil, notFound[k.bucket]
	}

	return val, nil
}

func (t *session) create(k entKey, val any) error {
	if _, err := t.get(k); err == nil {
		return ledger.ErrAlreadyExists
	} else if !errors.Is(err, notFound[k.bucket]) {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.writes[k] = val

	return nil
}

func (t *session) update(k entKey, val any) error {
	if _, err := t.get(k); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.writes[k] = val

	return nil
}

func (t *session) nextSequence(ct sequence.CounterType) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.store.mu.Lock()
	var base int64
	var version uint64
	if c, ok := t.store.counters[ct]; ok {
		base = c.value
		version = c.version
	}
	t.store.mu.Unlock()

	if _, seen := t.counterReads[ct]; !seen {
		t.counterReads[ct] = version
	}
	t.counterDelta[ct]++

	return base + t.counterDelta[ct]
}

// ──────────────────────────────────────────────────
// Internal helpers (store.mu must be held)
// ──────────────────────────────────────────────────

func (s *Store) versionOf(k entKey) uint64 {
	if rec, ok := s.buckets[k.bucket][k.id]; ok {
		return rec.version
	}

	return 0
}

func (s *Store) counterVersionOf(ct sequence.CounterType) uint64 {
	if c, ok := s.counters[ct]; ok {
		return c.version
	}

	return 0
}

func (s *Store) counterLocked(ct sequence.CounterType) *counterRec {
	c, ok := s.counters[ct]
	if !ok {
		c = &counterRec{}
		s.counters[ct] = c
	}

	return c
}

func (s *Store) create(ctx context.Context, k entKey, val any) error {
	if sess := s.sessionFrom(ctx); sess != nil {
		return sess.create(k, val)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ledger.ErrStoreClosed
	}
	if _, exists := s.buckets[k.bucket][k.id]; exists {
		return ledger.ErrAlreadyExists
	}
	s.buckets[k.bucket][k.id] = &record{version: 1, value: val}

	return nil
}

func (s *Store) get(ctx context.Context, k entKey) (any, error) {
	if sess := s.sessionFrom(ctx); sess != nil {
		return sess.get(k)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ledger.ErrStoreClosed
	}
	rec, ok := s.buckets[k.bucket][k.id]
	if !ok {
		return nil, notFound[k.bucket]
	}

	return rec.value, nil
}

func (s *Store) update(ctx context.Context, k entKey, val any) error {
	if sess := s.sessionFrom(ctx); sess != nil {
		return sess.update(k, val)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ledger.ErrStoreClosed
	}
	rec, ok := s.buckets[k.bucket][k.id]
	if !ok {
		return notFound[k.bucket]
	}
	rec.version++
	rec.value = val

	return nil
}

// scan visits the committed records of a bucket, overlaid with the
// session's staged writes when one is open. Scans do not register
// conflict-detection reads; point reads do.
func (s *Store) scan(ctx context.Context, b bucket, visit func(val any)) error {
	sess := s.sessionFrom(ctx)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ledger.ErrStoreClosed
	}
	committed := make(map[string]any, len(s.buckets[b]))
	for key, rec := range s.buckets[b] {
		committed[key] = rec.value
	}
	s.mu.Unlock()

	if sess != nil {
		sess.mu.Lock()
		for k, val := range sess.writes {
			if k.bucket == b {
				committed[k.id] = val
			}
		}
		sess.mu.Unlock()
	}

	for _, val := range committed {
		visit(val)
	}

	return nil
}

// ──────────────────────────────────────────────────
// Sequence methods
// ──────────────────────────────────────────────────

func (s *Store) NextSequence(ctx context.Context, counter sequence.CounterType) (int64, error) {
	if sess := s.sessionFrom(ctx); sess != nil {
		return sess.nextSequence(counter), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ledger.ErrStoreClosed
	}
	c := s.counterLocked(counter)
	c.value++
	c.version++

	return c.value, nil
}

func (s *Store) CurrentSequence(_ context.Context, counter sequence.CounterType) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ledger.ErrStoreClosed
	}
	if c, ok := s.counters[counter]; ok {
		return c.value, nil
	}

	return 0, nil
}

// ──────────────────────────────────────────────────
// Customer methods
// ──────────────────────────────────────────────────

func (s *Store) CreateCustomer(ctx context.Context, c *customer.Customer) error {
	return s.create(ctx, entKey{bucketCustomer, c.ID.String()}, cloneCustomer(c))
}

func (s *Store) GetCustomer(ctx context.Context, custID id.CustomerID) (*customer.Customer, error) {
	val, err := s.get(ctx, entKey{bucketCustomer, custID.String()})
	if err != nil {
		return nil, err
	}

	return cloneCustomer(val.(*customer.Customer)), nil
}

func (s *Store) GetCustomerByUserNumber(ctx context.Context, userNumber string) (*customer.Customer, error) {
	var found *customer.Customer
	err := s.scan(ctx, bucketCustomer, func(val any) {
		c := val.(*customer.Customer)
		if c.UserNumber == userNumber {
			found = cloneCustomer(c)
		}
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ledger.ErrCustomerNotFound
	}

	return found, nil
}

func (s *Store) GetCustomerByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	var found *customer.Customer
	err := s.scan(ctx, bucketCustomer, func(val any) {
		c := val.(*customer.Customer)
		if c.Email == email {
			found = cloneCustomer(c)
		}
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ledger.ErrCustomerNotFound
	}

	return found, nil
}

func (s *Store) UpdateCustomer(ctx context.Context, c *customer.Customer) error {
	return s.update(ctx, entKey{bucketCustomer, c.ID.String()}, cloneCustomer(c))
}

func (s *Store) ListCustomers(ctx context.Context, opts customer.ListOpts) ([]*customer.Customer, error) {
	var out []*customer.Customer
	err := s.scan(ctx, bucketCustomer, func(val any) {
		c := val.(*customer.Customer)
		if opts.UserType != "" && c.UserType != opts.UserType {
			return
		}
		if opts.Status != "" && c.Status != opts.Status {
			return
		}
		out = append(out, cloneCustomer(c))
	})
	if err != nil {
		return nil, err
	}

	return paginate(out, opts.Offset, opts.Limit), nil
}

// ──────────────────────────────────────────────────
// Billing methods
// ──────────────────────────────────────────────────

func (s *Store) CreateBilling(ctx context.Context, rec *billing.Record) error {
	return s.create(ctx, entKey{bucketBilling, rec.ID.String()}, cloneBilling(rec))
}

func (s *Store) GetBilling(ctx context.Context, billingID id.BillingID) (*billing.Record, error) {
	val, err := s.get(ctx, entKey{bucketBilling, billingID.String()})
	if err != nil {
		return nil, err
	}

	return cloneBilling(val.(*billing.Record)), nil
}

func (s *Store) UpdateBilling(ctx context.Context, rec *billing.Record) error {
	return s.update(ctx, entKey{bucketBilling, rec.ID.String()}, cloneBilling(rec))
}

func (s *Store) ListBillingByCustomer(ctx context.Context, custID id.CustomerID, opts billing.ListOpts) ([]*billing.Record, error) {
	var out []*billing.Record
	err := s.scan(ctx, bucketBilling, func(val any) {
		rec := val.(*billing.Record)
		if rec.CustomerID.String() != custID.String() {
			return
		}
		if opts.Status != "" && rec.Status != opts.Status {
			return
		}
		out = append(out, cloneBilling(rec))
	})
	if err != nil {
		return nil, err
	}

	return paginate(out, opts.Offset, opts.Limit), nil
}

func (s *Store) ListBillingDueBefore(ctx context.Context, cutoff time.Time) ([]*billing.Record, error) {
	var out []*billing.Record
	err := s.scan(ctx, bucketBilling, func(val any) {
		rec := val.(*billing.Record)
		if rec.Status.IsOpen() && rec.DueDate.Before(cutoff) {
			out = append(out, cloneBilling(rec))
		}
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// ──────────────────────────────────────────────────
// Invoice methods
// ──────────────────────────────────────────────────

func (s *Store) CreateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	return s.create(ctx, entKey{bucketInvoice, inv.ID.String()}, cloneInvoice(inv))
}

func (s *Store) GetInvoice(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	val, err := s.get(ctx, entKey{bucketInvoice, invID.String()})
	if err != nil {
		return nil, err
	}

	return cloneInvoice(val.(*invoice.Invoice)), nil
}

func (s *Store) GetInvoiceByNumber(ctx context.Context, invoiceNumber string) (*invoice.Invoice, error) {
	var found *invoice.Invoice
	err := s.scan(ctx, bucketInvoice, func(val any) {
		inv := val.(*invoice.Invoice)
		if inv.InvoiceNumber == invoiceNumber {
			found = cloneInvoice(inv)
		}
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ledger.ErrInvoiceNotFound
	}

	return found, nil
}

func (s *Store) ListInvoicesByCustomer(ctx context.Context, custID id.CustomerID, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	var out []*invoice.Invoice
	err := s.scan(ctx, bucketInvoice, func(val any) {
		inv := val.(*invoice.Invoice)
		if inv.CustomerID.String() == custID.String() {
			out = append(out, cloneInvoice(inv))
		}
	})
	if err != nil {
		return nil, err
	}

	return paginate(out, opts.Offset, opts.Limit), nil
}

// ──────────────────────────────────────────────────
// Adjustment note methods
// ──────────────────────────────────────────────────

func (s *Store) CreateAdjustment(ctx context.Context, note *adjustment.Note) error {
	return s.create(ctx, entKey{bucketAdjustment, note.ID.String()}, cloneNote(note))
}

func (s *Store) GetAdjustment(ctx context.Context, noteID id.AdjustmentID) (*adjustment.Note, error) {
	val, err := s.get(ctx, entKey{bucketAdjustment, noteID.String()})
	if err != nil {
		return nil, err
	}

	return cloneNote(val.(*adjustment.Note)), nil
}

func (s *Store) GetAdjustmentByNumber(ctx context.Context, documentNumber string) (*adjustment.Note, error) {
	var found *adjustment.Note
	err := s.scan(ctx, bucketAdjustment, func(val any) {
		note := val.(*adjustment.Note)
		if note.DocumentNumber == documentNumber {
			found = cloneNote(note)
		}
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ledger.ErrAdjustmentNotFound
	}

	return found, nil
}

func (s *Store) ListAdjustmentsByBilling(ctx context.Context, billingID id.BillingID) ([]*adjustment.Note, error) {
	var out []*adjustment.Note
	err := s.scan(ctx, bucketAdjustment, func(val any) {
		note := val.(*adjustment.Note)
		if note.BillingID.String() == billingID.String() {
			out = append(out, cloneNote(note))
		}
	})
	if err != nil {
		return nil, err
	}
	sortNotes(out)

	return out, nil
}

func (s *Store) AttachAdjustmentDocument(ctx context.Context, noteID id.AdjustmentID, art *artifact.Artifact) error {
	note, err := s.GetAdjustment(ctx, noteID)
	if err != nil {
		return err
	}
	note.Document = art
	note.Touch()

	return s.update(ctx, entKey{bucketAdjustment, noteID.String()}, note)
}

// ──────────────────────────────────────────────────
// Payment methods
// ──────────────────────────────────────────────────

func (s *Store) CreatePayment(ctx context.Context, p *payment.Payment) error {
	return s.create(ctx, entKey{bucketPayment, p.ID.String()}, clonePayment(p))
}

func (s *Store) GetPayment(ctx context.Context, paymentID id.PaymentID) (*payment.Payment, error) {
	val, err := s.get(ctx, entKey{bucketPayment, paymentID.String()})
	if err != nil {
		return nil, err
	}

	return clonePayment(val.(*payment.Payment)), nil
}

func (s *Store) GetPaymentByNumber(ctx context.Context, paymentNumber string) (*payment.Payment, error) {
	var found *payment.Payment
	err := s.scan(ctx, bucketPayment, func(val any) {
		p := val.(*payment.Payment)
		if p.PaymentNumber == paymentNumber {
			found = clonePayment(p)
		}
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ledger.ErrPaymentNotFound
	}

	return found, nil
}

func (s *Store) UpdatePayment(ctx context.Context, p *payment.Payment) error {
	return s.update(ctx, entKey{bucketPayment, p.ID.String()}, clonePayment(p))
}

func (s *Store) ListPaymentsByBilling(ctx context.Context, billingID id.BillingID) ([]*payment.Payment, error) {
	var out []*payment.Payment
	err := s.scan(ctx, bucketPayment, func(val any) {
		p := val.(*payment.Payment)
		if p.BillingID.String() == billingID.String() {
			out = append(out, clonePayment(p))
		}
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// ──────────────────────────────────────────────────
// Core methods
// ──────────────────────────────────────────────────

func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ledger.ErrStoreClosed
	}

	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true

	return nil
}
