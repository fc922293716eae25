package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	ledger "github.com/biwswalker/movemate-ledger"
	"github.com/biwswalker/movemate-ledger/adjustment"
	"github.com/biwswalker/movemate-ledger/billing"
	"github.com/biwswalker/movemate-ledger/id"
	"github.com/biwswalker/movemate-ledger/sequence"
	"github.com/biwswalker/movemate-ledger/txn"
	"github.com/biwswalker/movemate-ledger/types"
)

func newBilling() *billing.Record {
	return &billing.Record{
		Entity:     types.NewEntity(),
		ID:         id.NewBillingID(),
		CustomerID: id.NewCustomerID(),
		InvoiceID:  id.NewInvoiceID(),
		Status:     billing.StatusCurrent,
		Currency:   "thb",
		SubTotal:   types.THB(5000),
		Total:      types.THB(5000),
		DueDate:    time.Now().Add(15 * 24 * time.Hour),
	}
}

func TestNextSequenceConcurrentUniqueness(t *testing.T) {
	s := New()
	ctx := context.Background()

	const n = 100
	results := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq, err := s.NextSequence(ctx, sequence.CounterDebitNote)
			if err != nil {
				t.Errorf("NextSequence: %v", err)
				return
			}
			results <- seq
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool)
	for seq := range results {
		if seen[seq] {
			t.Fatalf("duplicate sequence value %d", seq)
		}
		seen[seq] = true
	}
	if len(seen) != n {
		t.Fatalf("got %d distinct values, want %d", len(seen), n)
	}
	for v := int64(1); v <= n; v++ {
		if !seen[v] {
			t.Errorf("gap: value %d never issued", v)
		}
	}
}

func TestSequenceCountersAreIndependent(t *testing.T) {
	s := New()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := s.NextSequence(ctx, sequence.CounterDebitNote); err != nil {
			t.Fatalf("NextSequence: %v", err)
		}
	}
	got, err := s.NextSequence(ctx, sequence.CounterCreditNote)
	if err != nil {
		t.Fatalf("NextSequence: %v", err)
	}
	if got != 1 {
		t.Errorf("creditnote counter: got %d, want 1", got)
	}

	cur, err := s.CurrentSequence(ctx, sequence.CounterDebitNote)
	if err != nil {
		t.Fatalf("CurrentSequence: %v", err)
	}
	if cur != 3 {
		t.Errorf("debitnote current: got %d, want 3", cur)
	}
}

func TestCommitDetectsConcurrentBillingUpdate(t *testing.T) {
	s := New()
	ctx := context.Background()

	rec := newBilling()
	if err := s.CreateBilling(ctx, rec); err != nil {
		t.Fatalf("CreateBilling: %v", err)
	}

	first, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	second, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	apply := func(sess txn.Session, remark string) error {
		txCtx := sess.Context(ctx)
		got, err := s.GetBilling(txCtx, rec.ID)
		if err != nil {
			return err
		}
		got.Remark = remark
		return s.UpdateBilling(txCtx, got)
	}

	if err := apply(first, "first writer"); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if err := apply(second, "second writer"); err != nil {
		t.Fatalf("second update: %v", err)
	}

	if err := first.Commit(ctx); err != nil {
		t.Fatalf("first commit: %v", err)
	}
	first.Close(ctx)

	err = second.Commit(ctx)
	if err == nil {
		t.Fatal("second commit should conflict")
	}
	if !s.IsWriteConflict(err) {
		t.Fatalf("second commit: got %v, want write conflict", err)
	}
	second.Close(ctx)

	final, err := s.GetBilling(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetBilling: %v", err)
	}
	if final.Remark != "first writer" {
		t.Errorf("Remark: got %q, want first writer's value", final.Remark)
	}
}

func TestCommitDetectsConcurrentCounterUse(t *testing.T) {
	s := New()
	ctx := context.Background()

	sess, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	txCtx := sess.Context(ctx)

	seq, err := s.NextSequence(txCtx, sequence.CounterPayment)
	if err != nil {
		t.Fatalf("NextSequence in txn: %v", err)
	}
	if seq != 1 {
		t.Errorf("seq: got %d, want 1", seq)
	}

	// Another writer consumes the counter before this session commits.
	if _, err := s.NextSequence(ctx, sequence.CounterPayment); err != nil {
		t.Fatalf("NextSequence outside txn: %v", err)
	}

	if err := sess.Commit(ctx); !s.IsWriteConflict(err) {
		t.Fatalf("commit: got %v, want write conflict", err)
	}
	sess.Close(ctx)
}

func TestAbortLeavesNoTrace(t *testing.T) {
	s := New()
	ctx := context.Background()

	rec := newBilling()
	if err := s.CreateBilling(ctx, rec); err != nil {
		t.Fatalf("CreateBilling: %v", err)
	}

	sess, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	txCtx := sess.Context(ctx)

	note := &adjustment.Note{
		Entity:         types.NewEntity(),
		ID:             id.NewAdjustmentID(),
		DocumentNumber: "DR2606001",
		Type:           adjustment.TypeDebit,
		BillingID:      rec.ID,
		IssueDate:      time.Now(),
	}
	if err := s.CreateAdjustment(txCtx, note); err != nil {
		t.Fatalf("CreateAdjustment: %v", err)
	}

	got, err := s.GetBilling(txCtx, rec.ID)
	if err != nil {
		t.Fatalf("GetBilling in txn: %v", err)
	}
	got.AdjustmentNoteIDs = append(got.AdjustmentNoteIDs, note.ID)
	if err := s.UpdateBilling(txCtx, got); err != nil {
		t.Fatalf("UpdateBilling in txn: %v", err)
	}

	// The staged note is visible inside the transaction.
	if _, err := s.GetAdjustment(txCtx, note.ID); err != nil {
		t.Fatalf("GetAdjustment in txn: %v", err)
	}

	if err := sess.Abort(ctx); err != nil {
		t.Fatalf("Abort: %v", err)
	}
	sess.Close(ctx)

	if _, err := s.GetAdjustment(ctx, note.ID); !errors.Is(err, ledger.ErrAdjustmentNotFound) {
		t.Fatalf("aborted note visible: %v", err)
	}
	after, err := s.GetBilling(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetBilling: %v", err)
	}
	if len(after.AdjustmentNoteIDs) != 0 {
		t.Errorf("billing gained note IDs from aborted txn: %v", after.AdjustmentNoteIDs)
	}
	if cur, _ := s.CurrentSequence(ctx, sequence.CounterDebitNote); cur != 0 {
		t.Errorf("counter moved despite abort: %d", cur)
	}
}

func TestRunnerRetriesUntilBothWritersSucceed(t *testing.T) {
	s := New()
	ctx := context.Background()

	rec := newBilling()
	if err := s.CreateBilling(ctx, rec); err != nil {
		t.Fatalf("CreateBilling: %v", err)
	}

	runner := txn.NewRunner(s, txn.WithBaseDelay(time.Millisecond))

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- runner.Run(ctx, func(txCtx context.Context) error {
				got, err := s.GetBilling(txCtx, rec.ID)
				if err != nil {
					return err
				}
				got.AdjustmentNoteIDs = append(got.AdjustmentNoteIDs, id.NewAdjustmentID())
				return s.UpdateBilling(txCtx, got)
			})
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		} else if !s.IsWriteConflict(err) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded == 0 {
		t.Fatal("no writer succeeded")
	}

	final, err := s.GetBilling(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetBilling: %v", err)
	}
	if len(final.AdjustmentNoteIDs) != succeeded {
		t.Errorf("note IDs: got %d, want %d (one per successful writer)", len(final.AdjustmentNoteIDs), succeeded)
	}
}

func TestClonedReadsDoNotLeakMutations(t *testing.T) {
	s := New()
	ctx := context.Background()

	rec := newBilling()
	if err := s.CreateBilling(ctx, rec); err != nil {
		t.Fatalf("CreateBilling: %v", err)
	}

	got, err := s.GetBilling(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetBilling: %v", err)
	}
	got.Remark = "mutated copy"

	again, err := s.GetBilling(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetBilling: %v", err)
	}
	if again.Remark != "" {
		t.Errorf("mutation through returned pointer leaked into store")
	}
}

func TestClosedStoreRejectsOperations(t *testing.T) {
	s := New()
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if err := s.Ping(context.Background()); !errors.Is(err, ledger.ErrStoreClosed) {
		t.Errorf("Ping after close: %v", err)
	}
	if _, err := s.Begin(context.Background()); !errors.Is(err, ledger.ErrStoreClosed) {
		t.Errorf("Begin after close: %v", err)
	}
	if _, err := s.NextSequence(context.Background(), sequence.CounterInvoice); !errors.Is(err, ledger.ErrStoreClosed) {
		t.Errorf("NextSequence after close: %v", err)
	}
}
