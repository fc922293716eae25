package ledger_test

import (
	"context"
	"log"
	"log/slog"
	"testing"

	"github.com/biwswalker/movemate-ledger"
	"github.com/biwswalker/movemate-ledger/adjustment"
	"github.com/biwswalker/movemate-ledger/customer"
	"github.com/biwswalker/movemate-ledger/invoice"
	"github.com/biwswalker/movemate-ledger/store/memory"
	"github.com/biwswalker/movemate-ledger/types"
)

// TestDocumentationExamples verifies that all examples in the documentation compile
func TestDocumentationExamples(t *testing.T) {
	// Test Quick Start example from README
	t.Run("QuickStartExample", func(t *testing.T) {
		// Create store (memory for demo, use MongoDB in production)
		store := memory.New()

		l := ledger.New(store,
			ledger.WithLogger(slog.Default()),
		)

		// Start the engine
		ctx := context.Background()
		if err := l.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer l.Stop()

		// Register a business customer
		cust := &customer.Customer{
			UserType: customer.UserTypeBusiness,
			FullName: "Siam Cement Logistics Co., Ltd.",
			Email:    "ap@scl.example.co.th",
			TaxID:    "0105536041711",
		}
		if err := l.RegisterCustomer(ctx, cust); err != nil {
			t.Fatal(err)
		}

		// Open a billing cycle: invoice + pending payment
		cycle, err := l.OpenBillingCycle(ctx, ledger.OpenBillingInput{
			CustomerID: cust.ID,
			LineItems: []invoice.LineItem{
				{
					Description: "Freight BKK-CNX, 6-wheel truck",
					Quantity:    1,
					UnitAmount:  types.THB(5000),
					Amount:      types.THB(5000),
				},
			},
		})
		if err != nil {
			t.Fatal(err)
		}

		log.Printf("invoice %s issued, total %s\n", cycle.Invoice.InvoiceNumber, cycle.Invoice.Total.String())

		// Append a debit note: extra drop point discovered after invoicing
		out, err := l.CreateAdjustmentNote(ctx, ledger.AdjustmentInput{
			BillingID: cycle.Record.ID,
			Type:      adjustment.TypeDebit,
			LineItems: []adjustment.LineItem{
				{Description: "Additional drop point", Amount: types.THB(300)},
			},
		})
		if err != nil {
			t.Fatal(err)
		}

		log.Printf("note %s issued, new total %s\n", out.Note.DocumentNumber, out.Billing.Total.String())

		// Settle the cycle
		if _, err := l.SubmitPayment(ctx, cycle.Record.ID, "https://cdn.example/slips/abc.jpg"); err != nil {
			t.Fatal(err)
		}
		if _, err := l.ConfirmPayment(ctx, cycle.Record.ID); err != nil {
			t.Fatal(err)
		}
	})

	// Test Money type examples
	t.Run("MoneyExamples", func(t *testing.T) {
		// Constructors
		_ = types.THB(5000)   // 5000.00 THB
		_ = types.Zero("thb") // 0.00 THB

		// Arithmetic
		m1 := types.THB(100)
		m2 := types.THB(200)
		_ = m1.Add(m2)     // 300.00
		_ = m1.Multiply(3) // 300.00

		// Comparison
		if m1.LessThan(m2) {
			// m1 is less than m2
		}

		// Formatting
		_ = m1.String()      // "฿100.00"
		_ = m1.FormatMajor() // "100.00"
	})
}
