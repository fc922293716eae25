// Package ledger provides the billing ledger for the Movemate logistics
// platform: invoicing, chained debit/credit adjustment notes, payment
// tracking, and the billing cycle state machine.
//
// Ledger is designed as a library, not a service. Import it directly into
// your Go application. It provides:
//
//   - Durable per-document-type sequence counters with atomic allocation
//   - Deterministic document numbering (IV2606001, DR2606001, PAYCAS2606001)
//   - Append-only adjustment note chains with derived totals and tax
//   - Automatic pending-payment reissue when a cycle's total changes
//   - A conflict-retrying transactional executor with exponential backoff
//   - Pluggable hooks for audit trails, metrics, and tax overrides
//
// # Quick Start
//
// Create a ledger instance with your preferred store:
//
//	import (
//	    "github.com/biwswalker/movemate-ledger"
//	    ledgermongo "github.com/biwswalker/movemate-ledger/store/mongo"
//	)
//
//	client, err := mongo.Connect(options.Client().ApplyURI(mongoURI))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	store := ledgermongo.New(client, "movemate")
//
//	l := ledger.New(store)
//
//	// Start the ledger (runs store migrations)
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
// # Core Concepts
//
// A billing cycle opens with an immutable invoice and a pending payment:
//
//	cycle, err := l.OpenBillingCycle(ctx, ledger.OpenBillingInput{
//	    CustomerID: cust.ID,
//	    LineItems: []invoice.LineItem{
//	        {Description: "Freight BKK-CNX", Quantity: 1, UnitAmount: ledger.THB(5000), Amount: ledger.THB(5000)},
//	    },
//	})
//
// Corrections never mutate the invoice. They append debit or credit notes
// that chain back to the previous document and reissue the payment:
//
//	out, err := l.CreateAdjustmentNote(ctx, ledger.AdjustmentInput{
//	    BillingID: cycle.Record.ID,
//	    Type:      adjustment.TypeDebit,
//	    LineItems: []adjustment.LineItem{{Description: "Extra drop point", Amount: ledger.THB(300)}},
//	})
//
// Settlement walks the status machine:
//
//	_, err = l.SubmitPayment(ctx, cycle.Record.ID, slipURL) // CURRENT -> VERIFY
//	_, err = l.ConfirmPayment(ctx, cycle.Record.ID)         // VERIFY  -> PAID
//
// # Money
//
// All monetary calculations use arbitrary-precision decimals, so a 1%
// withholding tax on 1000.01 THB is exactly 10.0001, never a float
// approximation.
//
// # TypeID
//
// All entities use TypeID for globally unique, type-safe identifiers:
//
//	cust_01h2xcejqtf2nbrexx3vqjhp41  // Customer ID
//	bill_01h2xcejqtf2nbrexx3vqjhp41  // Billing record ID
//	adj_01h455vb4pex5vsknk084sn02q   // Adjustment note ID
//
// TypeIDs are K-sortable, making them ideal for database indexes and
// providing natural time-ordering of entities.
package ledger
