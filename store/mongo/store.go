// Package mongo implements the unified Store on MongoDB. Transactions
// map to driver sessions; the write-conflict predicate recognizes the
// server's optimistic concurrency collision (code 112) and transient
// transaction labels so the executor can retry them.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/writeconcern"

	ledger "github.com/biwswalker/movemate-ledger"
	"github.com/biwswalker/movemate-ledger/adjustment"
	"github.com/biwswalker/movemate-ledger/artifact"
	"github.com/biwswalker/movemate-ledger/billing"
	"github.com/biwswalker/movemate-ledger/customer"
	"github.com/biwswalker/movemate-ledger/id"
	"github.com/biwswalker/movemate-ledger/invoice"
	"github.com/biwswalker/movemate-ledger/payment"
	"github.com/biwswalker/movemate-ledger/sequence"
	ledgerstore "github.com/biwswalker/movemate-ledger/store"
	"github.com/biwswalker/movemate-ledger/txn"
)

// Collection name constants.
const (
	colCustomers   = "ledger_customers"
	colBillings    = "ledger_billing_records"
	colInvoices    = "ledger_invoices"
	colAdjustments = "ledger_adjustment_notes"
	colPayments    = "ledger_payments"
	colCounters    = "ledger_sequence_counters"
)

// writeConflictCode is MongoDB's WriteConflict server error code.
const writeConflictCode = 112

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store on MongoDB.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// New creates a MongoDB store on the given client and database name.
func New(client *mongo.Client, database string) *Store {
	return &Store{
		client: client,
		db:     client.Database(database),
	}
}

// DB returns the underlying database for direct access.
func (s *Store) DB() *mongo.Database { return s.db }

func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// ==================== Transactions ====================

type mongoSession struct {
	raw *mongo.Session
}

func (t *mongoSession) Context(ctx context.Context) context.Context {
	return txn.NewContext(mongo.NewSessionContext(ctx, t.raw), t)
}

func (t *mongoSession) Commit(ctx context.Context) error {
	return t.raw.CommitTransaction(ctx)
}

func (t *mongoSession) Abort(ctx context.Context) error {
	return t.raw.AbortTransaction(ctx)
}

func (t *mongoSession) Close(ctx context.Context) {
	t.raw.EndSession(ctx)
}

func (s *Store) Begin(ctx context.Context) (txn.Session, error) {
	sess, err := s.client.StartSession()
	if err != nil {
		return nil, wrapErr(err, "start session")
	}

	txnOpts := options.Transaction().SetWriteConcern(writeconcern.Majority())
	if err := sess.StartTransaction(txnOpts); err != nil {
		sess.EndSession(ctx)
		return nil, wrapErr(err, "start transaction")
	}

	return &mongoSession{raw: sess}, nil
}

// IsWriteConflict reports whether err is a concurrent-modification
// failure that a fresh transaction attempt may resolve.
func (s *Store) IsWriteConflict(err error) bool {
	if errors.Is(err, ledger.ErrWriteConflict) {
		return true
	}

	var srvErr mongo.ServerError
	if errors.As(err, &srvErr) {
		return srvErr.HasErrorCode(writeConflictCode) ||
			srvErr.HasErrorLabel("TransientTransactionError")
	}

	return false
}

// ==================== Core ====================

// Migrate creates indexes for all ledger collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		if _, err := s.col(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("ledger/mongo: migrate %s indexes: %w: %w", col, ledger.ErrMigrationFailed, err)
		}
	}

	return nil
}

func migrationIndexes() map[string][]mongo.IndexModel {
	unique := options.Index().SetUnique(true)

	return map[string][]mongo.IndexModel{
		colCustomers: {
			{Keys: bson.D{{Key: "user_number", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "user_type", Value: 1}}},
		},
		colBillings: {
			{Keys: bson.D{{Key: "customer_id", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "due_date", Value: 1}}},
		},
		colInvoices: {
			{Keys: bson.D{{Key: "invoice_number", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "customer_id", Value: 1}}},
		},
		colAdjustments: {
			{Keys: bson.D{{Key: "document_number", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "billing_id", Value: 1}, {Key: "issue_date", Value: 1}}},
		},
		colPayments: {
			{Keys: bson.D{{Key: "payment_number", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "billing_id", Value: 1}}},
		},
	}
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the underlying client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.client.Disconnect(ctx)
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// isUnavailable reports whether err means the store could not be
// reached at all, as opposed to the server rejecting the operation.
func isUnavailable(err error) bool {
	if errors.Is(err, mongo.ErrClientDisconnected) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	return mongo.IsNetworkError(err) || mongo.IsTimeout(err)
}

// wrapErr adds package context to a driver failure. Connectivity and
// timeout failures additionally carry ErrStoreUnavailable so callers
// can classify them without driver knowledge.
func wrapErr(err error, op string) error {
	if isUnavailable(err) {
		return fmt.Errorf("ledger/mongo: %s: %w: %w", op, ledger.ErrStoreUnavailable, err)
	}

	return fmt.Errorf("ledger/mongo: %s: %w", op, err)
}

// ==================== Sequence Store ====================

func (s *Store) NextSequence(ctx context.Context, counter sequence.CounterType) (int64, error) {
	// Atomic upsert-increment: the counter row is created on first use
	// and the returned value is never issued twice.
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var m counterModel
	err := s.col(colCounters).FindOneAndUpdate(ctx,
		bson.M{"_id": string(counter)},
		bson.M{"$inc": bson.M{"value": 1}},
		opts,
	).Decode(&m)
	if err != nil {
		return 0, wrapErr(err, "next sequence "+string(counter))
	}

	return m.Value, nil
}

func (s *Store) CurrentSequence(ctx context.Context, counter sequence.CounterType) (int64, error) {
	var m counterModel
	err := s.col(colCounters).FindOne(ctx, bson.M{"_id": string(counter)}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return 0, nil
		}

		return 0, wrapErr(err, "current sequence "+string(counter))
	}

	return m.Value, nil
}

// ==================== Customer Store ====================

func (s *Store) CreateCustomer(ctx context.Context, c *customer.Customer) error {
	if _, err := s.col(colCustomers).InsertOne(ctx, toCustomerModel(c)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ledger.ErrCustomerExists
		}

		return wrapErr(err, "create customer")
	}

	return nil
}

func (s *Store) GetCustomer(ctx context.Context, custID id.CustomerID) (*customer.Customer, error) {
	var m customerModel
	err := s.col(colCustomers).FindOne(ctx, bson.M{"_id": custID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledger.ErrCustomerNotFound
		}

		return nil, wrapErr(err, "get customer")
	}

	return fromCustomerModel(&m)
}

func (s *Store) GetCustomerByUserNumber(ctx context.Context, userNumber string) (*customer.Customer, error) {
	var m customerModel
	err := s.col(colCustomers).FindOne(ctx, bson.M{"user_number": userNumber}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledger.ErrCustomerNotFound
		}

		return nil, wrapErr(err, "get customer by number")
	}

	return fromCustomerModel(&m)
}

func (s *Store) GetCustomerByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	var m customerModel
	err := s.col(colCustomers).FindOne(ctx, bson.M{"email": email}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledger.ErrCustomerNotFound
		}

		return nil, wrapErr(err, "get customer by email")
	}

	return fromCustomerModel(&m)
}

func (s *Store) UpdateCustomer(ctx context.Context, c *customer.Customer) error {
	res, err := s.col(colCustomers).ReplaceOne(ctx, bson.M{"_id": c.ID.String()}, toCustomerModel(c))
	if err != nil {
		return wrapErr(err, "update customer")
	}
	if res.MatchedCount == 0 {
		return ledger.ErrCustomerNotFound
	}

	return nil
}

func (s *Store) ListCustomers(ctx context.Context, opts customer.ListOpts) ([]*customer.Customer, error) {
	filter := bson.M{}
	if opts.UserType != "" {
		filter["user_type"] = string(opts.UserType)
	}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}

	cursor, err := s.col(colCustomers).Find(ctx, filter, listOptions(opts.Offset, opts.Limit, "created_at"))
	if err != nil {
		return nil, wrapErr(err, "list customers")
	}
	defer cursor.Close(ctx)

	var out []*customer.Customer
	for cursor.Next(ctx) {
		var m customerModel
		if err := cursor.Decode(&m); err != nil {
			return nil, wrapErr(err, "decode customer")
		}
		c, err := fromCustomerModel(&m)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}

	return out, cursor.Err()
}

// ==================== Billing Store ====================

func (s *Store) CreateBilling(ctx context.Context, rec *billing.Record) error {
	if _, err := s.col(colBillings).InsertOne(ctx, toBillingModel(rec)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ledger.ErrAlreadyExists
		}

		return wrapErr(err, "create billing")
	}

	return nil
}

func (s *Store) GetBilling(ctx context.Context, billingID id.BillingID) (*billing.Record, error) {
	var m billingModel
	err := s.col(colBillings).FindOne(ctx, bson.M{"_id": billingID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledger.ErrBillingNotFound
		}

		return nil, wrapErr(err, "get billing")
	}

	return fromBillingModel(&m)
}

func (s *Store) UpdateBilling(ctx context.Context, rec *billing.Record) error {
	res, err := s.col(colBillings).ReplaceOne(ctx, bson.M{"_id": rec.ID.String()}, toBillingModel(rec))
	if err != nil {
		return wrapErr(err, "update billing")
	}
	if res.MatchedCount == 0 {
		return ledger.ErrBillingNotFound
	}

	return nil
}

func (s *Store) ListBillingByCustomer(ctx context.Context, custID id.CustomerID, opts billing.ListOpts) ([]*billing.Record, error) {
	filter := bson.M{"customer_id": custID.String()}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}

	cursor, err := s.col(colBillings).Find(ctx, filter, listOptions(opts.Offset, opts.Limit, "issue_date"))
	if err != nil {
		return nil, wrapErr(err, "list billing")
	}
	defer cursor.Close(ctx)

	return decodeBillings(ctx, cursor)
}

func (s *Store) ListBillingDueBefore(ctx context.Context, cutoff time.Time) ([]*billing.Record, error) {
	filter := bson.M{
		"status":   bson.M{"$in": []string{string(billing.StatusCurrent), string(billing.StatusOverdue), string(billing.StatusVerify)}},
		"due_date": bson.M{"$lt": cutoff},
	}

	cursor, err := s.col(colBillings).Find(ctx, filter)
	if err != nil {
		return nil, wrapErr(err, "list billing due")
	}
	defer cursor.Close(ctx)

	return decodeBillings(ctx, cursor)
}

func decodeBillings(ctx context.Context, cursor *mongo.Cursor) ([]*billing.Record, error) {
	var out []*billing.Record
	for cursor.Next(ctx) {
		var m billingModel
		if err := cursor.Decode(&m); err != nil {
			return nil, wrapErr(err, "decode billing")
		}
		rec, err := fromBillingModel(&m)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}

	return out, cursor.Err()
}

// ==================== Invoice Store ====================

func (s *Store) CreateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	if _, err := s.col(colInvoices).InsertOne(ctx, toInvoiceModel(inv)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ledger.ErrInvoiceExists
		}

		return wrapErr(err, "create invoice")
	}

	return nil
}

func (s *Store) GetInvoice(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	var m invoiceModel
	err := s.col(colInvoices).FindOne(ctx, bson.M{"_id": invID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledger.ErrInvoiceNotFound
		}

		return nil, wrapErr(err, "get invoice")
	}

	return fromInvoiceModel(&m)
}

func (s *Store) GetInvoiceByNumber(ctx context.Context, invoiceNumber string) (*invoice.Invoice, error) {
	var m invoiceModel
	err := s.col(colInvoices).FindOne(ctx, bson.M{"invoice_number": invoiceNumber}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledger.ErrInvoiceNotFound
		}

		return nil, wrapErr(err, "get invoice by number")
	}

	return fromInvoiceModel(&m)
}

func (s *Store) ListInvoicesByCustomer(ctx context.Context, custID id.CustomerID, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	cursor, err := s.col(colInvoices).Find(ctx,
		bson.M{"customer_id": custID.String()},
		listOptions(opts.Offset, opts.Limit, "issue_date"))
	if err != nil {
		return nil, wrapErr(err, "list invoices")
	}
	defer cursor.Close(ctx)

	var out []*invoice.Invoice
	for cursor.Next(ctx) {
		var m invoiceModel
		if err := cursor.Decode(&m); err != nil {
			return nil, wrapErr(err, "decode invoice")
		}
		inv, err := fromInvoiceModel(&m)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}

	return out, cursor.Err()
}

// ==================== Adjustment Store ====================

func (s *Store) CreateAdjustment(ctx context.Context, note *adjustment.Note) error {
	if _, err := s.col(colAdjustments).InsertOne(ctx, toAdjustmentModel(note)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ledger.ErrAlreadyExists
		}

		return wrapErr(err, "create adjustment")
	}

	return nil
}

func (s *Store) GetAdjustment(ctx context.Context, noteID id.AdjustmentID) (*adjustment.Note, error) {
	var m adjustmentModel
	err := s.col(colAdjustments).FindOne(ctx, bson.M{"_id": noteID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledger.ErrAdjustmentNotFound
		}

		return nil, wrapErr(err, "get adjustment")
	}

	return fromAdjustmentModel(&m)
}

func (s *Store) GetAdjustmentByNumber(ctx context.Context, documentNumber string) (*adjustment.Note, error) {
	var m adjustmentModel
	err := s.col(colAdjustments).FindOne(ctx, bson.M{"document_number": documentNumber}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledger.ErrAdjustmentNotFound
		}

		return nil, wrapErr(err, "get adjustment by number")
	}

	return fromAdjustmentModel(&m)
}

func (s *Store) ListAdjustmentsByBilling(ctx context.Context, billingID id.BillingID) ([]*adjustment.Note, error) {
	opts := options.Find().SetSort(bson.D{{Key: "issue_date", Value: 1}, {Key: "document_number", Value: 1}})
	cursor, err := s.col(colAdjustments).Find(ctx, bson.M{"billing_id": billingID.String()}, opts)
	if err != nil {
		return nil, wrapErr(err, "list adjustments")
	}
	defer cursor.Close(ctx)

	var out []*adjustment.Note
	for cursor.Next(ctx) {
		var m adjustmentModel
		if err := cursor.Decode(&m); err != nil {
			return nil, wrapErr(err, "decode adjustment")
		}
		note, err := fromAdjustmentModel(&m)
		if err != nil {
			return nil, err
		}
		out = append(out, note)
	}

	return out, cursor.Err()
}

func (s *Store) AttachAdjustmentDocument(ctx context.Context, noteID id.AdjustmentID, art *artifact.Artifact) error {
	res, err := s.col(colAdjustments).UpdateOne(ctx,
		bson.M{"_id": noteID.String()},
		bson.M{"$set": bson.M{
			"document":   toArtifactModel(art),
			"updated_at": time.Now().UTC(),
		}})
	if err != nil {
		return wrapErr(err, "attach adjustment document")
	}
	if res.MatchedCount == 0 {
		return ledger.ErrAdjustmentNotFound
	}

	return nil
}

// ==================== Payment Store ====================

func (s *Store) CreatePayment(ctx context.Context, p *payment.Payment) error {
	if _, err := s.col(colPayments).InsertOne(ctx, toPaymentModel(p)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ledger.ErrAlreadyExists
		}

		return wrapErr(err, "create payment")
	}

	return nil
}

func (s *Store) GetPayment(ctx context.Context, paymentID id.PaymentID) (*payment.Payment, error) {
	var m paymentModel
	err := s.col(colPayments).FindOne(ctx, bson.M{"_id": paymentID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledger.ErrPaymentNotFound
		}

		return nil, wrapErr(err, "get payment")
	}

	return fromPaymentModel(&m)
}

func (s *Store) GetPaymentByNumber(ctx context.Context, paymentNumber string) (*payment.Payment, error) {
	var m paymentModel
	err := s.col(colPayments).FindOne(ctx, bson.M{"payment_number": paymentNumber}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledger.ErrPaymentNotFound
		}

		return nil, wrapErr(err, "get payment by number")
	}

	return fromPaymentModel(&m)
}

func (s *Store) UpdatePayment(ctx context.Context, p *payment.Payment) error {
	res, err := s.col(colPayments).ReplaceOne(ctx, bson.M{"_id": p.ID.String()}, toPaymentModel(p))
	if err != nil {
		return wrapErr(err, "update payment")
	}
	if res.MatchedCount == 0 {
		return ledger.ErrPaymentNotFound
	}

	return nil
}

func (s *Store) ListPaymentsByBilling(ctx context.Context, billingID id.BillingID) ([]*payment.Payment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := s.col(colPayments).Find(ctx, bson.M{"billing_id": billingID.String()}, opts)
	if err != nil {
		return nil, wrapErr(err, "list payments")
	}
	defer cursor.Close(ctx)

	var out []*payment.Payment
	for cursor.Next(ctx) {
		var m paymentModel
		if err := cursor.Decode(&m); err != nil {
			return nil, wrapErr(err, "decode payment")
		}
		p, err := fromPaymentModel(&m)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	return out, cursor.Err()
}

// ==================== Helpers ====================

func listOptions(offset, limit int, sortField string) options.Lister[options.FindOptions] {
	opts := options.Find().SetSort(bson.D{{Key: sortField, Value: -1}})
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	return opts
}
