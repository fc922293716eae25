// Package id defines TypeID-based identity types for all ledger entities.
//
// Every entity uses a single ID struct with a prefix that identifies the
// entity type. IDs are K-sortable (UUIDv7-based), globally unique, and
// URL-safe in the format "prefix_suffix". Document numbers (DR2606001,
// PAYCAS2606001, ...) are a separate, human-facing concern handled by the
// docnum package; IDs are the storage keys.
package id

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the entity type encoded in a TypeID.
type Prefix string

// Prefix constants for all ledger entity types.
const (
	PrefixCustomer   Prefix = "cust" // Customer account
	PrefixBilling    Prefix = "bill" // Billing record (one customer, one period)
	PrefixInvoice    Prefix = "inv"  // Originating invoice
	PrefixAdjustment Prefix = "adj"  // Debit/credit adjustment note
	PrefixPayment    Prefix = "pay"  // Payment intent record
	PrefixArtifact   Prefix = "file" // Generated document artifact
)

// ID is the primary identifier type for all ledger entities.
// It wraps a TypeID providing a prefix-qualified, globally unique,
// sortable, URL-safe identifier in the format "prefix_suffix".
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receiver for UnmarshalText.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new globally unique ID with the given prefix.
// It panics if prefix is not a valid TypeID prefix (programming error).
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}

	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string (e.g., "bill_01h2xcejqtf2nbrexx3vqjhp41")
// into an ID. Returns an error if the string is not valid.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}

	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses a TypeID string and validates that its prefix
// matches the expected value.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}

	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}

	return parsed, nil
}

// MustParse is like Parse but panics on error. Use for hardcoded ID values.
func MustParse(s string) ID {
	parsed, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("id: must parse %q: %v", s, err))
	}

	return parsed
}

// ──────────────────────────────────────────────────
// Type aliases
// ──────────────────────────────────────────────────

// CustomerID is a type-safe identifier for customers (prefix: "cust").
type CustomerID = ID

// BillingID is a type-safe identifier for billing records (prefix: "bill").
type BillingID = ID

// InvoiceID is a type-safe identifier for invoices (prefix: "inv").
type InvoiceID = ID

// AdjustmentID is a type-safe identifier for adjustment notes (prefix: "adj").
type AdjustmentID = ID

// PaymentID is a type-safe identifier for payments (prefix: "pay").
type PaymentID = ID

// ArtifactID is a type-safe identifier for generated artifacts (prefix: "file").
type ArtifactID = ID

// ──────────────────────────────────────────────────
// Convenience constructors
// ──────────────────────────────────────────────────

// NewCustomerID generates a new unique customer ID.
func NewCustomerID() ID { return New(PrefixCustomer) }

// NewBillingID generates a new unique billing record ID.
func NewBillingID() ID { return New(PrefixBilling) }

// NewInvoiceID generates a new unique invoice ID.
func NewInvoiceID() ID { return New(PrefixInvoice) }

// NewAdjustmentID generates a new unique adjustment note ID.
func NewAdjustmentID() ID { return New(PrefixAdjustment) }

// NewPaymentID generates a new unique payment ID.
func NewPaymentID() ID { return New(PrefixPayment) }

// NewArtifactID generates a new unique artifact ID.
func NewArtifactID() ID { return New(PrefixArtifact) }

// ──────────────────────────────────────────────────
// Convenience parsers
// ──────────────────────────────────────────────────

// ParseCustomerID parses a string and validates the "cust" prefix.
func ParseCustomerID(s string) (ID, error) { return ParseWithPrefix(s, PrefixCustomer) }

// ParseBillingID parses a string and validates the "bill" prefix.
func ParseBillingID(s string) (ID, error) { return ParseWithPrefix(s, PrefixBilling) }

// ParseInvoiceID parses a string and validates the "inv" prefix.
func ParseInvoiceID(s string) (ID, error) { return ParseWithPrefix(s, PrefixInvoice) }

// ParseAdjustmentID parses a string and validates the "adj" prefix.
func ParseAdjustmentID(s string) (ID, error) { return ParseWithPrefix(s, PrefixAdjustment) }

// ParsePaymentID parses a string and validates the "pay" prefix.
func ParsePaymentID(s string) (ID, error) { return ParseWithPrefix(s, PrefixPayment) }

// ParseArtifactID parses a string and validates the "file" prefix.
func ParseArtifactID(s string) (ID, error) { return ParseWithPrefix(s, PrefixArtifact) }

// ParseAny parses a string into an ID without type checking the prefix.
func ParseAny(s string) (ID, error) { return Parse(s) }

// ──────────────────────────────────────────────────
// ID methods
// ──────────────────────────────────────────────────

// String returns the full TypeID string representation (prefix_suffix).
// Returns an empty string for the Nil ID.
func (i ID) String() string {
	if !i.valid {
		return ""
	}

	return i.inner.String()
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}

	return Prefix(i.inner.Prefix())
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool {
	return !i.valid
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	if !i.valid {
		return []byte{}, nil
	}

	return []byte(i.inner.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil

		return nil
	}

	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}

	*i = parsed

	return nil
}
