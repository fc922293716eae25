// Package plugin provides an extensible plugin system for the ledger.
// Plugins can hook into various lifecycle events to extend functionality.
package plugin

import "context"

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, l interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Customer lifecycle hooks
// ──────────────────────────────────────────────────

// OnCustomerRegistered is called when a customer account is registered
// and its user number minted.
type OnCustomerRegistered interface {
	Plugin
	OnCustomerRegistered(ctx context.Context, cust interface{}) error
}

// ──────────────────────────────────────────────────
// Billing lifecycle hooks
// ──────────────────────────────────────────────────

// OnBillingOpened is called when a billing cycle opens with its invoice.
type OnBillingOpened interface {
	Plugin
	OnBillingOpened(ctx context.Context, rec, inv interface{}) error
}

// OnBillingStatusChanged is called on every billing status transition.
type OnBillingStatusChanged interface {
	Plugin
	OnBillingStatusChanged(ctx context.Context, rec interface{}, from, to string) error
}

// ──────────────────────────────────────────────────
// Adjustment hooks
// ──────────────────────────────────────────────────

// OnAdjustmentCreated is called after an adjustment note commits.
type OnAdjustmentCreated interface {
	Plugin
	OnAdjustmentCreated(ctx context.Context, note interface{}) error
}

// OnArtifactAttached is called after a rendered document is attached
// to its owning record.
type OnArtifactAttached interface {
	Plugin
	OnArtifactAttached(ctx context.Context, documentNumber string, art interface{}) error
}

// ──────────────────────────────────────────────────
// Payment hooks
// ──────────────────────────────────────────────────

// OnPaymentCreated is called when a new pending payment is issued.
type OnPaymentCreated interface {
	Plugin
	OnPaymentCreated(ctx context.Context, p interface{}) error
}

// OnPaymentCanceled is called when a pending payment is superseded or
// explicitly cancelled.
type OnPaymentCanceled interface {
	Plugin
	OnPaymentCanceled(ctx context.Context, p interface{}) error
}

// ──────────────────────────────────────────────────
// Transaction hooks
// ──────────────────────────────────────────────────

// OnConflictRetried is called when the transactional executor retries
// a write conflict.
type OnConflictRetried interface {
	Plugin
	OnConflictRetried(ctx context.Context, operation string, attempt int, err error) error
}

// ──────────────────────────────────────────────────
// Tax calculators
// ──────────────────────────────────────────────────

// TaxCalculator overrides the built-in withholding tax policy.
type TaxCalculator interface {
	Plugin
	CalculateTax(ctx context.Context, subtotal interface{}, isBusiness bool) (interface{}, error) // Returns Money
}

// ──────────────────────────────────────────────────
// Document renderers
// ──────────────────────────────────────────────────

// DocumentRenderer renders document artifacts for a format.
type DocumentRenderer interface {
	Plugin
	Format() string // "pdf", "html", etc.
	Render(ctx context.Context, doc interface{}, w interface{}) error // w is io.Writer
}
