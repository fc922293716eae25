// Package observability provides a metrics extension for Ledger that records
// lifecycle event counts via an injected MetricFactory.
package observability

import (
	"context"

	"github.com/biwswalker/movemate-ledger/adjustment"
	"github.com/biwswalker/movemate-ledger/billing"
	"github.com/biwswalker/movemate-ledger/payment"
	"github.com/biwswalker/movemate-ledger/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                 = (*MetricsExtension)(nil)
	_ plugin.OnInit                 = (*MetricsExtension)(nil)
	_ plugin.OnCustomerRegistered   = (*MetricsExtension)(nil)
	_ plugin.OnBillingOpened        = (*MetricsExtension)(nil)
	_ plugin.OnBillingStatusChanged = (*MetricsExtension)(nil)
	_ plugin.OnAdjustmentCreated    = (*MetricsExtension)(nil)
	_ plugin.OnArtifactAttached     = (*MetricsExtension)(nil)
	_ plugin.OnPaymentCreated       = (*MetricsExtension)(nil)
	_ plugin.OnPaymentCanceled      = (*MetricsExtension)(nil)
	_ plugin.OnConflictRetried      = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Ledger plugin to automatically track billing metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Customer metrics
	CustomersRegistered Counter

	// Billing metrics
	BillingOpened    Counter
	BillingPaid      Counter
	BillingOverdue   Counter
	BillingCancelled Counter
	BillingRefunded  Counter
	BillingTotal     Histogram

	// Adjustment metrics
	DebitNotesCreated  Counter
	CreditNotesCreated Counter
	AdjustmentDelta    Histogram
	ArtifactsAttached  Counter

	// Payment metrics
	PaymentsCreated  Counter
	PaymentsCanceled Counter
	PaymentTotal     Histogram

	// Transaction metrics
	ConflictRetries Counter

	// Error metrics
	StoreErrors  Counter
	PluginErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Customer metrics
		CustomersRegistered: factory.Counter("ledger.customer.registered"),

		// Billing metrics
		BillingOpened:    factory.Counter("ledger.billing.opened"),
		BillingPaid:      factory.Counter("ledger.billing.paid"),
		BillingOverdue:   factory.Counter("ledger.billing.overdue"),
		BillingCancelled: factory.Counter("ledger.billing.cancelled"),
		BillingRefunded:  factory.Counter("ledger.billing.refunded"),
		BillingTotal:     factory.Histogram("ledger.billing.total_amount"),

		// Adjustment metrics
		DebitNotesCreated:  factory.Counter("ledger.adjustment.debit.created"),
		CreditNotesCreated: factory.Counter("ledger.adjustment.credit.created"),
		AdjustmentDelta:    factory.Histogram("ledger.adjustment.delta_amount"),
		ArtifactsAttached:  factory.Counter("ledger.artifact.attached"),

		// Payment metrics
		PaymentsCreated:  factory.Counter("ledger.payment.created"),
		PaymentsCanceled: factory.Counter("ledger.payment.canceled"),
		PaymentTotal:     factory.Histogram("ledger.payment.total_amount"),

		// Transaction metrics
		ConflictRetries: factory.Counter("ledger.transaction.conflict_retries"),

		// Error metrics
		StoreErrors:  factory.Counter("ledger.store.errors"),
		PluginErrors: factory.Counter("ledger.plugin.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Customer lifecycle hooks
// ──────────────────────────────────────────────────

// OnCustomerRegistered implements plugin.OnCustomerRegistered.
func (m *MetricsExtension) OnCustomerRegistered(_ context.Context, _ interface{}) error {
	m.CustomersRegistered.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Billing lifecycle hooks
// ──────────────────────────────────────────────────

// OnBillingOpened implements plugin.OnBillingOpened.
func (m *MetricsExtension) OnBillingOpened(_ context.Context, rawRec, _ interface{}) error {
	m.BillingOpened.Inc()
	if rec, ok := rawRec.(*billing.Record); ok {
		total, _ := rec.Total.Amount.Float64()
		m.BillingTotal.Observe(total)
	}
	return nil
}

// OnBillingStatusChanged implements plugin.OnBillingStatusChanged.
func (m *MetricsExtension) OnBillingStatusChanged(_ context.Context, _ interface{}, _, to string) error {
	switch billing.Status(to) {
	case billing.StatusPaid:
		m.BillingPaid.Inc()
	case billing.StatusOverdue:
		m.BillingOverdue.Inc()
	case billing.StatusCancelled:
		m.BillingCancelled.Inc()
	case billing.StatusRefunded:
		m.BillingRefunded.Inc()
	}
	return nil
}

// ──────────────────────────────────────────────────
// Adjustment lifecycle hooks
// ──────────────────────────────────────────────────

// OnAdjustmentCreated implements plugin.OnAdjustmentCreated.
func (m *MetricsExtension) OnAdjustmentCreated(_ context.Context, raw interface{}) error {
	note, ok := raw.(*adjustment.Note)
	if !ok {
		return nil
	}
	if note.Type == adjustment.TypeCredit {
		m.CreditNotesCreated.Inc()
	} else {
		m.DebitNotesCreated.Inc()
	}
	delta, _ := note.AdjustmentAmount.Amount.Float64()
	m.AdjustmentDelta.Observe(delta)
	return nil
}

// OnArtifactAttached implements plugin.OnArtifactAttached.
func (m *MetricsExtension) OnArtifactAttached(_ context.Context, _ string, _ interface{}) error {
	m.ArtifactsAttached.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Payment lifecycle hooks
// ──────────────────────────────────────────────────

// OnPaymentCreated implements plugin.OnPaymentCreated.
func (m *MetricsExtension) OnPaymentCreated(_ context.Context, raw interface{}) error {
	m.PaymentsCreated.Inc()
	if p, ok := raw.(*payment.Payment); ok {
		total, _ := p.Total.Amount.Float64()
		m.PaymentTotal.Observe(total)
	}
	return nil
}

// OnPaymentCanceled implements plugin.OnPaymentCanceled.
func (m *MetricsExtension) OnPaymentCanceled(_ context.Context, _ interface{}) error {
	m.PaymentsCanceled.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Transaction hooks
// ──────────────────────────────────────────────────

// OnConflictRetried implements plugin.OnConflictRetried.
func (m *MetricsExtension) OnConflictRetried(_ context.Context, _ string, _ int, _ error) error {
	m.ConflictRetries.Inc()
	return nil
}
