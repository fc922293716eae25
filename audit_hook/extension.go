// Package audithook bridges Ledger lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular audit system. Callers inject a RecorderFunc adapter that
// bridges to their backend at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/biwswalker/movemate-ledger/adjustment"
	"github.com/biwswalker/movemate-ledger/artifact"
	"github.com/biwswalker/movemate-ledger/billing"
	"github.com/biwswalker/movemate-ledger/customer"
	"github.com/biwswalker/movemate-ledger/invoice"
	"github.com/biwswalker/movemate-ledger/payment"
	"github.com/biwswalker/movemate-ledger/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                 = (*Extension)(nil)
	_ plugin.OnCustomerRegistered   = (*Extension)(nil)
	_ plugin.OnBillingOpened        = (*Extension)(nil)
	_ plugin.OnBillingStatusChanged = (*Extension)(nil)
	_ plugin.OnAdjustmentCreated    = (*Extension)(nil)
	_ plugin.OnArtifactAttached     = (*Extension)(nil)
	_ plugin.OnPaymentCreated       = (*Extension)(nil)
	_ plugin.OnPaymentCanceled      = (*Extension)(nil)
	_ plugin.OnConflictRetried      = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// It is defined locally so that the audit_hook package does not import
// a concrete audit system — callers inject theirs at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Ledger lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Customer lifecycle hooks
// ──────────────────────────────────────────────────

// OnCustomerRegistered implements plugin.OnCustomerRegistered.
func (e *Extension) OnCustomerRegistered(ctx context.Context, raw interface{}) error {
	var id, userNumber, userType string
	if c, ok := raw.(*customer.Customer); ok {
		id = c.ID.String()
		userNumber = c.UserNumber
		userType = string(c.UserType)
	}

	return e.record(ctx, ActionCustomerRegistered, SeverityInfo, OutcomeSuccess,
		ResourceCustomer, id, CategoryCustomer, nil,
		"user_number", userNumber,
		"user_type", userType,
	)
}

// ──────────────────────────────────────────────────
// Billing lifecycle hooks
// ──────────────────────────────────────────────────

// OnBillingOpened implements plugin.OnBillingOpened.
func (e *Extension) OnBillingOpened(ctx context.Context, rawRec, rawInv interface{}) error {
	var id, total, invoiceNumber string
	if rec, ok := rawRec.(*billing.Record); ok {
		id = rec.ID.String()
		total = rec.Total.FormatMajor()
	}
	if inv, ok := rawInv.(*invoice.Invoice); ok {
		invoiceNumber = inv.InvoiceNumber
	}

	return e.record(ctx, ActionBillingOpened, SeverityInfo, OutcomeSuccess,
		ResourceBilling, id, CategoryBilling, nil,
		"invoice_number", invoiceNumber,
		"total", total,
	)
}

// OnBillingStatusChanged implements plugin.OnBillingStatusChanged.
func (e *Extension) OnBillingStatusChanged(ctx context.Context, rawRec interface{}, from, to string) error {
	var id string
	if rec, ok := rawRec.(*billing.Record); ok {
		id = rec.ID.String()
	}
	action := ActionBillingStatusChanged
	severity := SeverityInfo
	if to == string(billing.StatusCancelled) {
		action = ActionBillingCancelled
		severity = SeverityWarning
	}

	return e.record(ctx, action, severity, OutcomeSuccess,
		ResourceBilling, id, CategoryBilling, nil,
		"from", from,
		"to", to,
	)
}

// ──────────────────────────────────────────────────
// Adjustment lifecycle hooks
// ──────────────────────────────────────────────────

// OnAdjustmentCreated implements plugin.OnAdjustmentCreated.
func (e *Extension) OnAdjustmentCreated(ctx context.Context, raw interface{}) error {
	var id, documentNumber, noteType, total string
	if note, ok := raw.(*adjustment.Note); ok {
		id = note.ID.String()
		documentNumber = note.DocumentNumber
		noteType = string(note.Type)
		total = note.Total.FormatMajor()
	}

	return e.record(ctx, ActionAdjustmentCreated, SeverityInfo, OutcomeSuccess,
		ResourceAdjustment, id, CategoryBilling, nil,
		"document_number", documentNumber,
		"note_type", noteType,
		"total", total,
	)
}

// OnArtifactAttached implements plugin.OnArtifactAttached.
func (e *Extension) OnArtifactAttached(ctx context.Context, documentNumber string, raw interface{}) error {
	var id, path string
	if art, ok := raw.(*artifact.Artifact); ok {
		id = art.ID.String()
		path = art.FilePath
	}

	return e.record(ctx, ActionArtifactAttached, SeverityInfo, OutcomeSuccess,
		ResourceArtifact, id, CategoryBilling, nil,
		"document_number", documentNumber,
		"file_path", path,
	)
}

// ──────────────────────────────────────────────────
// Payment lifecycle hooks
// ──────────────────────────────────────────────────

// OnPaymentCreated implements plugin.OnPaymentCreated.
func (e *Extension) OnPaymentCreated(ctx context.Context, raw interface{}) error {
	var id, paymentNumber, total string
	if p, ok := raw.(*payment.Payment); ok {
		id = p.ID.String()
		paymentNumber = p.PaymentNumber
		total = p.Total.FormatMajor()
	}

	return e.record(ctx, ActionPaymentCreated, SeverityInfo, OutcomeSuccess,
		ResourcePayment, id, CategoryPayment, nil,
		"payment_number", paymentNumber,
		"total", total,
	)
}

// OnPaymentCanceled implements plugin.OnPaymentCanceled.
func (e *Extension) OnPaymentCanceled(ctx context.Context, raw interface{}) error {
	var id, paymentNumber, remark string
	if p, ok := raw.(*payment.Payment); ok {
		id = p.ID.String()
		paymentNumber = p.PaymentNumber
		remark = p.Remark
	}

	return e.record(ctx, ActionPaymentCanceled, SeverityWarning, OutcomeSuccess,
		ResourcePayment, id, CategoryPayment, nil,
		"payment_number", paymentNumber,
		"remark", remark,
	)
}

// ──────────────────────────────────────────────────
// Transaction hooks
// ──────────────────────────────────────────────────

// OnConflictRetried implements plugin.OnConflictRetried.
func (e *Extension) OnConflictRetried(ctx context.Context, operation string, attempt int, err error) error {
	return e.record(ctx, ActionConflictRetried, SeverityWarning, OutcomePartial,
		ResourceLedger, "", CategoryIntegration, err,
		"operation", operation,
		"attempt", attempt,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
