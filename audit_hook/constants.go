package audithook

// Action constants for audit events.
const (
	// Customer actions
	ActionCustomerRegistered = "customer.registered"

	// Billing actions
	ActionBillingOpened        = "billing.opened"
	ActionBillingStatusChanged = "billing.status_changed"
	ActionBillingCancelled     = "billing.cancelled"

	// Adjustment actions
	ActionAdjustmentCreated = "adjustment.created"
	ActionArtifactAttached  = "artifact.attached"

	// Payment actions
	ActionPaymentCreated  = "payment.created"
	ActionPaymentCanceled = "payment.canceled"

	// Transaction actions
	ActionConflictRetried = "transaction.conflict_retried"
)

// Resource constants for audit events.
const (
	ResourceCustomer   = "customer"
	ResourceBilling    = "billing"
	ResourceAdjustment = "adjustment"
	ResourceArtifact   = "artifact"
	ResourcePayment    = "payment"
	ResourceLedger     = "ledger"
)

// Category constants for audit events.
const (
	CategoryBilling     = "billing"
	CategoryPayment     = "payment"
	CategoryCustomer    = "customer"
	CategoryIntegration = "integration"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
