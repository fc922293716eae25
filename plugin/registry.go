package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit                 []OnInit
	onShutdown             []OnShutdown
	onCustomerRegistered   []OnCustomerRegistered
	onBillingOpened        []OnBillingOpened
	onBillingStatusChanged []OnBillingStatusChanged
	onAdjustmentCreated    []OnAdjustmentCreated
	onArtifactAttached     []OnArtifactAttached
	onPaymentCreated       []OnPaymentCreated
	onPaymentCanceled      []OnPaymentCanceled
	onConflictRetried      []OnConflictRetried
	taxCalculators         []TaxCalculator
	documentRenderers      map[string]DocumentRenderer
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:            slog.Default(),
		documentRenderers: make(map[string]DocumentRenderer),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnCustomerRegistered); ok {
		r.onCustomerRegistered = append(r.onCustomerRegistered, v)
	}
	if v, ok := p.(OnBillingOpened); ok {
		r.onBillingOpened = append(r.onBillingOpened, v)
	}
	if v, ok := p.(OnBillingStatusChanged); ok {
		r.onBillingStatusChanged = append(r.onBillingStatusChanged, v)
	}
	if v, ok := p.(OnAdjustmentCreated); ok {
		r.onAdjustmentCreated = append(r.onAdjustmentCreated, v)
	}
	if v, ok := p.(OnArtifactAttached); ok {
		r.onArtifactAttached = append(r.onArtifactAttached, v)
	}
	if v, ok := p.(OnPaymentCreated); ok {
		r.onPaymentCreated = append(r.onPaymentCreated, v)
	}
	if v, ok := p.(OnPaymentCanceled); ok {
		r.onPaymentCanceled = append(r.onPaymentCanceled, v)
	}
	if v, ok := p.(OnConflictRetried); ok {
		r.onConflictRetried = append(r.onConflictRetried, v)
	}
	if v, ok := p.(TaxCalculator); ok {
		r.taxCalculators = append(r.taxCalculators, v)
	}
	if v, ok := p.(DocumentRenderer); ok {
		r.documentRenderers[v.Format()] = v
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnCustomerRegistered)(nil)).Elem(), "OnCustomerRegistered")
	checkInterface(reflect.TypeOf((*OnBillingOpened)(nil)).Elem(), "OnBillingOpened")
	checkInterface(reflect.TypeOf((*OnBillingStatusChanged)(nil)).Elem(), "OnBillingStatusChanged")
	checkInterface(reflect.TypeOf((*OnAdjustmentCreated)(nil)).Elem(), "OnAdjustmentCreated")
	checkInterface(reflect.TypeOf((*OnArtifactAttached)(nil)).Elem(), "OnArtifactAttached")
	checkInterface(reflect.TypeOf((*OnPaymentCreated)(nil)).Elem(), "OnPaymentCreated")
	checkInterface(reflect.TypeOf((*OnPaymentCanceled)(nil)).Elem(), "OnPaymentCanceled")
	checkInterface(reflect.TypeOf((*OnConflictRetried)(nil)).Elem(), "OnConflictRetried")
	checkInterface(reflect.TypeOf((*TaxCalculator)(nil)).Elem(), "TaxCalculator")
	checkInterface(reflect.TypeOf((*DocumentRenderer)(nil)).Elem(), "DocumentRenderer")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, ledger interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, ledger)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCustomerRegistered emits a customer registered event.
func (r *Registry) EmitCustomerRegistered(ctx context.Context, cust interface{}) {
	r.mu.RLock()
	plugins := r.onCustomerRegistered
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCustomerRegistered(ctx, cust)
		}); err != nil {
			r.logger.Warn("plugin OnCustomerRegistered failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitBillingOpened emits a billing cycle opened event.
func (r *Registry) EmitBillingOpened(ctx context.Context, rec, inv interface{}) {
	r.mu.RLock()
	plugins := r.onBillingOpened
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnBillingOpened(ctx, rec, inv)
		}); err != nil {
			r.logger.Warn("plugin OnBillingOpened failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitBillingStatusChanged emits a billing status transition event.
func (r *Registry) EmitBillingStatusChanged(ctx context.Context, rec interface{}, from, to string) {
	r.mu.RLock()
	plugins := r.onBillingStatusChanged
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnBillingStatusChanged(ctx, rec, from, to)
		}); err != nil {
			r.logger.Warn("plugin OnBillingStatusChanged failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitAdjustmentCreated emits an adjustment note created event.
func (r *Registry) EmitAdjustmentCreated(ctx context.Context, note interface{}) {
	r.mu.RLock()
	plugins := r.onAdjustmentCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnAdjustmentCreated(ctx, note)
		}); err != nil {
			r.logger.Warn("plugin OnAdjustmentCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitArtifactAttached emits an artifact attached event.
func (r *Registry) EmitArtifactAttached(ctx context.Context, documentNumber string, art interface{}) {
	r.mu.RLock()
	plugins := r.onArtifactAttached
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnArtifactAttached(ctx, documentNumber, art)
		}); err != nil {
			r.logger.Warn("plugin OnArtifactAttached failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPaymentCreated emits a payment created event.
func (r *Registry) EmitPaymentCreated(ctx context.Context, payment interface{}) {
	r.mu.RLock()
	plugins := r.onPaymentCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPaymentCreated(ctx, payment)
		}); err != nil {
			r.logger.Warn("plugin OnPaymentCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPaymentCanceled emits a payment canceled event.
func (r *Registry) EmitPaymentCanceled(ctx context.Context, payment interface{}) {
	r.mu.RLock()
	plugins := r.onPaymentCanceled
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPaymentCanceled(ctx, payment)
		}); err != nil {
			r.logger.Warn("plugin OnPaymentCanceled failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitConflictRetried emits a transaction conflict retry event.
func (r *Registry) EmitConflictRetried(ctx context.Context, operation string, attempt int, cause error) {
	r.mu.RLock()
	plugins := r.onConflictRetried
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnConflictRetried(ctx, operation, attempt, cause)
		}); err != nil {
			r.logger.Warn("plugin OnConflictRetried failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// GetTaxCalculators returns all registered tax calculators.
func (r *Registry) GetTaxCalculators() []TaxCalculator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]TaxCalculator, len(r.taxCalculators))
	copy(result, r.taxCalculators)
	return result
}

// GetDocumentRenderer returns a document renderer by format.
func (r *Registry) GetDocumentRenderer(format string) DocumentRenderer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.documentRenderers[format]
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the billing pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
