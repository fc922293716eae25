package extension

import (
	"time"

	ledger "github.com/biwswalker/movemate-ledger"
	"github.com/biwswalker/movemate-ledger/plugin"
	"github.com/biwswalker/movemate-ledger/store"
)

// Option configures the Ledger Forge extension.
type Option func(*Extension)

// WithStore sets the store for the ledger engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithLedgerOption passes a ledger.Option through to the underlying engine.
func WithLedgerOption(opt ledger.Option) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, opt)
	}
}

// WithPlugin registers a ledger plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, ledger.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithCurrency sets the platform currency code.
func WithCurrency(currency string) Option {
	return func(e *Extension) { e.config.Currency = currency }
}

// WithRetry configures the conflict-retry bound and first backoff interval.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(e *Extension) {
		e.config.MaxRetryAttempts = maxAttempts
		e.config.RetryBaseDelay = baseDelay
	}
}

// WithPaymentTermsDays sets how many days after issue a cycle falls due.
func WithPaymentTermsDays(days int) Option {
	return func(e *Extension) { e.config.PaymentTermsDays = days }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
