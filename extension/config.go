package extension

import "time"

// Config holds the Ledger extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.movemate-ledger" or "ledger" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// Currency is the platform currency code (default: "thb").
	Currency string `json:"currency" mapstructure:"currency" yaml:"currency"`

	// MaxRetryAttempts bounds the transactional executor's conflict-retry
	// loop (default: 5).
	MaxRetryAttempts int `json:"max_retry_attempts" mapstructure:"max_retry_attempts" yaml:"max_retry_attempts"`

	// RetryBaseDelay is the first backoff interval between conflict
	// retries; each subsequent interval doubles (default: 100ms).
	RetryBaseDelay time.Duration `json:"retry_base_delay" mapstructure:"retry_base_delay" yaml:"retry_base_delay"`

	// PaymentTermsDays is how many days after issue a billing cycle falls
	// due (default: 15).
	PaymentTermsDays int `json:"payment_terms_days" mapstructure:"payment_terms_days" yaml:"payment_terms_days"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Currency:         "thb",
		MaxRetryAttempts: 5,
		RetryBaseDelay:   100 * time.Millisecond,
		PaymentTermsDays: 15,
	}
}
