package config

// SaleConfig holds the token-sale parameters as human-readable decimal
// strings. Payment-denominated values use PaymentDecimals; TokensForSale uses
// TokenDecimals.
type SaleConfig struct {
	Controller      string `toml:"controller" yaml:"controller"`
	TokenPrice      string `toml:"token_price" yaml:"token_price"`
	TokensForSale   string `toml:"tokens_for_sale" yaml:"tokens_for_sale"`
	SoftCap         string `toml:"soft_cap" yaml:"soft_cap"`
	HardCap         string `toml:"hard_cap" yaml:"hard_cap"`
	MinContribution string `toml:"min_contribution" yaml:"min_contribution"`
	MaxContribution string `toml:"max_contribution" yaml:"max_contribution"`
	PaymentDecimals uint8  `toml:"payment_decimals" yaml:"payment_decimals"`
	TokenDecimals   uint8  `toml:"token_decimals" yaml:"token_decimals"`
	Duration        string `toml:"duration" yaml:"duration"`
}

// VestingConfig configures the vesting engine and the grants seeded at boot.
// Controller and TokenDecimals fall back to the sale values when unset.
type VestingConfig struct {
	Controller    string        `toml:"controller" yaml:"controller"`
	TokenDecimals *uint8        `toml:"token_decimals" yaml:"token_decimals"`
	Grants        []GrantConfig `toml:"grants" yaml:"grants"`
}

// GrantConfig describes one vesting schedule to create when absent. A zero
// Start means the daemon's boot time.
type GrantConfig struct {
	Beneficiary string `toml:"beneficiary" yaml:"beneficiary"`
	Amount      string `toml:"amount" yaml:"amount"`
	Start       int64  `toml:"start" yaml:"start"`
	Cliff       string `toml:"cliff" yaml:"cliff"`
	Duration    string `toml:"duration" yaml:"duration"`
	Revocable   bool   `toml:"revocable" yaml:"revocable"`
}

type StorageConfig struct {
	Backend string `toml:"backend" yaml:"backend"`
	Path    string `toml:"path" yaml:"path"`
}

type RPCConfig struct {
	Listen                   string `toml:"listen" yaml:"listen"`
	ReadHeaderTimeoutSeconds int    `toml:"read_header_timeout_seconds" yaml:"read_header_timeout_seconds"`
	ShutdownTimeoutSeconds   int    `toml:"shutdown_timeout_seconds" yaml:"shutdown_timeout_seconds"`
}

// AuthConfig enables bearer-token authentication on the RPC surface. The
// secret may be supplied inline or through the named environment variable.
type AuthConfig struct {
	Enabled        bool   `toml:"enabled" yaml:"enabled"`
	HMACSecret     string `toml:"hmac_secret" yaml:"hmac_secret"`
	HMACSecretEnv  string `toml:"hmac_secret_env" yaml:"hmac_secret_env"`
	Issuer         string `toml:"issuer" yaml:"issuer"`
	Audience       string `toml:"audience" yaml:"audience"`
	AllowAnonymous bool   `toml:"allow_anonymous" yaml:"allow_anonymous"`
	ClockSkew      string `toml:"clock_skew" yaml:"clock_skew"`
}

type RateLimitConfig struct {
	RequestsPerMinute float64 `toml:"requests_per_minute" yaml:"requests_per_minute"`
	Burst             int     `toml:"burst" yaml:"burst"`
}

type LoggingConfig struct {
	Level      string `toml:"level" yaml:"level"`
	File       string `toml:"file" yaml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `toml:"compress" yaml:"compress"`
}

// Pauses halts write operations per module at the RPC boundary.
type Pauses struct {
	Sale    bool `toml:"sale" yaml:"sale"`
	Vesting bool `toml:"vesting" yaml:"vesting"`
}

// IsPaused satisfies common.PauseView.
func (p Pauses) IsPaused(module string) bool {
	switch module {
	case ModuleSale:
		return p.Sale
	case ModuleVesting:
		return p.Vesting
	default:
		return false
	}
}

const (
	ModuleSale    = "sale"
	ModuleVesting = "vesting"
)
