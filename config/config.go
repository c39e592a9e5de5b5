package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"launchpad/core/amount"
	"launchpad/crypto"
	"launchpad/native/sale"
	"launchpad/native/vesting"
	"launchpad/observability/logging"
	"launchpad/storage"
)

type Config struct {
	Service     string          `toml:"service" yaml:"service"`
	Environment string          `toml:"environment" yaml:"environment"`
	Sale        SaleConfig      `toml:"sale" yaml:"sale"`
	Vesting     VestingConfig   `toml:"vesting" yaml:"vesting"`
	Storage     StorageConfig   `toml:"storage" yaml:"storage"`
	RPC         RPCConfig       `toml:"rpc" yaml:"rpc"`
	Auth        AuthConfig      `toml:"auth" yaml:"auth"`
	RateLimit   RateLimitConfig `toml:"rate_limit" yaml:"rate_limit"`
	Logging     LoggingConfig   `toml:"logging" yaml:"logging"`
	Pauses      Pauses          `toml:"pauses" yaml:"pauses"`
}

// Default returns the stock launch parameters: 0.15 per token, 150M tokens,
// caps of 7,500 and 22,500, contributions between 10 and 2,000 and a seven day
// window. The controller must still be supplied.
func Default() Config {
	return Config{
		Service:     "launchpadd",
		Environment: "local",
		Sale: SaleConfig{
			TokenPrice:      "0.15",
			TokensForSale:   "150000000",
			SoftCap:         "7500",
			HardCap:         "22500",
			MinContribution: "10",
			MaxContribution: "2000",
			PaymentDecimals: 18,
			TokenDecimals:   18,
			Duration:        "168h",
		},
		Storage:   StorageConfig{Backend: storage.BackendLevelDB, Path: "./launchpad-data"},
		RPC:       RPCConfig{Listen: ":8080", ReadHeaderTimeoutSeconds: 5, ShutdownTimeoutSeconds: 10},
		RateLimit: RateLimitConfig{RequestsPerMinute: 600, Burst: 60},
		Logging:   LoggingConfig{Level: "info", MaxSizeMB: 100, MaxBackups: 5, MaxAgeDays: 28},
	}
}

// Load reads a TOML or YAML file (chosen by extension), layers it over the
// defaults, then normalises and validates the result.
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config path required")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	default:
		meta, err := toml.Decode(string(raw), &cfg)
		if err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("config file %s has unknown key %q", path, undecoded[0].String())
		}
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes cfg as TOML, creating parent directories.
func Save(path string, cfg Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

func (cfg *Config) normalize() {
	cfg.Service = strings.TrimSpace(cfg.Service)
	if cfg.Service == "" {
		cfg.Service = "launchpadd"
	}
	cfg.Environment = strings.TrimSpace(cfg.Environment)

	s := &cfg.Sale
	for _, field := range []*string{&s.Controller, &s.TokenPrice, &s.TokensForSale, &s.SoftCap, &s.HardCap, &s.MinContribution, &s.MaxContribution, &s.Duration} {
		*field = strings.TrimSpace(*field)
	}

	cfg.Vesting.Controller = strings.TrimSpace(cfg.Vesting.Controller)
	if cfg.Vesting.Controller == "" {
		cfg.Vesting.Controller = s.Controller
	}
	if cfg.Vesting.TokenDecimals == nil {
		decimals := s.TokenDecimals
		cfg.Vesting.TokenDecimals = &decimals
	}
	for i := range cfg.Vesting.Grants {
		g := &cfg.Vesting.Grants[i]
		g.Beneficiary = strings.TrimSpace(g.Beneficiary)
		g.Amount = strings.TrimSpace(g.Amount)
		g.Cliff = strings.TrimSpace(g.Cliff)
		g.Duration = strings.TrimSpace(g.Duration)
	}

	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = storage.BackendLevelDB
	}
	cfg.Storage.Path = strings.TrimSpace(cfg.Storage.Path)

	cfg.RPC.Listen = strings.TrimSpace(cfg.RPC.Listen)
	if cfg.RPC.Listen == "" {
		cfg.RPC.Listen = ":8080"
	}
	if cfg.RPC.ReadHeaderTimeoutSeconds <= 0 {
		cfg.RPC.ReadHeaderTimeoutSeconds = 5
	}
	if cfg.RPC.ShutdownTimeoutSeconds <= 0 {
		cfg.RPC.ShutdownTimeoutSeconds = 10
	}

	cfg.Auth.HMACSecretEnv = strings.TrimSpace(cfg.Auth.HMACSecretEnv)
	if cfg.Auth.HMACSecret == "" && cfg.Auth.HMACSecretEnv != "" {
		cfg.Auth.HMACSecret = os.Getenv(cfg.Auth.HMACSecretEnv)
	}
	cfg.Auth.HMACSecret = strings.TrimSpace(cfg.Auth.HMACSecret)
	cfg.Auth.Issuer = strings.TrimSpace(cfg.Auth.Issuer)
	cfg.Auth.Audience = strings.TrimSpace(cfg.Auth.Audience)
	cfg.Auth.ClockSkew = strings.TrimSpace(cfg.Auth.ClockSkew)

	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	cfg.Logging.File = strings.TrimSpace(cfg.Logging.File)
}

// Validate checks every section and reports the first problem found.
func (cfg *Config) Validate() error {
	if cfg == nil {
		return fmt.Errorf("configuration is missing")
	}
	if _, err := cfg.SaleParams(); err != nil {
		return fmt.Errorf("sale: %w", err)
	}
	if _, err := cfg.VestingParams(); err != nil {
		return fmt.Errorf("vesting: %w", err)
	}
	if _, err := cfg.VestingGrants(); err != nil {
		return fmt.Errorf("vesting: %w", err)
	}
	switch cfg.Storage.Backend {
	case storage.BackendMemory:
	case storage.BackendLevelDB, storage.BackendBolt:
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage: path required for %s backend", cfg.Storage.Backend)
		}
	default:
		return fmt.Errorf("storage: unknown backend %q", cfg.Storage.Backend)
	}
	if cfg.Auth.Enabled && cfg.Auth.HMACSecret == "" {
		return fmt.Errorf("auth: hmac secret required when auth is enabled")
	}
	if _, err := cfg.ClockSkew(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if cfg.RateLimit.RequestsPerMinute < 0 || cfg.RateLimit.Burst < 0 {
		return fmt.Errorf("rate_limit: values must not be negative")
	}
	if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

// SaleParams converts the sale section into engine configuration.
func (cfg *Config) SaleParams() (sale.Config, error) {
	s := cfg.Sale
	if s.Controller == "" {
		return sale.Config{}, fmt.Errorf("controller required")
	}
	controller, err := crypto.ParseIdentity(s.Controller)
	if err != nil {
		return sale.Config{}, fmt.Errorf("controller: %w", err)
	}
	out := sale.Config{TokenDecimals: s.TokenDecimals, Controller: controller}
	for _, field := range []struct {
		name     string
		value    string
		decimals uint8
		dst      *amount.Amount
	}{
		{"token_price", s.TokenPrice, s.PaymentDecimals, &out.TokenPrice},
		{"tokens_for_sale", s.TokensForSale, s.TokenDecimals, &out.TokensForSale},
		{"soft_cap", s.SoftCap, s.PaymentDecimals, &out.SoftCap},
		{"hard_cap", s.HardCap, s.PaymentDecimals, &out.HardCap},
		{"min_contribution", s.MinContribution, s.PaymentDecimals, &out.MinContribution},
		{"max_contribution", s.MaxContribution, s.PaymentDecimals, &out.MaxContribution},
	} {
		parsed, err := amount.Parse(field.value, field.decimals)
		if err != nil {
			return sale.Config{}, fmt.Errorf("%s: %w", field.name, err)
		}
		*field.dst = parsed
	}
	duration, err := parseSeconds(s.Duration, false)
	if err != nil {
		return sale.Config{}, fmt.Errorf("duration: %w", err)
	}
	out.SaleDuration = duration
	if err := out.Validate(); err != nil {
		return sale.Config{}, err
	}
	return out, nil
}

// VestingParams converts the vesting section into engine configuration.
func (cfg *Config) VestingParams() (vesting.Config, error) {
	if cfg.Vesting.Controller == "" {
		return vesting.Config{}, fmt.Errorf("controller required")
	}
	controller, err := crypto.ParseIdentity(cfg.Vesting.Controller)
	if err != nil {
		return vesting.Config{}, fmt.Errorf("controller: %w", err)
	}
	out := vesting.Config{Controller: controller}
	if cfg.Vesting.TokenDecimals != nil {
		out.TokenDecimals = *cfg.Vesting.TokenDecimals
	} else {
		out.TokenDecimals = cfg.Sale.TokenDecimals
	}
	if err := out.Validate(); err != nil {
		return vesting.Config{}, err
	}
	return out, nil
}

// Grant is a parsed vesting grant ready for vesting.Engine.CreateSchedule.
type Grant struct {
	Beneficiary [20]byte
	Amount      amount.Amount
	Start       int64
	Cliff       int64
	Duration    int64
	Revocable   bool
}

// VestingGrants parses the configured grants. Beneficiaries must be unique.
func (cfg *Config) VestingGrants() ([]Grant, error) {
	decimals := cfg.Sale.TokenDecimals
	if cfg.Vesting.TokenDecimals != nil {
		decimals = *cfg.Vesting.TokenDecimals
	}
	seen := make(map[[20]byte]struct{}, len(cfg.Vesting.Grants))
	grants := make([]Grant, 0, len(cfg.Vesting.Grants))
	for i, g := range cfg.Vesting.Grants {
		beneficiary, err := crypto.ParseIdentity(g.Beneficiary)
		if err != nil {
			return nil, fmt.Errorf("grants[%d].beneficiary: %w", i, err)
		}
		if _, dup := seen[beneficiary]; dup {
			return nil, fmt.Errorf("grants[%d]: duplicate beneficiary %s", i, g.Beneficiary)
		}
		seen[beneficiary] = struct{}{}
		total, err := amount.Parse(g.Amount, decimals)
		if err != nil {
			return nil, fmt.Errorf("grants[%d].amount: %w", i, err)
		}
		if total.IsZero() {
			return nil, fmt.Errorf("grants[%d].amount: must be positive", i)
		}
		cliff := int64(0)
		if g.Cliff != "" {
			if cliff, err = parseSeconds(g.Cliff, true); err != nil {
				return nil, fmt.Errorf("grants[%d].cliff: %w", i, err)
			}
		}
		duration, err := parseSeconds(g.Duration, false)
		if err != nil {
			return nil, fmt.Errorf("grants[%d].duration: %w", i, err)
		}
		if cliff > duration {
			return nil, fmt.Errorf("grants[%d]: cliff exceeds duration", i)
		}
		if g.Start < 0 {
			return nil, fmt.Errorf("grants[%d].start: must not be negative", i)
		}
		grants = append(grants, Grant{
			Beneficiary: beneficiary,
			Amount:      total,
			Start:       g.Start,
			Cliff:       cliff,
			Duration:    duration,
			Revocable:   g.Revocable,
		})
	}
	return grants, nil
}

// ClockSkew parses the auth leeway. Empty means the authenticator default.
func (cfg *Config) ClockSkew() (time.Duration, error) {
	if cfg.Auth.ClockSkew == "" {
		return 0, nil
	}
	skew, err := time.ParseDuration(cfg.Auth.ClockSkew)
	if err != nil {
		return 0, fmt.Errorf("clock_skew: %w", err)
	}
	if skew < 0 {
		return 0, fmt.Errorf("clock_skew: must not be negative")
	}
	return skew, nil
}

// LogOptions maps the logging section onto the logger options.
func (cfg *Config) LogOptions() logging.Options {
	return logging.Options{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	}
}

// parseSeconds accepts Go duration strings ("168h", "30m") or a bare number
// of seconds and returns whole seconds.
func parseSeconds(value string, allowZero bool) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("value required")
	}
	seconds, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		d, durErr := time.ParseDuration(value)
		if durErr != nil {
			return 0, durErr
		}
		seconds = int64(d / time.Second)
	}
	switch {
	case seconds < 0:
		return 0, fmt.Errorf("must not be negative")
	case seconds == 0 && !allowZero:
		return 0, fmt.Errorf("must be at least one second")
	}
	return seconds, nil
}
