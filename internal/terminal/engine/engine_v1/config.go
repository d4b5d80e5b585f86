package engine_v1

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/nexuslab/nexus-terminal/pkg/errors"
)

// Default configuration values.
const (
	DefaultTickInterval     = time.Second
	DefaultAlertBand        = 0.005
	DefaultDecimalPrecision = 2
	DefaultPriceHistorySize = 120
	DefaultValueHistorySize = 360

	// MinTickInterval is the fastest the evaluation loop may be driven.
	MinTickInterval = 100 * time.Millisecond
)

// Duration wraps time.Duration so YAML configs can say "1s" or "500ms".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid duration %q", raw)
	}

	*d = Duration(parsed)

	return nil
}

// TerminalEngineV1Config configures the v1 terminal engine.
type TerminalEngineV1Config struct {
	// InitialBalance is the session starting cash.
	InitialBalance float64 `yaml:"initial_balance" validate:"required,gt=0"`
	// TickInterval is the evaluation cadence for the external driver.
	TickInterval Duration `yaml:"tick_interval"`
	// AlertBand is the relative distance from the trigger price within which
	// an order is flagged ALERT (0.005 = 0.5%).
	AlertBand float64 `yaml:"alert_band" validate:"gte=0,lt=1"`
	// RejectionProbability is the chance a triggered order fails its
	// simulated broker roll.
	RejectionProbability float64 `yaml:"rejection_probability" validate:"gte=0,lt=1"`
	// DecimalPrecision is the number of decimal places share quantities keep.
	DecimalPrecision int `yaml:"decimal_precision" validate:"gte=0,lte=8"`
	// PriceHistorySize bounds each instrument's rolling price history.
	PriceHistorySize int `yaml:"price_history_size" validate:"gte=0"`
	// ValueHistorySize bounds the portfolio value series.
	ValueHistorySize int `yaml:"value_history_size" validate:"gte=0"`
}

// rawEngineConfig mirrors TerminalEngineV1Config with pointer fields for the
// knobs where an explicit zero is meaningful, so "alert_band: 0" disables the
// band instead of falling back to the default.
type rawEngineConfig struct {
	InitialBalance       float64  `yaml:"initial_balance"`
	TickInterval         Duration `yaml:"tick_interval"`
	AlertBand            *float64 `yaml:"alert_band"`
	RejectionProbability float64  `yaml:"rejection_probability"`
	DecimalPrecision     *int     `yaml:"decimal_precision"`
	PriceHistorySize     *int     `yaml:"price_history_size"`
	ValueHistorySize     *int     `yaml:"value_history_size"`
}

// EmptyConfig returns a config with every default applied.
func EmptyConfig() TerminalEngineV1Config {
	return TerminalEngineV1Config{
		TickInterval:     Duration(DefaultTickInterval),
		AlertBand:        DefaultAlertBand,
		DecimalPrecision: DefaultDecimalPrecision,
		PriceHistorySize: DefaultPriceHistorySize,
		ValueHistorySize: DefaultValueHistorySize,
	}
}

// ParseConfig parses the YAML config, applies defaults for absent keys, and
// validates the result. Keys present in the YAML are honored as written,
// including explicit zeros.
func ParseConfig(config string) (TerminalEngineV1Config, error) {
	var raw rawEngineConfig
	if err := yaml.Unmarshal([]byte(config), &raw); err != nil {
		return TerminalEngineV1Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse engine config", err)
	}

	cfg := EmptyConfig()
	cfg.InitialBalance = raw.InitialBalance
	cfg.RejectionProbability = raw.RejectionProbability

	if raw.TickInterval != 0 {
		cfg.TickInterval = raw.TickInterval
	}

	if raw.AlertBand != nil {
		cfg.AlertBand = *raw.AlertBand
	}

	if raw.DecimalPrecision != nil {
		cfg.DecimalPrecision = *raw.DecimalPrecision
	}

	if raw.PriceHistorySize != nil {
		cfg.PriceHistorySize = *raw.PriceHistorySize
	}

	if raw.ValueHistorySize != nil {
		cfg.ValueHistorySize = *raw.ValueHistorySize
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks the config invariants.
func (c *TerminalEngineV1Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid engine config", err)
	}

	if time.Duration(c.TickInterval) < MinTickInterval {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"tick interval %s is below the minimum %s", time.Duration(c.TickInterval), MinTickInterval)
	}

	return nil
}
