package config

import (
	"time"

	"github.com/kbukum/structured/errors"
	"github.com/kbukum/structured/logger"
	"github.com/kbukum/structured/validation"
)

// EnvPrefix is the prefix of environment variables read by LoadConfig.
const EnvPrefix = "STRUCTURED"

// DefaultRetryPrompt introduces the error list sent back to the model after
// a failed attempt.
const DefaultRetryPrompt = "JSON generated incorrectly, fix following errors:"

// Config holds extractor settings.
type Config struct {
	// Mode is the output mode: tools, json, json_schema or md_json.
	Mode string `yaml:"mode" mapstructure:"mode" json:"mode" validate:"required,oneof=tools json json_schema md_json"`
	// MaxRetries is the maximum number of attempts, including the first.
	MaxRetries int `yaml:"max_retries" mapstructure:"max_retries" json:"max_retries" validate:"gte=1,lte=20"`
	// RetryPrompt prefixes the validation errors fed back on retry.
	RetryPrompt string `yaml:"retry_prompt" mapstructure:"retry_prompt" json:"retry_prompt"`
	// AccumulatePartials keeps every frame on the aggregate.
	AccumulatePartials bool `yaml:"accumulate_partials" mapstructure:"accumulate_partials" json:"accumulate_partials"`
	// ToolName overrides the tool name expected in tool modes.
	ToolName string `yaml:"tool_name" mapstructure:"tool_name" json:"tool_name"`

	Backoff   BackoffConfig   `yaml:"backoff" mapstructure:"backoff" json:"backoff"`
	Logging   logger.Config   `yaml:"logging" mapstructure:"logging" json:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry" json:"telemetry"`
}

// BackoffConfig controls the pause between attempts.
type BackoffConfig struct {
	Initial time.Duration `yaml:"initial" mapstructure:"initial" json:"initial" validate:"gte=0"`
	Max     time.Duration `yaml:"max" mapstructure:"max" json:"max" validate:"gte=0"`
	Factor  float64       `yaml:"factor" mapstructure:"factor" json:"factor" validate:"gte=1"`
	Jitter  bool          `yaml:"jitter" mapstructure:"jitter" json:"jitter"`
}

// TelemetryConfig controls OpenTelemetry export.
type TelemetryConfig struct {
	Enabled         bool          `yaml:"enabled" mapstructure:"enabled" json:"enabled"`
	ServiceName     string        `yaml:"service_name" mapstructure:"service_name" json:"service_name"`
	Endpoint        string        `yaml:"endpoint" mapstructure:"endpoint" json:"endpoint"`
	Insecure        bool          `yaml:"insecure" mapstructure:"insecure" json:"insecure"`
	MetricsInterval time.Duration `yaml:"metrics_interval" mapstructure:"metrics_interval" json:"metrics_interval"`
	SampleRate      float64       `yaml:"sample_rate" mapstructure:"sample_rate" json:"sample_rate" validate:"gte=0,lte=1"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Mode == "" {
		c.Mode = "tools"
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryPrompt == "" {
		c.RetryPrompt = DefaultRetryPrompt
	}
	if c.Backoff.Factor == 0 {
		c.Backoff.Factor = 2.0
	}
	if c.Backoff.Max == 0 && c.Backoff.Initial > 0 {
		c.Backoff.Max = 30 * c.Backoff.Initial
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "structured"
	}
	if c.Telemetry.MetricsInterval == 0 {
		c.Telemetry.MetricsInterval = 15 * time.Second
	}
	if c.Telemetry.SampleRate == 0 {
		c.Telemetry.SampleRate = 1.0
	}
	c.Logging.ApplyDefaults()
}

// Validate checks struct constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}
	v := validation.New().
		Custom(c.Backoff.Max == 0 || c.Backoff.Max >= c.Backoff.Initial, "backoff.max", "must be >= backoff.initial").
		Custom(!c.Telemetry.Enabled || c.Telemetry.Endpoint != "", "telemetry.endpoint", "is required when telemetry is enabled")
	if err := v.Error(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return errors.InvalidConfig("logging", err.Error()).WithCause(err)
	}
	return nil
}
