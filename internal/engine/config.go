package engine

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"gopkg.in/yaml.v2"

	"barsim/internal/engine/commission"
	"barsim/pkg/errors"
)

// Config holds the per-run engine configuration.
type Config struct {
	// InitialCapital seeds the ledger's cash balance.
	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital" validate:"gt=0" jsonschema:"title=Initial Capital,description=Starting capital for the run,minimum=0"`
	// Commission selects the commission policy applied per fill.
	Commission commission.PolicyName `yaml:"commission" json:"commission" jsonschema:"title=Commission Policy,description=The commission policy applied to every fill"`
	// CommissionRate parameterizes the policy: flat fee per fill for
	// "flat", fee per share for "per_share". Ignored for "zero".
	CommissionRate float64 `yaml:"commission_rate" json:"commission_rate" validate:"gte=0" jsonschema:"title=Commission Rate,description=Flat fee per fill or fee per share depending on the policy,minimum=0"`
	// AllowMargin permits negative cash and short positions. Under the
	// default no-margin policy, orders that would breach either are
	// rejected instead of executed.
	AllowMargin bool `yaml:"allow_margin" json:"allow_margin" jsonschema:"title=Allow Margin,description=Permit negative cash balances and short positions"`
	// RiskFreeRate is the annual risk-free rate entering the Sharpe ratio.
	RiskFreeRate float64 `yaml:"risk_free_rate" json:"risk_free_rate" jsonschema:"title=Risk Free Rate,description=Annual risk-free rate used by the Sharpe ratio"`
	// StartTime and EndTime optionally bound the bar window the harness
	// feeds to the engine.
	StartTime optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start of the simulated period"`
	EndTime   optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end of the simulated period"`
}

// UnmarshalYAML implements custom unmarshaling for Config.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type config struct {
		InitialCapital float64               `yaml:"initial_capital"`
		Commission     commission.PolicyName `yaml:"commission"`
		CommissionRate float64               `yaml:"commission_rate"`
		AllowMargin    bool                  `yaml:"allow_margin"`
		RiskFreeRate   float64               `yaml:"risk_free_rate"`
		StartTime      *time.Time            `yaml:"start_time"`
		EndTime        *time.Time            `yaml:"end_time"`
	}

	var cfg config
	if err := unmarshal(&cfg); err != nil {
		return err
	}

	c.InitialCapital = cfg.InitialCapital
	c.Commission = cfg.Commission
	c.CommissionRate = cfg.CommissionRate
	c.AllowMargin = cfg.AllowMargin
	c.RiskFreeRate = cfg.RiskFreeRate

	if cfg.StartTime != nil {
		c.StartTime = optional.Some(*cfg.StartTime)
	}

	if cfg.EndTime != nil {
		c.EndTime = optional.Some(*cfg.EndTime)
	}

	return nil
}

// ParseConfig parses and validates a YAML config string.
func ParseConfig(content string) (Config, error) {
	config := DefaultConfig()

	if err := yaml.Unmarshal([]byte(content), &config); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// Validate checks the config invariants.
func (c *Config) Validate() error {
	validate := validator.New()

	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	return nil
}

// GenerateSchema generates a JSON schema for the Config.
func (c *Config) GenerateSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			if strings.Contains(t.String(), "commission.PolicyName") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: commission.AllPolicies,
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)
	schema.Title = "barsim-engine-config"
	schema.Description = "Configuration schema for the backtest engine"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema
}

// GenerateSchemaJSON generates a JSON schema string for the Config.
func (c *Config) GenerateSchemaJSON() (string, error) {
	schemaBytes, err := json.MarshalIndent(c.GenerateSchema(), "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

// DefaultConfig returns a Config with the engine defaults: zero commission,
// no margin, zero risk-free rate.
func DefaultConfig() Config {
	return Config{
		InitialCapital: 100_000,
		Commission:     commission.PolicyZero,
		CommissionRate: 0,
		AllowMargin:    false,
		RiskFreeRate:   0,
		StartTime:      optional.None[time.Time](),
		EndTime:        optional.None[time.Time](),
	}
}
