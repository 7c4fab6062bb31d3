package engine

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/quantfold/quantfold/internal/backtest/commission"
	"github.com/quantfold/quantfold/internal/backtest/slippage"
	"github.com/quantfold/quantfold/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Config controls one simulation run. Exactly one slippage and one
// commission model are active per run.
type Config struct {
	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital" jsonschema:"title=Initial Capital,description=Starting capital for the backtest in USD,minimum=0"`

	CommissionModel commission.ModelType `yaml:"commission_model" json:"commission_model" jsonschema:"title=Commission Model"`
	CommissionParam float64              `yaml:"commission_param" json:"commission_param" jsonschema:"title=Commission Parameter,minimum=0"`

	SlippageModel slippage.ModelType `yaml:"slippage_model" json:"slippage_model" jsonschema:"title=Slippage Model"`
	SlippageParam float64            `yaml:"slippage_param" json:"slippage_param" jsonschema:"title=Slippage Parameter,minimum=0"`

	TradingPeriodsPerYear int `yaml:"trading_periods_per_year" json:"trading_periods_per_year" jsonschema:"title=Trading Periods Per Year,minimum=1"`

	StartTime optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time"`
	EndTime   optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time"`
}

// DefaultConfig returns a Config with the documented defaults.
func DefaultConfig() Config {
	return Config{
		InitialCapital:        100000,
		CommissionModel:       commission.ModelPercent,
		CommissionParam:       0,
		SlippageModel:         slippage.ModelFixedBps,
		SlippageParam:         0,
		TradingPeriodsPerYear: 252,
		StartTime:             optional.None[time.Time](),
		EndTime:               optional.None[time.Time](),
	}
}

// UnmarshalYAML implements custom unmarshaling so optional times can be
// expressed as plain YAML timestamps.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type plainConfig struct {
		InitialCapital        float64              `yaml:"initial_capital"`
		CommissionModel       commission.ModelType `yaml:"commission_model"`
		CommissionParam       float64              `yaml:"commission_param"`
		SlippageModel         slippage.ModelType   `yaml:"slippage_model"`
		SlippageParam         float64              `yaml:"slippage_param"`
		TradingPeriodsPerYear int                  `yaml:"trading_periods_per_year"`
		StartTime             *time.Time           `yaml:"start_time"`
		EndTime               *time.Time           `yaml:"end_time"`
	}

	plain := plainConfig{
		InitialCapital:        100000,
		CommissionModel:       commission.ModelPercent,
		SlippageModel:         slippage.ModelFixedBps,
		TradingPeriodsPerYear: 252,
	}
	if err := unmarshal(&plain); err != nil {
		return err
	}

	c.InitialCapital = plain.InitialCapital
	c.CommissionModel = plain.CommissionModel
	c.CommissionParam = plain.CommissionParam
	c.SlippageModel = plain.SlippageModel
	c.SlippageParam = plain.SlippageParam
	c.TradingPeriodsPerYear = plain.TradingPeriodsPerYear

	if plain.StartTime != nil {
		c.StartTime = optional.Some(*plain.StartTime)
	}

	if plain.EndTime != nil {
		c.EndTime = optional.Some(*plain.EndTime)
	}

	return nil
}

// ParseConfig unmarshals and validates a YAML config document.
func ParseConfig(content []byte) (Config, error) {
	config := DefaultConfig()
	if err := yaml.Unmarshal(content, &config); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// Validate rejects configurations before any simulation work begins.
func (c *Config) Validate() error {
	if c.InitialCapital <= 0 {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"initial_capital must be positive, got %f", c.InitialCapital)
	}

	if c.CommissionParam < 0 {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"commission_param must not be negative, got %f", c.CommissionParam)
	}

	if c.SlippageParam < 0 {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"slippage_param must not be negative, got %f", c.SlippageParam)
	}

	if c.TradingPeriodsPerYear <= 0 {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"trading_periods_per_year must be positive, got %d", c.TradingPeriodsPerYear)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && !c.StartTime.Unwrap().Before(c.EndTime.Unwrap()) {
		return errors.New(errors.ErrCodeInvalidConfiguration, "start_time must be before end_time")
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

			if strings.Contains(t.String(), "commission.ModelType") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: commission.AllModels,
				}
			}

			if strings.Contains(t.String(), "slippage.ModelType") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: slippage.AllModels,
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)
	schema.Title = "backtest-config"
	schema.Description = "Configuration schema for a backtest run"
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
