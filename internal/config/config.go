// Package config loads and validates the YAML configuration shared by the
// indicators CLI, the API server and the chart viewer.
package config

import (
	"encoding/json"
	"os"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/rxtech-lab/argo-indicators/internal/types"
	"github.com/rxtech-lab/argo-indicators/internal/version"
	"github.com/rxtech-lab/argo-indicators/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	OutputFormatJSON    = "json"
	OutputFormatParquet = "parquet"
)

// Config is the root of the configuration file.
type Config struct {
	Version          string                 `yaml:"version" json:"version" jsonschema:"title=Version,description=Version of argo-indicators the file was written for,required" validate:"required"`
	Indicators       IndicatorConfig        `yaml:"indicators" json:"indicators" jsonschema:"title=Indicators,description=Indicator periods and oscillator mode"`
	ValidationPolicy types.ValidationPolicy `yaml:"validation_policy" json:"validation_policy" jsonschema:"title=Validation Policy,description=What to do with malformed bars at ingestion" validate:"required,oneof=reject skip accept"`
	Output           OutputConfig           `yaml:"output" json:"output" jsonschema:"title=Output,description=Export settings"`
	DataSource       DataSourceConfig       `yaml:"datasource" json:"datasource" jsonschema:"title=Data Source,description=DuckDB settings"`
	Server           ServerConfig           `yaml:"server" json:"server" jsonschema:"title=Server,description=HTTP API settings"`
}

// IndicatorConfig holds the engine parameters.
type IndicatorConfig struct {
	OscillatorMode      types.OscillatorMode `yaml:"oscillator_mode" json:"oscillator_mode" jsonschema:"title=Oscillator Mode,description=textbook computes MACD/RSI/KDJ; placeholder emits the demo waves" validate:"required,oneof=textbook placeholder"`
	BollingerPeriod     int                  `yaml:"bollinger_period" json:"bollinger_period" jsonschema:"title=Bollinger Period,minimum=2" validate:"gte=2"`
	BollingerMultiplier float64              `yaml:"bollinger_multiplier" json:"bollinger_multiplier" jsonschema:"title=Bollinger Multiplier,description=Standard deviations between the mid and outer bands" validate:"gt=0"`
	MACDFast            int                  `yaml:"macd_fast" json:"macd_fast" jsonschema:"title=MACD Fast Period,minimum=1" validate:"gte=1"`
	MACDSlow            int                  `yaml:"macd_slow" json:"macd_slow" jsonschema:"title=MACD Slow Period,description=Must be greater than the fast period" validate:"gtfield=MACDFast"`
	MACDSignal          int                  `yaml:"macd_signal" json:"macd_signal" jsonschema:"title=MACD Signal Period,minimum=1" validate:"gte=1"`
	RSIPeriod           int                  `yaml:"rsi_period" json:"rsi_period" jsonschema:"title=RSI Period,minimum=1" validate:"gte=1"`
	KDJPeriod           int                  `yaml:"kdj_period" json:"kdj_period" jsonschema:"title=KDJ Period,minimum=1" validate:"gte=1"`
	KDJKSmoothing       int                  `yaml:"kdj_k_smoothing" json:"kdj_k_smoothing" jsonschema:"title=KDJ K Smoothing,minimum=1" validate:"gte=1"`
	KDJDSmoothing       int                  `yaml:"kdj_d_smoothing" json:"kdj_d_smoothing" jsonschema:"title=KDJ D Smoothing,minimum=1" validate:"gte=1"`
}

// OutputConfig controls exported series.
type OutputConfig struct {
	Format    string `yaml:"format" json:"format" jsonschema:"title=Format,enum=json,enum=parquet" validate:"required,oneof=json parquet"`
	Precision int    `yaml:"precision" json:"precision" jsonschema:"title=Precision,description=Decimal places kept in exported values,minimum=0,maximum=12" validate:"gte=0,lte=12"`
}

// DataSourceConfig tunes the embedded DuckDB instance.
type DataSourceConfig struct {
	Threads     int    `yaml:"threads" json:"threads" jsonschema:"title=Threads,minimum=1" validate:"gte=1"`
	MemoryLimit string `yaml:"memory_limit" json:"memory_limit" jsonschema:"title=Memory Limit,description=DuckDB memory_limit setting (e.g. 1GB)" validate:"required"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Address string `yaml:"address" json:"address" jsonschema:"title=Address,description=Listen address of the API server" validate:"required"`
}

// DefaultIndicatorConfig returns the standard indicator parameters:
// Bollinger(20, 2), MACD(12, 26, 9), RSI(14) and KDJ(9, 3, 3).
func DefaultIndicatorConfig() IndicatorConfig {
	return IndicatorConfig{
		OscillatorMode:      types.OscillatorModeTextbook,
		BollingerPeriod:     20,
		BollingerMultiplier: 2,
		MACDFast:            12,
		MACDSlow:            26,
		MACDSignal:          9,
		RSIPeriod:           14,
		KDJPeriod:           9,
		KDJKSmoothing:       3,
		KDJDSmoothing:       3,
	}
}

// Default returns a Config with default values.
func Default() Config {
	return Config{
		Version:          version.GetVersion(),
		Indicators:       DefaultIndicatorConfig(),
		ValidationPolicy: types.ValidationPolicyReject,
		Output: OutputConfig{
			Format:    OutputFormatJSON,
			Precision: 4,
		},
		DataSource: DataSourceConfig{
			Threads:     4,
			MemoryLimit: "1GB",
		},
		Server: ServerConfig{
			Address: ":8080",
		},
	}
}

// Load reads the YAML file at path on top of Default and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, errors.Wrapf(errors.ErrCodeConfigNotFound, err, "config file %s not found", path)
		}

		return Config{}, errors.Wrap(errors.ErrCodeConfigParse, "failed to read config file", err)
	}

	return Parse(data)
}

// Parse decodes YAML on top of Default and validates the result.
// Keys missing from data keep their default values.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeConfigParse, "failed to parse config", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks field constraints and version compatibility.
func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeConfigInvalid, "invalid config", err)
	}

	if err := version.CheckConfigCompatibility(version.GetVersion(), c.Version); err != nil {
		return errors.Wrap(errors.ErrCodeVersionMismatch, "incompatible config version", err)
	}

	return nil
}

// Validate checks the indicator parameters on their own.
func (c IndicatorConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeConfigInvalid, "invalid indicator config", err)
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
			switch t {
			case reflect.TypeOf(types.OscillatorMode("")):
				return &jsonschema.Schema{
					Type: "string",
					Enum: types.AllOscillatorModes,
				}
			case reflect.TypeOf(types.ValidationPolicy("")):
				return &jsonschema.Schema{
					Type: "string",
					Enum: types.AllValidationPolicies,
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)
	schema.Title = "indicators-config"
	schema.Description = "Configuration schema for argo-indicators"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema
}

// GenerateSchemaJSON generates a JSON schema string for the Config.
func (c *Config) GenerateSchemaJSON() (string, error) {
	schemaBytes, err := json.MarshalIndent(c.GenerateSchema(), "", "  ")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeSchemaGeneration, "failed to marshal schema", err)
	}

	return string(schemaBytes), nil
}
