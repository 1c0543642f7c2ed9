package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all configuration for the plugin.
type Config struct {
	APIToken        string        `mapstructure:"api_token" validate:"omitempty,notblank"`
	BaseURL         string        `mapstructure:"base_url" validate:"required,url"`
	AutoRefresh     bool          `mapstructure:"auto_refresh"`
	RefreshInterval int           `mapstructure:"refresh_interval" validate:"min=60,max=86400"`
	DefaultModel    string        `mapstructure:"default_model" validate:"omitempty,notblank"`
	ModelFilter     []string      `mapstructure:"model_filter" validate:"dive,notblank"`
	Prefix          string        `mapstructure:"prefix" validate:"required,notblank"`
	MaxRetries      int           `mapstructure:"max_retries" validate:"min=0"`
	RetryDelay      time.Duration `mapstructure:"retry_delay" validate:"min=0"`
	RateLimit       float64       `mapstructure:"rate_limit" validate:"gt=0"`
	Timeout         time.Duration `mapstructure:"timeout" validate:"gt=0"`
	LogLevel        string        `mapstructure:"log_level" validate:"oneof=debug info warn error"`
}

// CacheTTL is the model cache lifetime derived from RefreshInterval.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.RefreshInterval) * time.Second
}

// HasAPIToken reports whether a usable token is configured.
func HasAPIToken(c *Config) bool {
	return c != nil && strings.TrimSpace(c.APIToken) != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("base_url", "https://llm.chutes.ai/v1")
	v.SetDefault("auto_refresh", true)
	v.SetDefault("refresh_interval", 3600)
	v.SetDefault("prefix", "chutes")
	v.SetDefault("max_retries", 3)
	v.SetDefault("retry_delay", "1s")
	v.SetDefault("rate_limit", 10)
	v.SetDefault("timeout", "30s")
	v.SetDefault("log_level", "info")
}

// Load reads configuration from file, environment, and defaults.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	// Defaults
	setDefaults(v)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/chutes-plugin")
	}

	// Environment variables
	v.SetEnvPrefix("CHUTES")
	v.AutomaticEnv()

	_ = v.BindEnv("api_token", "CHUTES_API_TOKEN")
	_ = v.BindEnv("base_url", "CHUTES_BASE_URL")
	_ = v.BindEnv("refresh_interval", "CHUTES_REFRESH_INTERVAL")
	_ = v.BindEnv("log_level", "CHUTES_LOG_LEVEL")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	return decode(v)
}

// hostKeys maps the host's camelCase plugin options to config keys.
var hostKeys = map[string]string{
	"apiToken":        "api_token",
	"autoRefresh":     "auto_refresh",
	"refreshInterval": "refresh_interval",
	"defaultModel":    "default_model",
	"modelFilter":     "model_filter",
	"baseURL":         "base_url",
	"prefix":          "prefix",
}

// FromHost builds a Config from the options block a host application
// passes to the plugin, applying defaults for anything missing.
func FromHost(opts map[string]any) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for hostKey, key := range hostKeys {
		if val, ok := opts[hostKey]; ok && val != nil {
			v.Set(key, val)
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// Validate checks value ranges and reports every violation.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating config: %w", err)
	}

	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		errs = append(errs, errors.New(describe(fe)))
	}
	return errors.Join(errs...)
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	unit := ""
	if field == "refresh_interval" {
		unit = " seconds"
	}

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "notblank":
		return field + " cannot be empty"
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", field, fe.Param(), unit)
	case "max":
		if field == "refresh_interval" {
			return fmt.Sprintf("%s must be at most %s seconds (24 hours)", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s%s", field, fe.Param(), unit)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "url":
		return field + " must be a valid URL"
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}
