package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/opd-ai/denoisefx/provider"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. DENOISEFX_WORKERS.
const EnvPrefix = "DENOISEFX"

// Validation bounds for the plugin configuration.
const (
	// MinWorkers of 0 selects GOMAXPROCS.
	MinWorkers = 0
	// MaxWorkers caps the switch task pool.
	MaxWorkers = 64
)

// PluginConfig is the process-wide configuration read when the plugin loads.
type PluginConfig struct {
	// Workers is the size of the background task pool; 0 means GOMAXPROCS
	Workers int `mapstructure:"workers" validate:"min=0,max=64"`

	LogLevel  string `mapstructure:"log_level" validate:"oneof=trace debug info warn warning error fatal panic"`
	LogFormat string `mapstructure:"log_format" validate:"oneof=text json"`

	// DisabledProviders lists provider keys that are never probed
	DisabledProviders []string `mapstructure:"disabled_providers" validate:"dive,provider"`
	// Priority overrides the order used to resolve Automatic
	Priority []string `mapstructure:"priority" validate:"dive,provider"`

	// Provider and Strength are the defaults for new instances
	Provider string `mapstructure:"provider" validate:"provider"`
	Strength string `mapstructure:"strength" validate:"strength"`
}

// DefaultPluginConfig returns the configuration used when nothing is set.
func DefaultPluginConfig() *PluginConfig {
	return &PluginConfig{
		Workers:   MinWorkers,
		LogLevel:  "info",
		LogFormat: "text",
		Provider:  provider.Automatic.Key(),
		Strength:  strings.ToLower(StrengthStrong.String()),
	}
}

// Validate checks every field.
func (c *PluginConfig) Validate() error {
	return validateStruct(c)
}

// LoadOption customizes LoadPluginConfig.
type LoadOption func(*loadOptions)

type loadOptions struct {
	configFile string
	envFile    string
}

// WithConfigFile reads a YAML (or any viper-supported) file as the base layer.
func WithConfigFile(path string) LoadOption {
	return func(o *loadOptions) { o.configFile = path }
}

// WithEnvFile loads a .env file into the environment before overrides are read.
// Variables already set in the environment win.
func WithEnvFile(path string) LoadOption {
	return func(o *loadOptions) { o.envFile = path }
}

// LoadPluginConfig layers defaults, the optional config file and DENOISEFX_*
// environment variables. Invalid values fall back to their defaults with a
// warning; only an unreadable config file is an error.
func LoadPluginConfig(opts ...LoadOption) (*PluginConfig, error) {
	var lo loadOptions
	for _, opt := range opts {
		opt(&lo)
	}

	if lo.envFile != "" {
		if err := godotenv.Load(lo.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			logrus.WithFields(logrus.Fields{
				"function": "LoadPluginConfig",
				"env_file": lo.envFile,
				"error":    err.Error(),
			}).Warn("Failed to load env file, continuing without it")
		}
	}

	def := DefaultPluginConfig()
	v := viper.New()
	v.SetDefault("workers", def.Workers)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_format", def.LogFormat)
	v.SetDefault("disabled_providers", []string{})
	v.SetDefault("priority", []string{})
	v.SetDefault("provider", def.Provider)
	v.SetDefault("strength", def.Strength)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if lo.configFile != "" {
		v.SetConfigFile(lo.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", lo.configFile, err)
		}
	}

	sanitizeWorkers(v, def)

	cfg := &PluginConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	cfg.normalize()
	applyFallbacks(cfg, def)

	logrus.WithFields(logrus.Fields{
		"function":           "LoadPluginConfig",
		"config_file":        lo.configFile,
		"workers":            cfg.Workers,
		"log_level":          cfg.LogLevel,
		"log_format":         cfg.LogFormat,
		"disabled_providers": cfg.DisabledProviders,
		"priority":           cfg.Priority,
		"provider":           cfg.Provider,
		"strength":           cfg.Strength,
	}).Debug("Plugin configuration loaded")

	return cfg, nil
}

// sanitizeWorkers replaces a non-numeric worker count before it reaches the
// decoder, which would otherwise reject the whole configuration.
func sanitizeWorkers(v *viper.Viper, def *PluginConfig) {
	raw, ok := v.Get("workers").(string)
	if !ok {
		return
	}
	if _, err := strconv.Atoi(strings.TrimSpace(raw)); err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "sanitizeWorkers",
			"env_var":     EnvPrefix + "_WORKERS",
			"value":       raw,
			"error":       err.Error(),
			"using_value": def.Workers,
		}).Warn("Failed to parse worker count, using default")
		v.Set("workers", def.Workers)
	}
}

func (c *PluginConfig) normalize() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.DisabledProviders = trimAll(c.DisabledProviders)
	c.Priority = trimAll(c.Priority)
}

func trimAll(items []string) []string {
	var out []string
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// applyFallbacks resets every field that fails validation to its default and
// logs a warning naming the environment variable that controls it.
func applyFallbacks(cfg, def *PluginConfig) {
	err := getValidator().Struct(cfg)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return
	}

	reset := make(map[string]bool)
	for _, e := range verrs {
		field := e.StructField()
		// Slice element errors report "Priority[1]"
		if i := strings.IndexByte(field, '['); i >= 0 {
			field = field[:i]
		}
		if reset[field] {
			continue
		}
		reset[field] = true

		var using any
		switch field {
		case "Workers":
			cfg.Workers = def.Workers
			using = cfg.Workers
		case "LogLevel":
			cfg.LogLevel = def.LogLevel
			using = cfg.LogLevel
		case "LogFormat":
			cfg.LogFormat = def.LogFormat
			using = cfg.LogFormat
		case "DisabledProviders":
			cfg.DisabledProviders = dropUnknownKinds(cfg.DisabledProviders)
			using = cfg.DisabledProviders
		case "Priority":
			cfg.Priority = dropUnknownKinds(cfg.Priority)
			using = cfg.Priority
		case "Provider":
			cfg.Provider = def.Provider
			using = cfg.Provider
		case "Strength":
			cfg.Strength = def.Strength
			using = cfg.Strength
		default:
			continue
		}

		logrus.WithFields(logrus.Fields{
			"function":    "applyFallbacks",
			"env_var":     envVarFor(e.StructNamespace()),
			"value":       e.Value(),
			"rule":        e.Tag(),
			"using_value": using,
		}).Warn("Invalid configuration value, using default")
	}
}

func dropUnknownKinds(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, err := provider.ParseKind(n); err == nil {
			out = append(out, n)
		}
	}
	return out
}

var envNames = map[string]string{
	"Workers":           "workers",
	"LogLevel":          "log_level",
	"LogFormat":         "log_format",
	"DisabledProviders": "disabled_providers",
	"Priority":          "priority",
	"Provider":          "provider",
	"Strength":          "strength",
}

func envVarFor(namespace string) string {
	field := namespace[strings.LastIndexByte(namespace, '.')+1:]
	if i := strings.IndexByte(field, '['); i >= 0 {
		field = field[:i]
	}
	return EnvPrefix + "_" + strings.ToUpper(envNames[field])
}

// EffectiveWorkers returns Workers, substituting GOMAXPROCS for 0.
func (c *PluginConfig) EffectiveWorkers() int {
	if c.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return c.Workers
}

// DisabledKinds parses DisabledProviders.
func (c *PluginConfig) DisabledKinds() ([]provider.Kind, error) {
	return parseKinds(c.DisabledProviders)
}

// PriorityKinds parses Priority.
func (c *PluginConfig) PriorityKinds() ([]provider.Kind, error) {
	return parseKinds(c.Priority)
}

func parseKinds(names []string) ([]provider.Kind, error) {
	kinds := make([]provider.Kind, 0, len(names))
	for _, n := range names {
		k, err := provider.ParseKind(n)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// DefaultSettings returns the instance defaults described by Provider and Strength.
func (c *PluginConfig) DefaultSettings() (Settings, error) {
	return FromMap(map[string]any{
		KeyProvider: c.Provider,
		KeyStrength: c.Strength,
	})
}
