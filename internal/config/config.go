package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram" mapstructure:"telegram"`
	Numverify NumverifyConfig `yaml:"numverify" mapstructure:"numverify"`
	IPAPI     IPAPIConfig     `yaml:"ipapi" mapstructure:"ipapi"`
	CallerID  CallerIDConfig  `yaml:"callerid" mapstructure:"callerid"`
	Lookup    LookupConfig    `yaml:"lookup" mapstructure:"lookup"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// TelegramConfig holds the Bot API token.
type TelegramConfig struct {
	Token string `yaml:"token" mapstructure:"token"`
}

// NumverifyConfig holds the phone validation API key and endpoints.
type NumverifyConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	LegacyURL string `yaml:"legacy_url" mapstructure:"legacy_url"`
}

// IPAPIConfig configures IP geolocation.
type IPAPIConfig struct {
	BaseURL           string `yaml:"base_url" mapstructure:"base_url"`
	RequestsPerMinute int    `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// CallerIDConfig configures the caller-name search. An empty InstallationID
// disables it.
type CallerIDConfig struct {
	InstallationID     string  `yaml:"installation_id" mapstructure:"installation_id"`
	BaseURL            string  `yaml:"base_url" mapstructure:"base_url"`
	DefaultCountryCode string  `yaml:"default_country_code" mapstructure:"default_country_code"`
	SpamThreshold      float64 `yaml:"spam_threshold" mapstructure:"spam_threshold"`
	Workers            int     `yaml:"workers" mapstructure:"workers"`
}

// LookupConfig bounds every outbound lookup.
type LookupConfig struct {
	TimeoutSecs      int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	BreakerFailures  int `yaml:"breaker_failures" mapstructure:"breaker_failures"`
	BreakerResetSecs int `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// ServerConfig configures the liveness server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, config file and environment.
func Load() (*Config, error) {
	// .env is optional; variables already set win.
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LOOKUP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bare names used by hosting platforms.
	bindings := map[string]string{
		"telegram.token":           "TELEGRAM_TOKEN",
		"numverify.key":            "NUMVERIFY_KEY",
		"server.port":              "PORT",
		"callerid.installation_id": "TRUECALLER_INSTALLATION_ID",
	}
	for key, env := range bindings {
		prefixed := "LOOKUP_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, eris.Wrapf(err, "config: bind %s", env)
		}
	}

	// Defaults
	v.SetDefault("numverify.base_url", "https://api.apilayer.com/number_verification")
	v.SetDefault("numverify.legacy_url", "http://apilayer.net/api")
	v.SetDefault("ipapi.base_url", "http://ip-api.com")
	v.SetDefault("ipapi.requests_per_minute", 45)
	v.SetDefault("callerid.base_url", "https://search5-noneu.truecaller.com")
	v.SetDefault("callerid.default_country_code", "US")
	v.SetDefault("callerid.spam_threshold", 10)
	v.SetDefault("callerid.workers", 4)
	v.SetDefault("lookup.timeout_secs", 10)
	v.SetDefault("lookup.breaker_failures", 5)
	v.SetDefault("lookup.breaker_reset_secs", 30)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a mode needs and reports every problem at
// once. Modes: "serve", "lookup".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Telegram.Token == "" {
			errs = append(errs, "telegram.token is required")
		}
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server.port must be between 1 and 65535 (got %d)", c.Server.Port))
		}
	case "lookup":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Lookup.TimeoutSecs <= 0 {
		errs = append(errs, "lookup.timeout_secs must be > 0")
	}
	if c.Lookup.BreakerFailures <= 0 {
		errs = append(errs, "lookup.breaker_failures must be > 0")
	}
	if c.Lookup.BreakerResetSecs <= 0 {
		errs = append(errs, "lookup.breaker_reset_secs must be > 0")
	}
	if c.CallerID.Workers <= 0 {
		errs = append(errs, "callerid.workers must be > 0")
	}
	if c.CallerID.SpamThreshold < 0 {
		errs = append(errs, "callerid.spam_threshold must be >= 0")
	}
	if c.IPAPI.RequestsPerMinute < 0 {
		errs = append(errs, "ipapi.requests_per_minute must be >= 0")
	}
	if len(c.CallerID.DefaultCountryCode) != 2 {
		errs = append(errs, "callerid.default_country_code must be a two-letter region code")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: invalid for %s: %s", mode, strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
