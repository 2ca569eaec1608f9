package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "cdrcgi/internal/shared/config"
)

type Config struct {
	Tier     sharedConfig.Tier           `mapstructure:"tier"`
	Server   sharedConfig.ServerConfig   `mapstructure:"server"`
	Database sharedConfig.DatabaseConfig `mapstructure:"database"`
	Logger   sharedConfig.LoggerConfig   `mapstructure:"logger"`
	Upstream sharedConfig.UpstreamConfig `mapstructure:"upstream"`
	Paths    sharedConfig.PathsConfig    `mapstructure:"paths"`
	Auth     sharedConfig.AuthConfig     `mapstructure:"auth"`
	Email    sharedConfig.EmailConfig    `mapstructure:"email"`
	Redis    sharedConfig.RedisConfig    `mapstructure:"redis"`
	Search   sharedConfig.SearchConfig   `mapstructure:"search"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load resolves configuration for a tier from file and environment
// variables. Environment variables use the CDR prefix, so
// CDR_DATABASE_HOST overrides database.host.
func Load(tier string) (*Config, error) {
	// Each load starts clean; explicit overrides from a previous load
	// must not leak into this one.
	viper.Reset()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../configs")
	viper.AddConfigPath("../../configs")

	viper.SetEnvPrefix("CDR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if tier != "" {
		viper.Set("tier", tier)
	}

	if err := viper.ReadInConfig(); err != nil {
		// A missing file is fine; defaults plus env vars carry the
		// development tier.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateTier(config.Tier); err != nil {
		return nil, err
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration.
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

// Set installs a configuration directly; test harnesses use this to
// avoid touching the global viper state.
func Set(cfg *Config) {
	appConfigMu.Lock()
	appConfig = cfg
	appConfigMu.Unlock()
}

func validateTier(tier sharedConfig.Tier) error {
	switch tier {
	case sharedConfig.TierDevelopment, sharedConfig.TierStaging, sharedConfig.TierProduction:
		return nil
	}
	return fmt.Errorf("unknown tier %q", tier)
}

func setDefaults() {
	viper.SetDefault("tier", "development")

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("server.base_url", "https://cdr-dev.cancer.gov")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)
	viper.SetDefault("database.database", "cdr")
	viper.SetDefault("database.cdr.username", "cdr")
	viper.SetDefault("database.cdr.password", "")
	viper.SetDefault("database.guest.username", "cdrguest")
	viper.SetDefault("database.guest.password", "")
	viper.SetDefault("database.timeout_seconds", 3)
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.max_open_conns", 100)
	viper.SetDefault("database.conn_max_lifetime", 60)

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.directory", "")

	viper.SetDefault("upstream.host", "localhost")
	viper.SetDefault("upstream.port", 2019)
	viper.SetDefault("upstream.timeout_seconds", 30)

	viper.SetDefault("paths.base_dir", "/cdr")
	viper.SetDefault("paths.document_root", "/web/cdr")
	viper.SetDefault("paths.mailers_dir", "/cdr/Output/Mailers")
	viper.SetDefault("paths.mailers_legacy_dir", "/cdr/Mailers/Output")
	viper.SetDefault("paths.reports_dir", "/cdr/Reports")
	viper.SetDefault("paths.dtd_dir", "/cdr/licensee")

	viper.SetDefault("auth.jwt_secret", "change-me-in-production")
	viper.SetDefault("auth.access_exp_minutes", 15)
	viper.SetDefault("auth.bcrypt_cost", 12)
	viper.SetDefault("auth.session_exp_hours", 24)

	viper.SetDefault("email.smtp_host", "localhost")
	viper.SetDefault("email.smtp_port", 25)
	viper.SetDefault("email.from_address", "cdr@cancer.gov")
	viper.SetDefault("email.ops_address", "")

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("search.max_rows", 500)
}
