package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string         `mapstructure:"environment"`
	LogLevel    string         `mapstructure:"log_level"`
	Server      ServerConfig   `mapstructure:"server"`
	Database    DatabaseConfig `mapstructure:"database"`
	Redis       RedisConfig    `mapstructure:"redis"`
	Provider    ProviderConfig `mapstructure:"provider"`
	Telegram    TelegramConfig `mapstructure:"telegram"`
	Sweep       SweepConfig    `mapstructure:"sweep"`
	Report      ReportConfig   `mapstructure:"report"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	CacheTTL string `mapstructure:"cache_ttl"`
}

// ProviderConfig points at the external pair-analytics service.
type ProviderConfig struct {
	ServiceURL string `mapstructure:"service_url"`
	Timeout    int    `mapstructure:"timeout"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

// SweepConfig carries the sweep grid and the retry/pacing policy. The
// candidate window sets are injected here rather than living as package
// state so a run is fully described by its configuration.
type SweepConfig struct {
	BetaWindows       []int     `mapstructure:"beta_windows"`
	ZScoreWindows     []int     `mapstructure:"zscore_windows"`
	BucketBounds      []float64 `mapstructure:"bucket_bounds"`
	MaxAttempts       int       `mapstructure:"max_attempts"`
	BackoffBase       string    `mapstructure:"backoff_base"`
	RateLimitCooldown string    `mapstructure:"rate_limit_cooldown"`
	PreCallDelay      string    `mapstructure:"pre_call_delay"`
	InterTradeDelay   string    `mapstructure:"inter_trade_delay"`
}

type ReportConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

func (s SweepConfig) BackoffBaseDuration() time.Duration {
	d, _ := time.ParseDuration(s.BackoffBase)
	return d
}

func (s SweepConfig) RateLimitCooldownDuration() time.Duration {
	d, _ := time.ParseDuration(s.RateLimitCooldown)
	return d
}

func (s SweepConfig) PreCallDelayDuration() time.Duration {
	d, _ := time.ParseDuration(s.PreCallDelay)
	return d
}

func (s SweepConfig) InterTradeDelayDuration() time.Duration {
	d, _ := time.ParseDuration(s.InterTradeDelay)
	return d
}

func (r RedisConfig) CacheTTLDuration() time.Duration {
	d, _ := time.ParseDuration(r.CacheTTL)
	return d
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional; defaults plus environment cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects configurations that would make a sweep run undefined:
// empty or non-positive window sets, unordered bucket bounds, unparseable
// pacing durations.
func (c *Config) Validate() error {
	if len(c.Sweep.BetaWindows) == 0 || len(c.Sweep.ZScoreWindows) == 0 {
		return fmt.Errorf("sweep requires at least one beta window and one z-score window")
	}
	for _, w := range append(append([]int{}, c.Sweep.BetaWindows...), c.Sweep.ZScoreWindows...) {
		if w <= 0 {
			return fmt.Errorf("sweep windows must be positive, got %d", w)
		}
	}
	if len(c.Sweep.BucketBounds) == 0 {
		return fmt.Errorf("sweep requires at least one bucket bound")
	}
	if !sort.Float64sAreSorted(c.Sweep.BucketBounds) {
		return fmt.Errorf("bucket bounds must be ascending: %v", c.Sweep.BucketBounds)
	}
	if c.Sweep.BucketBounds[0] <= 0 {
		return fmt.Errorf("bucket bounds must be positive, got %v", c.Sweep.BucketBounds[0])
	}
	if c.Sweep.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.Sweep.MaxAttempts)
	}
	for name, value := range map[string]string{
		"backoff_base":        c.Sweep.BackoffBase,
		"rate_limit_cooldown": c.Sweep.RateLimitCooldown,
		"pre_call_delay":      c.Sweep.PreCallDelay,
		"inter_trade_delay":   c.Sweep.InterTradeDelay,
		"cache_ttl":           c.Redis.CacheTTL,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s duration: %w", name, err)
		}
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	viper.SetDefault("server.port", 8080)

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "pairlens")
	viper.SetDefault("database.sslmode", "disable")

	viper.SetDefault("redis.enabled", true)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.cache_ttl", "24h")

	viper.SetDefault("provider.service_url", "http://localhost:3001")
	viper.SetDefault("provider.timeout", 30)

	viper.SetDefault("telegram.bot_token", "")
	viper.SetDefault("telegram.chat_id", "")

	viper.SetDefault("sweep.beta_windows", []int{3, 7, 14, 30})
	viper.SetDefault("sweep.zscore_windows", []int{3, 7, 14, 30})
	viper.SetDefault("sweep.bucket_bounds", []float64{3, 7, 14})
	viper.SetDefault("sweep.max_attempts", 3)
	viper.SetDefault("sweep.backoff_base", "2s")
	viper.SetDefault("sweep.rate_limit_cooldown", "10s")
	viper.SetDefault("sweep.pre_call_delay", "500ms")
	viper.SetDefault("sweep.inter_trade_delay", "2s")

	viper.SetDefault("report.output_dir", "./reports")
}
