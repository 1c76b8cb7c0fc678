package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/fardannozami/scoopquest/pkg/log"
)

type Config struct {
	SQLitePath string `env:"SQLITE_PATH" envDefault:"./data/scoopquest.db"`
	GroupID    string `env:"GROUP_ID"`
	BotPhone   string `env:"BOT_PHONE"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	SentryDSN  string `env:"SENTRY_DSN"`

	ReplyDelayMinMs int  `env:"REPLY_DELAY_MIN_MS" envDefault:"0"` // Minimum delay before reply (milliseconds)
	ReplyDelayMaxMs int  `env:"REPLY_DELAY_MAX_MS" envDefault:"0"` // Maximum delay before reply (milliseconds), 0 = use min as fixed
	ShowTyping      bool `env:"SHOW_TYPING" envDefault:"false"`    // Show typing indicator during delay

	CatalogPath      string `env:"CATALOG_PATH"`
	CatalogCacheSize int    `env:"CATALOG_CACHE_SIZE" envDefault:"256"`

	ProgressMaxAttempts int           `env:"PROGRESS_MAX_ATTEMPTS" envDefault:"3"`
	NotifyTimeout       time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"5s"`
	RewardRetryInterval time.Duration `env:"REWARD_RETRY_INTERVAL" envDefault:"1m"` // 0 disables the sweeper
	RewardRetryBatch    int           `env:"REWARD_RETRY_BATCH" envDefault:"50"`

	RedisAddr string `env:"REDIS_ADDR"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	KafkaBrokers       string `env:"KAFKA_BROKERS"`
	KafkaActivityTopic string `env:"KAFKA_ACTIVITY_TOPIC" envDefault:"quest-activity"`
}

// Load reads .env when present and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using defaults/environment variables")
	}
	return Parse()
}

func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.SQLitePath == "" {
		return fmt.Errorf("SQLITE_PATH must not be empty")
	}
	if c.ProgressMaxAttempts < 1 {
		return fmt.Errorf("PROGRESS_MAX_ATTEMPTS must be at least 1, got %d", c.ProgressMaxAttempts)
	}
	if c.ReplyDelayMinMs < 0 || c.ReplyDelayMaxMs < 0 {
		return fmt.Errorf("reply delays must not be negative")
	}
	if c.RewardRetryInterval < 0 {
		return fmt.Errorf("REWARD_RETRY_INTERVAL must not be negative")
	}
	return nil
}

func (c Config) ReplyDelayMin() time.Duration {
	return time.Duration(c.ReplyDelayMinMs) * time.Millisecond
}

func (c Config) ReplyDelayMax() time.Duration {
	return time.Duration(c.ReplyDelayMaxMs) * time.Millisecond
}
