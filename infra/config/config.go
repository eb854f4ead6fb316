package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the engine process. Load fills it from
// a YAML file, then environment variables override the deploy-specific
// fields.
type Config struct {
	Server struct {
		Listen string `yaml:"listen"`
	} `yaml:"server"`

	Book struct {
		TickSize       string `yaml:"tick_size"`
		ArenaBlock     int    `yaml:"arena_block"`
		ArenaMaxBlocks int    `yaml:"arena_max_blocks"`
	} `yaml:"book"`

	Journal struct {
		Enabled bool   `yaml:"enabled"`
		Dir     string `yaml:"dir"`
		// CompactEvery snapshots the book and truncates the journal
		// every N accepted commands. 0 disables auto-compaction.
		CompactEvery int `yaml:"compact_every"`
	} `yaml:"journal"`

	Kafka struct {
		Enabled        bool     `yaml:"enabled"`
		Brokers        []string `yaml:"brokers"`
		DepthTopic     string   `yaml:"depth_topic"`
		OrdersTopic    string   `yaml:"orders_topic"`
		Group          string   `yaml:"group"`
		BatchTimeoutMS int      `yaml:"batch_timeout_ms"`
		Async          bool     `yaml:"async"`
	} `yaml:"kafka"`

	Depth struct {
		Levels     int `yaml:"levels"`
		IntervalMS int `yaml:"interval_ms"`
	} `yaml:"depth"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Listen = ":8080"
	cfg.Book.TickSize = "0.01"
	cfg.Book.ArenaBlock = 1024
	cfg.Journal.Enabled = true
	cfg.Journal.Dir = "./journal"
	cfg.Journal.CompactEvery = 10000
	cfg.Kafka.DepthTopic = "book.depth"
	cfg.Kafka.OrdersTopic = "book.orders"
	cfg.Kafka.Group = "mimir-engine"
	cfg.Kafka.BatchTimeoutMS = 10
	cfg.Depth.Levels = 10
	cfg.Depth.IntervalMS = 1000
	return cfg
}

// Load reads path (empty means defaults only), applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func overrideWithEnv(cfg *Config) {
	if v := os.Getenv("MIMIR_LISTEN"); v != "" {
		cfg.Server.Listen = v
	}
	if v := os.Getenv("MIMIR_JOURNAL_DIR"); v != "" {
		cfg.Journal.Dir = v
	}
	if v := os.Getenv("MIMIR_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
		cfg.Kafka.Enabled = true
	}
}

func (c *Config) Validate() error {
	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}
	if c.Book.TickSize == "" {
		return fmt.Errorf("book.tick_size is required")
	}
	if c.Book.ArenaBlock < 0 || c.Book.ArenaMaxBlocks < 0 {
		return fmt.Errorf("book arena sizes must be non-negative")
	}
	if c.Journal.Enabled && c.Journal.Dir == "" {
		return fmt.Errorf("journal.dir is required when the journal is enabled")
	}
	if c.Journal.CompactEvery < 0 {
		return fmt.Errorf("journal.compact_every must be non-negative")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka is enabled")
	}
	if c.Kafka.BatchTimeoutMS < 0 {
		return fmt.Errorf("kafka.batch_timeout_ms must be non-negative")
	}
	if c.Depth.Levels <= 0 {
		return fmt.Errorf("depth.levels must be positive")
	}
	if c.Depth.IntervalMS <= 0 {
		return fmt.Errorf("depth.interval_ms must be positive")
	}
	return nil
}
