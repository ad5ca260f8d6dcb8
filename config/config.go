package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/alijnmerchant21/messagefeed/model"
)

const FileName = "feed.toml"

// Config holds the application settings that sit next to CometBFT's own
// config.toml.
type Config struct {
	// DBDir is the badger directory, relative to the home directory unless absolute.
	DBDir string `mapstructure:"db_dir"`
	// HTTPAddr serves /messages, /feed and /metrics.
	HTTPAddr string `mapstructure:"http_addr"`
	// MaxRecordSize bounds allocations.
	MaxRecordSize int `mapstructure:"max_record_size"`
	// ReinitGuard rejects re-initializing a user that already owns a feed.
	ReinitGuard bool `mapstructure:"reinit_guard"`
	// Moderators are hex identities allowed to ban. Empty means anyone can.
	Moderators []string `mapstructure:"moderators"`
	// FeedQueryLimit caps the number of messages a /feed query returns.
	FeedQueryLimit int `mapstructure:"feed_query_limit"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db_dir", "feed-db")
	v.SetDefault("http_addr", "127.0.0.1:8080")
	v.SetDefault("max_record_size", model.MessageHeaderSize+1024)
	v.SetDefault("reinit_guard", false)
	v.SetDefault("moderators", []string{})
	v.SetDefault("feed_query_limit", 100)
}

func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(err)
	}
	return &cfg
}

// Load reads $home/config/feed.toml if present. FEED_* environment
// variables override file values.
func Load(home string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("FEED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := filepath.Join(home, "config", FileName)
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if !filepath.IsAbs(cfg.DBDir) {
		cfg.DBDir = filepath.Join(home, cfg.DBDir)
	}
	return &cfg, cfg.ValidateBasic()
}

func (c *Config) ValidateBasic() error {
	if c.MaxRecordSize < model.MessageHeaderSize {
		return fmt.Errorf("max_record_size must be at least %d", model.MessageHeaderSize)
	}
	if c.FeedQueryLimit <= 0 {
		return fmt.Errorf("feed_query_limit must be positive")
	}
	for _, m := range c.Moderators {
		if _, err := model.ParseIdentity(m); err != nil {
			return fmt.Errorf("moderators: %w", err)
		}
	}
	return nil
}
