package config

import (
	"fmt"
	"strings"

	"github.com/duke-git/lancet/v2/slice"
	"github.com/spf13/viper"
)

type Config struct {
	Workers int `toml:"workers" mapstructure:"workers"`

	Telegram TelegramConfig `toml:"telegram" mapstructure:"telegram"`
	API      APIConfig      `toml:"api" mapstructure:"api"`
	Download DownloadConfig `toml:"download" mapstructure:"download"`
	Quota    QuotaConfig    `toml:"quota" mapstructure:"quota"`
	DB       DBConfig       `toml:"db" mapstructure:"db"`
	Cache    CacheConfig    `toml:"cache" mapstructure:"cache"`
	Log      LogConfig      `toml:"log" mapstructure:"log"`
}

type TelegramConfig struct {
	Token        string      `toml:"token" mapstructure:"token"`
	AppID        int         `toml:"app_id" mapstructure:"app_id"`
	AppHash      string      `toml:"app_hash" mapstructure:"app_hash"`
	Admins       []int64     `toml:"admins" mapstructure:"admins"`
	StoreChannel int64       `toml:"store_channel" mapstructure:"store_channel"`
	FloodRetry   int         `toml:"flood_retry" mapstructure:"flood_retry"`
	Proxy        ProxyConfig `toml:"proxy" mapstructure:"proxy"`
}

type ProxyConfig struct {
	Enable bool   `toml:"enable" mapstructure:"enable"`
	URL    string `toml:"url" mapstructure:"url"`
}

type APIConfig struct {
	BaseURL string `toml:"base_url" mapstructure:"base_url"`
	Key     string `toml:"key" mapstructure:"key"`
	Timeout int    `toml:"timeout" mapstructure:"timeout"` // seconds
}

type DownloadConfig struct {
	Dir         string `toml:"dir" mapstructure:"dir"`
	Timeout     int    `toml:"timeout" mapstructure:"timeout"` // seconds, whole retrieval
	MaxFileSize int64  `toml:"max_file_size" mapstructure:"max_file_size"`
	BaseDelayMs int    `toml:"base_delay_ms" mapstructure:"base_delay_ms"`
}

type QuotaConfig struct {
	FreeDaily       int `toml:"free_daily" mapstructure:"free_daily"`
	PremiumDaily    int `toml:"premium_daily" mapstructure:"premium_daily"`
	FreeDelayFactor int `toml:"free_delay_factor" mapstructure:"free_delay_factor"`
	HistoryLimit    int `toml:"history_limit" mapstructure:"history_limit"`
}

type DBConfig struct {
	Path    string `toml:"path" mapstructure:"path"`
	Session string `toml:"session" mapstructure:"session"`
}

type CacheConfig struct {
	TTL         int64 `toml:"ttl" mapstructure:"ttl"`
	NumCounters int64 `toml:"num_counters" mapstructure:"num_counters"`
	MaxCost     int64 `toml:"max_cost" mapstructure:"max_cost"`
}

type LogConfig struct {
	Level string `toml:"level" mapstructure:"level"`
	File  string `toml:"file" mapstructure:"file"`
}

var cfg *Config

func C() *Config {
	return cfg
}

func Init() error {
	if cf := viper.GetString("config"); cf != "" {
		viper.SetConfigFile(cf)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/teragrab/")
	}
	viper.SetConfigType("toml")
	viper.SetEnvPrefix("TERAGRAB")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("workers", 3)

	viper.SetDefault("telegram.flood_retry", 5)

	viper.SetDefault("api.base_url", "https://iteraplay.com/api/play.php")
	viper.SetDefault("api.timeout", 30)

	viper.SetDefault("download.dir", "cache/")
	viper.SetDefault("download.timeout", 600)
	viper.SetDefault("download.max_file_size", int64(2)<<30)
	viper.SetDefault("download.base_delay_ms", 1500)

	viper.SetDefault("quota.free_daily", 5)
	viper.SetDefault("quota.premium_daily", 50)
	viper.SetDefault("quota.free_delay_factor", 3)
	viper.SetDefault("quota.history_limit", 50)

	viper.SetDefault("db.path", "data/teragrab.db")
	viper.SetDefault("db.session", "data/session.db")

	viper.SetDefault("cache.ttl", 60)
	viper.SetDefault("cache.num_counters", 10000)
	viper.SetDefault("cache.max_cost", 1<<20)

	viper.SetDefault("log.level", "INFO")

	if viper.GetString("config") == "" {
		if err := viper.SafeWriteConfigAs("config.toml"); err != nil {
			if _, ok := err.(viper.ConfigFileAlreadyExistsError); !ok {
				return fmt.Errorf("error saving default config: %w", err)
			}
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("error unmarshalling config file: %w", err)
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required")
	}
	if cfg.Workers < 1 {
		return fmt.Errorf("workers must be greater than 0, got %d", cfg.Workers)
	}
	if cfg.Quota.FreeDaily < 1 || cfg.Quota.PremiumDaily < cfg.Quota.FreeDaily {
		return fmt.Errorf("invalid quota limits: free_daily=%d, premium_daily=%d", cfg.Quota.FreeDaily, cfg.Quota.PremiumDaily)
	}
	if cfg.Quota.FreeDelayFactor < 1 {
		cfg.Quota.FreeDelayFactor = 1
	}

	return nil
}

// SetForTest replaces the loaded config. Only tests call this.
func SetForTest(c *Config) {
	cfg = c
}

func (c *Config) IsAdmin(userID int64) bool {
	return slice.Contain(c.Telegram.Admins, userID)
}
