package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/matst80/slask-tyres/pkg/common"
	"github.com/matst80/slask-tyres/pkg/engine"
	"github.com/matst80/slask-tyres/pkg/types"
)

type Config struct {
	ListenAddress   string `envconfig:"LISTEN_ADDRESS" default:":8080"`
	EnableProfiling bool   `envconfig:"ENABLE_PROFILING" default:"false"`

	ReadHeaderTimeout time.Duration `envconfig:"READ_HEADER_TIMEOUT" default:"5s"`
	ReadTimeout       time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout      time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`
	IdleTimeout       time.Duration `envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout   time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
	HookTimeout       time.Duration `envconfig:"HOOK_TIMEOUT" default:"5s"`

	DataDir string `envconfig:"DATA_DIR" default:"data"`
	Dataset string `envconfig:"DATASET" default:"tyres"`

	PageSize         int           `envconfig:"PAGE_SIZE" default:"12"`
	Debounce         time.Duration `envconfig:"DEBOUNCE" default:"450ms"`
	FrameSpacing     time.Duration `envconfig:"FRAME_SPACING" default:"16ms"`
	SuggestLimit     int           `envconfig:"SUGGEST_LIMIT" default:"8"`
	SuggestCacheSize int           `envconfig:"SUGGEST_CACHE_SIZE" default:"100"`
	MemoSize         int           `envconfig:"MEMO_SIZE" default:"32"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	RabbitUrl    string `envconfig:"RABBIT_URL"`
	RabbitPrefix string `envconfig:"RABBIT_PREFIX" default:"catalog"`

	RemoteUrl   string  `envconfig:"REMOTE_URL"`
	RemoteRate  float64 `envconfig:"REMOTE_RATE" default:"10"`
	RemoteBurst int     `envconfig:"REMOTE_BURST" default:"5"`

	MaxPrice    float64 `envconfig:"MAX_PRICE" default:"1000"`
	MaxWarranty float64 `envconfig:"MAX_WARRANTY" default:"100000"`
	MaxWeight   float64 `envconfig:"MAX_WEIGHT" default:"100"`
	MaxLoad     float64 `envconfig:"MAX_LOAD" default:"5000"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("CATALOG", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) validate() error {
	if c.PageSize <= 0 {
		return fmt.Errorf("page size must be positive, got %d", c.PageSize)
	}
	for name, v := range map[string]float64{
		"price":    c.MaxPrice,
		"warranty": c.MaxWarranty,
		"weight":   c.MaxWeight,
		"load":     c.MaxLoad,
	} {
		if v <= 0 {
			return fmt.Errorf("max %s must be positive, got %v", name, v)
		}
	}
	return nil
}

func (c *Config) HasRedis() bool {
	return c.RedisAddr != ""
}

func (c *Config) HasRabbit() bool {
	return c.RabbitUrl != ""
}

func (c *Config) HasRemote() bool {
	return c.RemoteUrl != ""
}

func (c *Config) Bounds() types.AttributeBounds {
	return types.AttributeBounds{
		types.PriceAttribute:    {Min: 0, Max: c.MaxPrice},
		types.WarrantyAttribute: {Min: 0, Max: c.MaxWarranty},
		types.WeightAttribute:   {Min: 0, Max: c.MaxWeight},
		types.MaxLoadAttribute:  {Min: 0, Max: c.MaxLoad},
	}
}

func (c *Config) ServerTimeouts() common.ServerTimeouts {
	return common.ServerTimeouts{
		ReadHeader: c.ReadHeaderTimeout,
		Read:       c.ReadTimeout,
		Write:      c.WriteTimeout,
		Idle:       c.IdleTimeout,
		Shutdown:   c.ShutdownTimeout,
		Hook:       c.HookTimeout,
	}
}

func (c *Config) EngineOptions() engine.Options {
	return engine.Options{
		PageSize:         c.PageSize,
		Bounds:           c.Bounds(),
		SuggestLimit:     c.SuggestLimit,
		SuggestCacheSize: c.SuggestCacheSize,
		MemoSize:         c.MemoSize,
	}
}
