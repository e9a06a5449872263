package config

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// GatewayConfig tunes the resilience policies around the remote invoice endpoint.
type GatewayConfig struct {
	BreakDuration    time.Duration `mapstructure:"breakDuration"`
	FailureThreshold int           `mapstructure:"failureThreshold"`
	MaxRetries       int           `mapstructure:"maxRetries"`
}

func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		BreakDuration:    time.Minute,
		FailureThreshold: 1,
		MaxRetries:       3,
	}
}

type GatewayConfigHolder struct {
	current atomic.Value // holds GatewayConfig

	mu        sync.Mutex
	listeners []func(GatewayConfig)
}

// NewGatewayConfigHolder reads gateway.yml when present and watches it for changes.
func NewGatewayConfigHolder(log *zap.Logger) (*GatewayConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("gateway")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/supplierspend")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SPEND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultGatewayConfig()
	v.SetDefault("gateway.breakDuration", defaults.BreakDuration)
	v.SetDefault("gateway.failureThreshold", defaults.FailureThreshold)
	v.SetDefault("gateway.maxRetries", defaults.MaxRetries)

	configFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		configFound = false
	}

	cfg, err := decodeGatewayConfig(v)
	if err != nil {
		return nil, err
	}

	holder := NewStaticGatewayConfigHolder(cfg)
	if !configFound {
		return holder, nil
	}

	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("gateway.config")

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeGatewayConfig(v)
		if err != nil {
			log.Warn("gateway config reload rejected", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.Set(updated)
		log.Info("gateway config reloaded",
			zap.String("file", e.Name),
			zap.Duration("break_duration", updated.BreakDuration),
			zap.Int("max_retries", updated.MaxRetries),
		)
	})

	return holder, nil
}

// NewStaticGatewayConfigHolder wraps a fixed configuration.
func NewStaticGatewayConfigHolder(cfg GatewayConfig) *GatewayConfigHolder {
	holder := &GatewayConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *GatewayConfigHolder) Get() GatewayConfig {
	return h.current.Load().(GatewayConfig)
}

// Set stores cfg and notifies subscribers.
func (h *GatewayConfigHolder) Set(cfg GatewayConfig) {
	h.current.Store(cfg)

	h.mu.Lock()
	listeners := append([]func(GatewayConfig){}, h.listeners...)
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(cfg)
	}
}

// OnChange registers fn to be called after every successful reload.
func (h *GatewayConfigHolder) OnChange(fn func(GatewayConfig)) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	h.listeners = append(h.listeners, fn)
	h.mu.Unlock()
}

func decodeGatewayConfig(v *viper.Viper) (GatewayConfig, error) {
	cfg := GatewayConfig{
		BreakDuration:    v.GetDuration("gateway.breakDuration"),
		FailureThreshold: v.GetInt("gateway.failureThreshold"),
		MaxRetries:       v.GetInt("gateway.maxRetries"),
	}
	if err := ValidateGatewayConfig(cfg); err != nil {
		return GatewayConfig{}, err
	}
	return cfg, nil
}

func ValidateGatewayConfig(cfg GatewayConfig) error {
	if cfg.BreakDuration <= 0 {
		return errors.New("gateway.breakDuration must be positive")
	}
	if cfg.FailureThreshold < 1 {
		return errors.New("gateway.failureThreshold must be at least 1")
	}
	if cfg.MaxRetries < 0 {
		return errors.New("gateway.maxRetries cannot be negative")
	}
	return nil
}
