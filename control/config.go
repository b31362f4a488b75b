// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Typed runtime configuration loaded from the environment, with
// reload listener support for hot updates.

package control

import (
	"fmt"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the tunables of the session subsystem.
type Config struct {
	ListenAddr    string        `env:"NETSESS_LISTEN_ADDR" envDefault:":9040"`
	BufferSize    int           `env:"NETSESS_BUFFER_SIZE" envDefault:"8192"`
	QueueCapacity int           `env:"NETSESS_QUEUE_CAPACITY" envDefault:"100"`
	IdleTimeout   time.Duration `env:"NETSESS_IDLE_TIMEOUT" envDefault:"3600s"`
	MaxSessions   int           `env:"NETSESS_MAX_SESSIONS" envDefault:"1000"`
	SweepInterval time.Duration `env:"NETSESS_SWEEP_INTERVAL" envDefault:"30s"`
	JoinTimeout   time.Duration `env:"NETSESS_JOIN_TIMEOUT" envDefault:"5s"`
}

// Load parses configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the session layer cannot honor.
func (c *Config) Validate() error {
	if c.BufferSize <= 0 {
		return fmt.Errorf("buffer size must be positive, got %d", c.BufferSize)
	}
	if c.QueueCapacity <= 0 {
		return fmt.Errorf("queue capacity must be positive, got %d", c.QueueCapacity)
	}
	if c.MaxSessions <= 0 {
		return fmt.Errorf("max sessions must be positive, got %d", c.MaxSessions)
	}
	if c.IdleTimeout <= 0 {
		return fmt.Errorf("idle timeout must be positive, got %s", c.IdleTimeout)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive, got %s", c.SweepInterval)
	}
	return nil
}

// ConfigStore is a dynamic config holder with atomic snapshot and
// listener support.
type ConfigStore struct {
	mu        sync.RWMutex
	current   *Config
	listeners []func(*Config)
}

// NewConfigStore initializes a store seeded with cfg.
func NewConfigStore(cfg *Config) *ConfigStore {
	return &ConfigStore{current: cfg}
}

// Snapshot returns a copy of the current configuration.
func (cs *ConfigStore) Snapshot() Config {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return *cs.current
}

// Update replaces the configuration and dispatches reload listeners.
func (cs *ConfigStore) Update(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	cs.mu.Lock()
	cs.current = cfg
	listeners := make([]func(*Config), len(cs.listeners))
	copy(listeners, cs.listeners)
	cs.mu.Unlock()
	for _, fn := range listeners {
		fn(cfg)
	}
	return nil
}

// OnReload registers a listener invoked on every successful Update.
func (cs *ConfigStore) OnReload(fn func(*Config)) {
	cs.mu.Lock()
	cs.listeners = append(cs.listeners, fn)
	cs.mu.Unlock()
}
