package control

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9040", cfg.ListenAddr)
	require.Equal(t, 8192, cfg.BufferSize)
	require.Equal(t, 100, cfg.QueueCapacity)
	require.Equal(t, 3600*time.Second, cfg.IdleTimeout)
	require.Equal(t, 1000, cfg.MaxSessions)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("NETSESS_LISTEN_ADDR", ":7000")
	t.Setenv("NETSESS_BUFFER_SIZE", "4096")
	t.Setenv("NETSESS_IDLE_TIMEOUT", "90s")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":7000", cfg.ListenAddr)
	require.Equal(t, 4096, cfg.BufferSize)
	require.Equal(t, 90*time.Second, cfg.IdleTimeout)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("NETSESS_QUEUE_CAPACITY", "0")
	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	cases := []func(*Config){
		func(c *Config) { c.BufferSize = 0 },
		func(c *Config) { c.QueueCapacity = -1 },
		func(c *Config) { c.MaxSessions = 0 },
		func(c *Config) { c.IdleTimeout = 0 },
		func(c *Config) { c.SweepInterval = 0 },
	}
	for _, mutate := range cases {
		bad := *cfg
		mutate(&bad)
		require.Error(t, bad.Validate())
	}
}

func TestConfigStoreUpdateNotifiesListeners(t *testing.T) {
	base, err := Load()
	require.NoError(t, err)
	cs := NewConfigStore(base)

	var gotAddr string
	cs.OnReload(func(c *Config) { gotAddr = c.ListenAddr })

	next := *base
	next.ListenAddr = ":8111"
	require.NoError(t, cs.Update(&next))
	require.Equal(t, ":8111", gotAddr)
	require.Equal(t, ":8111", cs.Snapshot().ListenAddr)
}

func TestConfigStoreRejectsInvalidUpdate(t *testing.T) {
	base, err := Load()
	require.NoError(t, err)
	cs := NewConfigStore(base)

	bad := *base
	bad.MaxSessions = 0
	require.Error(t, cs.Update(&bad))
	require.Equal(t, base.MaxSessions, cs.Snapshot().MaxSessions)
}
