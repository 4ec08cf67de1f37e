// Package config loads the event-listener's configuration from the environment.
//
// Every key is listed in the component table of the system's external interfaces: RPC endpoints,
// the program set to subscribe to, writer/checkpoint tuning, reconnect backoff, timeouts,
// concurrency caps, and the health threshold. cmd/server only copies a local .env file into unset
// variables; the parsing itself is a single typed struct processed by envconfig, so every field has one declared default and one
// declared env var, and unset required fields fail fast at startup rather than at first use.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the full set of recognized environment keys.
type Config struct {
	RPCHTTPURL string `envconfig:"RPC_HTTP_URL" required:"true"`
	RPCWSURL   string `envconfig:"RPC_WS_URL" required:"true"`

	ProgramIDsRaw string `envconfig:"PROGRAM_IDS" required:"true"`

	BatchSize           int `envconfig:"BATCH_SIZE" default:"500"`
	FlushIntervalMs     int `envconfig:"FLUSH_INTERVAL_MS" default:"250"`
	BufferCapacity      int `envconfig:"BUFFER_CAPACITY" default:"10000"`
	MaxRetries          int `envconfig:"WRITER_MAX_RETRIES" default:"5"`
	WriterHighWatermark int `envconfig:"WRITER_HIGH_WATERMARK" default:"5000"`

	CheckpointIntervalMs int `envconfig:"CHECKPOINT_INTERVAL_MS" default:"5000"`

	ReconnectInitialMs int     `envconfig:"RECONNECT_INITIAL_MS" default:"500"`
	ReconnectMaxMs     int     `envconfig:"RECONNECT_MAX_MS" default:"60000"`
	ReconnectJitter    float64 `envconfig:"RECONNECT_JITTER" default:"0.2"`
	StableResetAfterMs int     `envconfig:"RECONNECT_STABLE_RESET_MS" default:"30000"`

	IdleTimeoutMs   int `envconfig:"IDLE_TIMEOUT_MS" default:"90000"`
	RPCTimeoutMs    int `envconfig:"RPC_TIMEOUT_MS" default:"30000"`
	ShutdownGraceMs int `envconfig:"SHUTDOWN_GRACE_MS" default:"10000"`

	ScanConcurrency   int `envconfig:"SCAN_CONCURRENCY" default:"8"`
	RPCMaxConcurrency int `envconfig:"RPC_MAX_CONCURRENCY" default:"16"`

	HealthyLagSlots int `envconfig:"HEALTHY_LAG_SLOTS" default:"300"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`
	HealthAddr  string `envconfig:"HEALTH_ADDR" default:":9091"`
}

// Load reads and validates configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if strings.TrimSpace(cfg.ProgramIDsRaw) == "" {
		return nil, fmt.Errorf("PROGRAM_IDS must list at least one program")
	}
	return &cfg, nil
}

// ProgramIDs splits the comma-separated PROGRAM_IDS value, trimming whitespace and dropping
// empty entries.
func (c *Config) ProgramIDs() []string {
	parts := strings.Split(c.ProgramIDsRaw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) FlushInterval() time.Duration    { return time.Duration(c.FlushIntervalMs) * time.Millisecond }
func (c *Config) CheckpointInterval() time.Duration {
	return time.Duration(c.CheckpointIntervalMs) * time.Millisecond
}
func (c *Config) ReconnectInitial() time.Duration {
	return time.Duration(c.ReconnectInitialMs) * time.Millisecond
}
func (c *Config) ReconnectMax() time.Duration { return time.Duration(c.ReconnectMaxMs) * time.Millisecond }
func (c *Config) StableResetAfter() time.Duration {
	return time.Duration(c.StableResetAfterMs) * time.Millisecond
}
func (c *Config) IdleTimeout() time.Duration   { return time.Duration(c.IdleTimeoutMs) * time.Millisecond }
func (c *Config) RPCTimeout() time.Duration    { return time.Duration(c.RPCTimeoutMs) * time.Millisecond }
func (c *Config) ShutdownGrace() time.Duration { return time.Duration(c.ShutdownGraceMs) * time.Millisecond }
