package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/danmuck/samwise/internal/protocol/session"
	"github.com/pelletier/go-toml/v2"
)

type GatewayConfig struct {
	Name               string        `toml:"name"`
	Addr               string        `toml:"addr"`
	Endpoint           string        `toml:"endpoint"`
	CorsOrigins        []string      `toml:"cors_origins"`
	ConnectTimeout     Duration      `toml:"connect_timeout"`
	RequestTimeout     *Duration     `toml:"request_timeout"`
	MaxConnectAttempts int           `toml:"max_connect_attempts"`
	Backoff            BackoffConfig `toml:"backoff"`
}

type BackoffConfig struct {
	InitialDelay Duration `toml:"initial_delay"`
	Multiplier   float64  `toml:"multiplier"`
	MaxDelay     Duration `toml:"max_delay"`
	Jitter       *bool    `toml:"jitter"`
}

// Duration decodes TOML strings such as "250ms" or "5s".
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// NewDuration returns a pointer for optional fields such as
// GatewayConfig.RequestTimeout.
func NewDuration(d time.Duration) *Duration {
	v := Duration(d)
	return &v
}

const (
	DefaultGatewayName     = "samgw"
	DefaultGatewayAddr     = ":9200"
	DefaultEndpoint        = "ipc:///tmp/sam_ipc"
	DefaultRequestTimeout  = 5 * time.Second
	DefaultConnectAttempts = 3
)

func LoadGatewayConfig(path string) (GatewayConfig, error) {
	var cfg GatewayConfig
	if err := loadToml(path, &cfg); err != nil {
		return GatewayConfig{}, err
	}
	cfg = cfg.WithDefaults()
	if err := ValidateGatewayConfig(cfg); err != nil {
		return GatewayConfig{}, err
	}
	return cfg, nil
}

// WithDefaults fills unset fields.
func (cfg GatewayConfig) WithDefaults() GatewayConfig {
	if cfg.Name == "" {
		cfg.Name = DefaultGatewayName
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultGatewayAddr
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	// an explicit "0s" means unbounded and is kept
	if cfg.RequestTimeout == nil {
		cfg.RequestTimeout = NewDuration(DefaultRequestTimeout)
	}
	if cfg.MaxConnectAttempts == 0 {
		cfg.MaxConnectAttempts = DefaultConnectAttempts
	}
	return cfg
}

// Session maps the gateway settings onto a session config.
func (cfg GatewayConfig) Session() session.Config {
	out := session.DefaultConfig()
	if cfg.ConnectTimeout > 0 {
		out.ConnectTimeout = cfg.ConnectTimeout.Std()
	}
	if cfg.RequestTimeout != nil {
		out.RequestTimeout = cfg.RequestTimeout.Std()
	}
	if cfg.Backoff.InitialDelay > 0 {
		out.Backoff.InitialDelay = cfg.Backoff.InitialDelay.Std()
	}
	if cfg.Backoff.Multiplier > 0 {
		out.Backoff.Multiplier = cfg.Backoff.Multiplier
	}
	if cfg.Backoff.MaxDelay > 0 {
		out.Backoff.MaxDelay = cfg.Backoff.MaxDelay.Std()
	}
	if cfg.Backoff.Jitter != nil {
		out.Backoff.Jitter = *cfg.Backoff.Jitter
	}
	return out.WithDefaults()
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateGatewayConfig(cfg GatewayConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("gateway config missing name")
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("gateway config missing addr")
	}
	if err := ValidateEndpoint(cfg.Endpoint); err != nil {
		return fmt.Errorf("gateway config endpoint invalid: %w", err)
	}
	if (cfg.RequestTimeout != nil && *cfg.RequestTimeout < 0) || cfg.ConnectTimeout < 0 {
		return fmt.Errorf("gateway config timeouts must not be negative")
	}
	if cfg.MaxConnectAttempts < 1 {
		return fmt.Errorf("gateway config max_connect_attempts must be >= 1")
	}
	if cfg.Backoff.Multiplier < 0 {
		return fmt.Errorf("gateway config backoff multiplier must not be negative")
	}
	if cfg.Backoff.MaxDelay > 0 && cfg.Backoff.InitialDelay > cfg.Backoff.MaxDelay {
		return fmt.Errorf("gateway config backoff initial_delay exceeds max_delay")
	}
	for i, origin := range cfg.CorsOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			return fmt.Errorf("cors_origins[%d] is empty", i)
		}
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("cors_origins[%d] %q must start with http:// or https://", i, origin)
		}
	}
	return nil
}

// ValidateEndpoint accepts the ZeroMQ transports samd listens on.
func ValidateEndpoint(endpoint string) error {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	scheme, rest, ok := strings.Cut(endpoint, "://")
	if !ok || rest == "" {
		return fmt.Errorf("endpoint %q must be scheme://address", endpoint)
	}
	switch scheme {
	case "ipc", "tcp", "inproc":
		return nil
	default:
		return fmt.Errorf("endpoint %q: unsupported transport %q", endpoint, scheme)
	}
}
