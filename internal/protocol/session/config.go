package session

import "time"

// BackoffConfig defines retry backoff behavior for callers that reconnect.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// Config defines transport defaults for one Session.
type Config struct {
	// ConnectTimeout bounds a single dial attempt.
	ConnectTimeout time.Duration
	// ConnectRetries is the number of extra dial attempts the transport
	// makes before giving up.
	ConnectRetries int
	ConnectRetryWait time.Duration
	// RequestTimeout bounds one send+reply cycle. Zero means unbounded.
	RequestTimeout time.Duration
	Backoff        BackoffConfig
	Dialer         Dialer
}

func DefaultConfig() Config {
	return Config{
		ConnectTimeout:   5 * time.Second,
		ConnectRetries:   0,
		ConnectRetryWait: 250 * time.Millisecond,
		RequestTimeout:   0,
		Backoff: BackoffConfig{
			InitialDelay: 250 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     5 * time.Second,
			Jitter:       true,
		},
	}
}

// WithDefaults fills zero-valued fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.ConnectRetries < 0 {
		c.ConnectRetries = def.ConnectRetries
	}
	if c.ConnectRetryWait <= 0 {
		c.ConnectRetryWait = def.ConnectRetryWait
	}
	if c.RequestTimeout < 0 {
		c.RequestTimeout = def.RequestTimeout
	}
	if c.Backoff.InitialDelay <= 0 {
		c.Backoff.InitialDelay = def.Backoff.InitialDelay
	}
	if c.Backoff.Multiplier <= 0 {
		c.Backoff.Multiplier = def.Backoff.Multiplier
	}
	if c.Backoff.MaxDelay <= 0 {
		c.Backoff.MaxDelay = def.Backoff.MaxDelay
	}
	if c.Dialer == nil {
		c.Dialer = ZMQDialer(c.ConnectTimeout, c.ConnectRetries, c.ConnectRetryWait)
	}
	return c
}
