package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/samwise/internal/config"
	"github.com/danmuck/samwise/internal/protocol/session"
)

type fileConfig struct {
	Endpoint       string `toml:"endpoint"`
	ConnectTimeout string `toml:"connect_timeout"`
	RequestTimeout string `toml:"request_timeout"`
	ConnectRetries int    `toml:"connect_retries"`
}

type cliConfig struct {
	Endpoint string
	Session  session.Config
}

func defaultCLIConfig() cliConfig {
	cfg := session.DefaultConfig()
	cfg.RequestTimeout = config.DefaultRequestTimeout
	return cliConfig{
		Endpoint: config.DefaultEndpoint,
		Session:  cfg,
	}
}

// loadCLIConfig overlays the keys present in path onto the defaults. An
// empty path returns the defaults.
func loadCLIConfig(path string) (cliConfig, error) {
	cfg := defaultCLIConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return cliConfig{}, fmt.Errorf("load samcli config: %w", err)
	}

	if meta.IsDefined("endpoint") {
		cfg.Endpoint = strings.TrimSpace(raw.Endpoint)
		if err := config.ValidateEndpoint(cfg.Endpoint); err != nil {
			return cliConfig{}, fmt.Errorf("parse endpoint: %w", err)
		}
	}

	if meta.IsDefined("connect_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ConnectTimeout))
		if err != nil {
			return cliConfig{}, fmt.Errorf("parse connect_timeout: %w", err)
		}
		cfg.Session.ConnectTimeout = d
	}

	if meta.IsDefined("request_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.RequestTimeout))
		if err != nil {
			return cliConfig{}, fmt.Errorf("parse request_timeout: %w", err)
		}
		cfg.Session.RequestTimeout = d
	}

	if meta.IsDefined("connect_retries") {
		if raw.ConnectRetries < 0 {
			return cliConfig{}, fmt.Errorf("connect_retries must not be negative")
		}
		cfg.Session.ConnectRetries = raw.ConnectRetries
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return cliConfig{}, fmt.Errorf("load samcli config: unknown key %q", undecoded[0].String())
	}
	return cfg, nil
}
