package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/samwise/internal/config"
	"github.com/danmuck/samwise/internal/testutil/testlog"
)

func TestLoadCLIConfigDefaultsAndOverrides(t *testing.T) {
	testlog.Start(t)
	cfg, err := loadCLIConfig("ex.config.toml")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Endpoint != "tcp://127.0.0.1:5555" {
		t.Fatalf("unexpected endpoint: %q", cfg.Endpoint)
	}
	if cfg.Session.ConnectTimeout != 2*time.Second {
		t.Fatalf("unexpected connect timeout: %v", cfg.Session.ConnectTimeout)
	}
	if cfg.Session.RequestTimeout != 750*time.Millisecond {
		t.Fatalf("unexpected request timeout: %v", cfg.Session.RequestTimeout)
	}
	if cfg.Session.ConnectRetries != 2 {
		t.Fatalf("unexpected connect retries: %d", cfg.Session.ConnectRetries)
	}
}

func TestLoadCLIConfigPartialKeepsDefaults(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "samcli.toml")
	if err := os.WriteFile(path, []byte("request_timeout = \"1s\"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := loadCLIConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	def := defaultCLIConfig()
	if cfg.Endpoint != config.DefaultEndpoint || cfg.Session.ConnectTimeout != def.Session.ConnectTimeout {
		t.Fatalf("expected defaults kept, got %+v", cfg)
	}
	if cfg.Session.RequestTimeout != time.Second {
		t.Fatalf("unexpected request timeout: %v", cfg.Session.RequestTimeout)
	}

	empty, err := loadCLIConfig("")
	if err != nil || empty.Endpoint != config.DefaultEndpoint {
		t.Fatalf("expected defaults for empty path, got %+v err=%v", empty, err)
	}
}

func TestLoadCLIConfigRejectsInvalid(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"duration": `request_timeout = "later"`,
		"endpoint": `endpoint = "sam_ipc"`,
		"retries":  `connect_retries = -1`,
		"unknown":  `endpoints = "ipc://sam_ipc"`,
	}
	for name, body := range cases {
		path := filepath.Join(t.TempDir(), name+".toml")
		if err := os.WriteFile(path, []byte(body+"\n"), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := loadCLIConfig(path); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
