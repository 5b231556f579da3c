package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/samwise/internal/testutil/testlog"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "samgw.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadGatewayConfigDefaults(t *testing.T) {
	testlog.Start(t)
	cfg, err := LoadGatewayConfig(writeConfig(t, "\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Name != DefaultGatewayName || cfg.Addr != DefaultGatewayAddr || cfg.Endpoint != DefaultEndpoint {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.RequestTimeout.Std() != DefaultRequestTimeout || cfg.MaxConnectAttempts != DefaultConnectAttempts {
		t.Fatalf("unexpected timeout defaults: %+v", cfg)
	}
}

func TestLoadGatewayConfigFromTemplate(t *testing.T) {
	testlog.Start(t)
	tmpl, err := Template("gateway")
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	cfg, err := LoadGatewayConfig(writeConfig(t, tmpl))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backoff.InitialDelay.Std() != 250*time.Millisecond || cfg.Backoff.MaxDelay.Std() != 5*time.Second {
		t.Fatalf("unexpected backoff: %+v", cfg.Backoff)
	}
	if len(cfg.CorsOrigins) != 1 || cfg.CorsOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected cors origins: %v", cfg.CorsOrigins)
	}

	sc := cfg.Session()
	if sc.RequestTimeout != 5*time.Second || sc.ConnectTimeout != 5*time.Second {
		t.Fatalf("unexpected session timeouts: %+v", sc)
	}
	if !sc.Backoff.Jitter || sc.Backoff.Multiplier != 2.0 {
		t.Fatalf("unexpected session backoff: %+v", sc.Backoff)
	}
}

func TestRequestTimeoutZeroMeansUnbounded(t *testing.T) {
	testlog.Start(t)
	cfg, err := LoadGatewayConfig(writeConfig(t, "request_timeout = \"0s\"\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RequestTimeout == nil || cfg.RequestTimeout.Std() != 0 {
		t.Fatalf("expected explicit zero kept, got %v", cfg.RequestTimeout)
	}
	if got := cfg.Session().RequestTimeout; got != 0 {
		t.Fatalf("expected unbounded session request timeout, got %v", got)
	}
	if _, err := LoadGatewayConfig(writeConfig(t, "request_timeout = \"-1s\"\n")); err == nil {
		t.Fatalf("expected negative request_timeout rejected")
	}
}

func TestSessionConfigJitterOverride(t *testing.T) {
	testlog.Start(t)
	cfg, err := LoadGatewayConfig(writeConfig(t, "[backoff]\njitter = false\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Session().Backoff.Jitter {
		t.Fatalf("expected jitter disabled")
	}
}

func TestLoadGatewayConfigRejectsInvalid(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"bad duration":    `request_timeout = "soon"`,
		"bad endpoint":    `endpoint = "udp://127.0.0.1:5555"`,
		"missing scheme":  `endpoint = "sam_ipc"`,
		"attempts":        `max_connect_attempts = -1`,
		"backoff order":   "[backoff]\ninitial_delay = \"10s\"\nmax_delay = \"1s\"\n",
		"blank cors":      `cors_origins = [" "]`,
		"cors scheme":     `cors_origins = ["localhost:3000"]`,
		"not toml at all": `name = `,
	}
	for name, body := range cases {
		if _, err := LoadGatewayConfig(writeConfig(t, body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if _, err := LoadGatewayConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidateEndpoint(t *testing.T) {
	testlog.Start(t)
	for _, ep := range []string{"ipc://sam_ipc", "tcp://127.0.0.1:5555", "inproc://samd"} {
		if err := ValidateEndpoint(ep); err != nil {
			t.Fatalf("%s: %v", ep, err)
		}
	}
	if err := ValidateEndpoint(" "); err == nil {
		t.Fatalf("expected empty endpoint rejected")
	}
}

func TestWriteTemplate(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "samcli.toml")
	if err := WriteTemplate(path, "cli", false); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "endpoint") {
		t.Fatalf("unexpected template: %s", data)
	}
	if err := WriteTemplate(path, "cli", false); err == nil {
		t.Fatalf("expected refusal to overwrite")
	}
	if err := WriteTemplate(path, "cli", true); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if _, err := Template("ghost"); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}
