package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "gateway", "samgw":
		return gatewayTemplate, nil
	case "cli", "samcli":
		return cliTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const gatewayTemplate = `name = "samgw"
addr = ":9200"
endpoint = "ipc:///tmp/sam_ipc"
cors_origins = ["http://localhost:3000"]
connect_timeout = "5s"
request_timeout = "5s"
max_connect_attempts = 3

[backoff]
initial_delay = "250ms"
multiplier = 2.0
max_delay = "5s"
jitter = true
`

const cliTemplate = `endpoint = "ipc:///tmp/sam_ipc"
connect_timeout = "5s"
request_timeout = "5s"
`
