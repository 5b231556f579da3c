package main

import (
	"flag"
	"log"

	"github.com/danmuck/samwise/internal/config"
)

func main() {
	kind := flag.String("kind", "gateway", "config kind: gateway|cli")
	output := flag.String("output", "", "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", "", "config path for validation (defaults to per-kind cmd path)")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		if *kind != "gateway" {
			log.Fatalf("validation supports kind=gateway only, got %s", *kind)
		}
		path := *input
		if path == "" {
			path = "cmd/samgw/config.toml"
		}
		if _, err := config.LoadGatewayConfig(path); err != nil {
			log.Fatal(err)
		}
		log.Printf("Validated %s config at %s", *kind, path)
		return
	}

	target := *output
	if target == "" {
		switch *kind {
		case "gateway":
			target = "cmd/samgw/config.toml"
		case "cli":
			target = "cmd/samcli/config.toml"
		default:
			log.Fatalf("unknown kind: %s", *kind)
		}
	}

	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s config template to %s", *kind, target)
}
