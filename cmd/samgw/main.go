package main

import (
	"flag"

	"github.com/danmuck/samwise/internal/config"
	"github.com/danmuck/samwise/internal/gateway"
	"github.com/danmuck/samwise/internal/logging"
	"github.com/rs/zerolog/log"
)

func main() {
	logging.ConfigureRuntime("samgw")
	configPath := flag.String("config", "cmd/samgw/config.toml", "gateway TOML config path")
	flag.Parse()

	cfg, err := config.LoadGatewayConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load gateway config")
	}
	log.Info().Str("path", *configPath).Msg("loaded gateway config")

	server := gateway.New(cfg)
	defer server.Close()

	log.Info().
		Str("name", server.Name).
		Str("addr", server.Addr).
		Str("endpoint", server.Endpoint).
		Msg("gateway started")
	if err := server.Serve(); err != nil {
		log.Fatal().Err(err).Msg("gateway stopped")
	}
}
