// One-shot consultation from the command line: reads the query, runs the
// chosen tool, prints the envelope JSON to stdout and exits.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"justice-agent-tools/internal/config"
	"justice-agent-tools/internal/infra/adapters/justice"
	"justice-agent-tools/internal/infra/logging"
	"justice-agent-tools/internal/usecase"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	tool := flag.String("tool", "process", "tool to run: process, document or hybrid")
	flag.Parse()

	query := strings.Join(flag.Args(), " ")
	if query == "" {
		fmt.Fprintln(os.Stderr, "usage: consult [-config config.yaml] [-tool process|document|hybrid] <query text>")
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, false)

	gateway, err := justice.NewClient(cfg.API.BaseURL, cfg.API.Key, cfg.API.Timeout)
	if err != nil {
		logger.Fatal().Err(err).Msg("search gateway")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	poller := usecase.NewPoller(usecase.PollConfigFrom(cfg.Polling), logger)
	consultUC := usecase.NewConsultationUseCase(gateway, poller, nil, logger)

	var resp any
	switch *tool {
	case "process":
		resp = consultUC.ConsultProcess(ctx, query)
	case "document":
		resp = consultUC.ConsultDocument(ctx, query)
	case "hybrid":
		// no history store here, so hybrid degrades to a plain remote search
		hybridUC := usecase.NewHybridSearchUseCase(gateway, poller, nil, nil, cfg.Hybrid.Freshness, logger)
		resp = hybridUC.Search(ctx, query)
	default:
		fmt.Fprintf(os.Stderr, "unknown tool %q\n", *tool)
		os.Exit(2)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		logger.Fatal().Err(err).Msg("encode envelope")
	}
}
