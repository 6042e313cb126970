package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/rmendes/workshop-planner/internal/app"
	"github.com/rmendes/workshop-planner/internal/commands"
)

func main() {
	// Check for subcommands
	if len(os.Args) > 1 && os.Args[1] == "hash-password" {
		commands.HashPassword(os.Args[2:])
		return
	}

	configPath := flag.String("config", "workshop-planner.yaml", "Path to YAML config file")
	port := flag.Int("port", 0, "Port to listen on (overrides config)")
	dataFile := flag.String("data", "", "Path to planner data file (overrides config)")
	authFile := flag.String("auth", "", "Path to auth credential file (overrides config)")
	dev := flag.Bool("dev", false, "Development logging (human-readable, debug level)")
	flag.Parse()

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *dataFile != "" {
		cfg.DataFile = *dataFile
	}
	if *authFile != "" {
		cfg.AuthFile = *authFile
	}

	logger, err := buildLogger(*dev || cfg.Verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Sugar()

	auth, err := app.LoadAuthenticator(cfg.AuthFile, log)
	if err != nil {
		log.Fatalw("failed to load auth credentials", "error", err)
	}

	store := app.NewStore(app.NewFilePersister(cfg.DataFile), log)
	if err := store.Load(); err != nil {
		log.Fatalw("failed to load planner data", "file", cfg.DataFile, "error", err)
	}

	server := app.NewServer(store, auth, log)

	log.Infow("starting workshop planner",
		"addr", fmt.Sprintf("http://localhost:%d", cfg.Port),
		"data", cfg.DataFile,
		"auth", auth.Enabled())
	if err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.Port), server.Routes()); err != nil {
		log.Fatalw("server stopped", "error", err)
	}
}

func buildLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
