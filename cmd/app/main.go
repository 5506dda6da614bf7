package main

import (
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"pendlescope/internal/di"
	"pendlescope/pkg/config"
)

func main() {
	// Load .env if present; real env vars still win.
	_ = godotenv.Load()

	// Parse flags
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	// Load config
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s chains=%v refresh=%s", cfg.Environment, cfg.Pendle.Chains, cfg.Pendle.RefreshInterval)

	// Wire DI: Initialize all dependencies
	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// Run application (blocks until signal)
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
