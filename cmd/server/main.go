package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JaimeStill/underwriter/internal/config"
)

func main() {
	// .env is optional; variables already in the environment win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed:", err)
	}

	srv, err := NewServer(context.Background(), cfg)
	if err != nil {
		log.Fatal("server init failed:", err)
	}

	if err := srv.Start(); err != nil {
		log.Fatal("server start failed:", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	if err := srv.Shutdown(cfg.ShutdownTimeoutDuration()); err != nil {
		log.Fatal("shutdown failed:", err)
	}

	srv.infra.Logger.Info("underwriter stopped")
}
