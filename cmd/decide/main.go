// Command decide runs the credit decision pipeline for one stored application
// and prints the result as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/JaimeStill/underwriter/internal/applications"
	"github.com/JaimeStill/underwriter/internal/config"
	"github.com/JaimeStill/underwriter/internal/infrastructure"
	"github.com/JaimeStill/underwriter/internal/notify"
	"github.com/JaimeStill/underwriter/workflow"
)

func main() {
	var (
		id         = flag.String("id", "", "Application id to decide")
		configPath = flag.String("config", config.BaseConfigFile, "Base configuration file")
		notifyRuns = flag.Bool("notify", false, "Publish progress events to Redis")
	)
	flag.Parse()

	if *id == "" {
		fmt.Fprintln(os.Stderr, "usage: decide -id <application-uuid> [-config config.toml] [-notify]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	appID, err := uuid.Parse(*id)
	if err != nil {
		log.Fatalf("invalid application id %q: %v", *id, err)
	}

	_ = godotenv.Load()

	cfg, err := config.LoadFrom(*configPath)
	if err != nil {
		log.Fatal("config load failed:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	infra, err := infrastructure.New(ctx, cfg)
	if err != nil {
		log.Fatal("infrastructure init failed:", err)
	}
	if err := infra.Database.Start(infra.Lifecycle); err != nil {
		log.Fatal("database start failed:", err)
	}

	rt := &workflow.Runtime{
		LLM:      infra.LLM,
		Store:    applications.New(infra.Database.Connection(), infra.Logger, cfg.API.Pagination),
		Pipeline: cfg.Pipeline,
		Logger:   infra.Logger.With("workflow", "decide"),
	}

	if *notifyRuns {
		if err := infra.Broker.Start(infra.Lifecycle); err != nil {
			log.Fatal("broker start failed:", err)
		}
		rt.Notifier = notify.New(infra.Broker.Client(), infra.Logger)
	}

	infra.Lifecycle.WaitForStartup()

	result, runErr := workflow.Execute(ctx, rt, appID)

	if err := infra.Lifecycle.Shutdown(cfg.ShutdownTimeoutDuration()); err != nil {
		infra.Logger.Warn("shutdown incomplete", "error", err)
	}

	if runErr != nil {
		log.Fatalf("decision failed: %v", runErr)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		log.Fatal("encode result:", err)
	}

}
