// Command integrity-check loads every collection from the backend and reports
// references whose parent no longer exists. It exits 1 when orphans are found.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/diewo77/backoffice/internal/app"
	"github.com/diewo77/backoffice/internal/config"
	"github.com/diewo77/backoffice/internal/logging"
)

var baseURLFlag = flag.String("api", "", "Backend base URL (overrides API_BASE_URL)")

func main() {
	flag.Parse()
	_ = godotenv.Load()

	cfg := config.Load()
	if *baseURLFlag != "" {
		cfg.API.BaseURL = *baseURLFlag
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	a, err := app.NewFromConfig(cfg, logger, nil)
	if err != nil {
		logger.Fatal("failed to build client", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.API.RequestTimeout()*2)
	defer cancel()
	if err := a.LoadAll(ctx); err != nil {
		logger.Fatal("failed to load collections", zap.Error(err))
	}

	orphans := a.Integrity.Scan()
	for _, o := range orphans {
		fmt.Println(o.Error())
	}
	if len(orphans) > 0 {
		fmt.Fprintf(os.Stderr, "%d orphaned reference(s)\n", len(orphans))
		os.Exit(1)
	}
	fmt.Println("no orphaned references")
}
