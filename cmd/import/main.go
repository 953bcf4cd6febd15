package main

import (
	"context"
	"flag"
	"log"

	"github.com/paradisefm/facilities-api/internal/repository"
	"github.com/paradisefm/facilities-api/internal/service"
	"github.com/paradisefm/facilities-api/pkg/config"
	"github.com/paradisefm/facilities-api/pkg/database"
	"github.com/paradisefm/facilities-api/pkg/logger"
)

func main() {
	var (
		locationsFile = flag.String("locations", "", "YAML file with locations")
		assetsFile    = flag.String("assets", "", "YAML file with assets")
		requestsFile  = flag.String("requests", "", "YAML file with repair requests")
		accountsFile  = flag.String("accounts", "", "YAML file with user accounts")
		dryRun        = flag.Bool("dry-run", false, "validate without writing")
	)
	flag.Parse()

	if *locationsFile == "" && *assetsFile == "" && *requestsFile == "" && *accountsFile == "" {
		flag.Usage()
		log.Fatal("nothing to import: pass at least one file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	importer := service.NewImportService(
		repository.NewLocationRepository(db),
		repository.NewCategoryRepository(db),
		repository.NewAssetRepository(db),
		repository.NewRequestRepository(db),
		repository.NewUserRepository(db),
		*dryRun,
		logr,
	)

	ctx := context.Background()
	sugar := logr.Sugar()

	if *locationsFile != "" {
		stats, err := importer.ImportLocations(ctx, *locationsFile)
		if err != nil {
			sugar.Fatalw("location import failed", "file", *locationsFile, "error", err)
		}
		sugar.Infow("locations imported", "file", *locationsFile, "stats", stats.String())
	}

	if *assetsFile != "" {
		stats, err := importer.ImportAssets(ctx, *assetsFile)
		if err != nil {
			sugar.Fatalw("asset import failed", "file", *assetsFile, "error", err)
		}
		sugar.Infow("assets imported", "file", *assetsFile, "stats", stats.String())
	}

	if *requestsFile != "" {
		stats, err := importer.ImportRequests(ctx, *requestsFile)
		if err != nil {
			sugar.Fatalw("request import failed", "file", *requestsFile, "error", err)
		}
		sugar.Infow("requests imported", "file", *requestsFile, "stats", stats.String())
	}

	if *accountsFile != "" {
		stats, err := importer.ImportAccounts(ctx, *accountsFile)
		if err != nil {
			sugar.Fatalw("account import failed", "file", *accountsFile, "error", err)
		}
		sugar.Infow("accounts imported", "file", *accountsFile, "stats", stats.String())
	}

	if *dryRun {
		sugar.Infow("dry run complete, nothing was written")
	}
}
