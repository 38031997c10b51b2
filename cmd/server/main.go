package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/config"
	httpserver "github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/interfaces/http"
	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/report"
	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/repository"
	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/service"
	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/pkg/database"
	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/pkg/utils"
)

func main() {
	// Local development secrets, ignored when absent
	_ = gotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting approval workflow engine",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.Run(); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	templateRepo := repository.NewTemplateRepository(db.DB, logger)
	requestRepo := repository.NewRequestRepository(db.DB, logger)
	historyRepo := repository.NewHistoryRepository(db.DB, logger)
	delegationRepo := repository.NewDelegationRepository(db.DB, logger)

	catalog := service.NewCatalogService(templateRepo, requestRepo, logger)
	engine := service.NewEngine(db, templateRepo, requestRepo, historyRepo, delegationRepo, logger)
	queries := service.NewQueryService(requestRepo, historyRepo, logger)
	delegations := service.NewDelegationService(delegationRepo, logger)
	exporter := report.NewExporter(logger)

	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		JWTSecret:    cfg.Auth.JWTSecret,
	}, catalog, engine, queries, delegations, exporter, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}
