package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up

	"goldCloserBot/config"
	"goldCloserBot/internal/adapters/binanceclient"
	"goldCloserBot/internal/adapters/logger"
	"goldCloserBot/internal/adapters/sqlite"
	"goldCloserBot/internal/app"
	"goldCloserBot/internal/closing"
	"goldCloserBot/internal/health"
	"goldCloserBot/internal/history"
	"goldCloserBot/internal/snapshot"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.New(logger.Config{Level: logger.ParseLevel(cfg.LogLevel)})
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel})

	// 3. Load Engine Policy
	policy, err := config.LoadPolicy(cfg.PolicyPath)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to load engine policy")
		log.Fatalf("FATAL: Failed to load engine policy: %v", err)
	}
	engineCfg, err := policy.EngineConfig()
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Invalid engine policy")
		log.Fatalf("FATAL: Invalid engine policy: %v", err)
	}

	// 4. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize database repository")
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err) // Also log to stderr
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing database repository")
		}
	}()
	appLogger.Info(context.Background(), "Database repository initialized")

	// 5. Initialize Exchange Client (Binance Adapter)
	binanceClient, err := binanceclient.New(binanceclient.Config{
		APIKey:               cfg.APIKey,
		SecretKey:            cfg.SecretKey,
		UseTestnet:           cfg.IsTestnet,
		Logger:               appLogger,
		ReconnectDelay:       cfg.ReconnectDelay,
		MaxReconnectAttempts: cfg.MaxReconnectAttempts,
		ContractMultiplier:   cfg.ContractMultiplier,
		CommissionPerLot:     cfg.CommissionPerLot,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize Binance client")
		log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
	}
	if err := binanceClient.SetServerTime(context.Background()); err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to synchronize server time")
		log.Fatalf("FATAL: Failed to synchronize server time: %v", err)
	}
	if err := binanceClient.EnsureHedgeMode(context.Background()); err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to enable hedge mode")
		log.Fatalf("FATAL: Failed to enable hedge mode: %v", err)
	}
	appLogger.Info(context.Background(), "Binance client initialized")

	// 6. Initialize Core Components
	builder, err := snapshot.NewBuilder(snapshot.Config{
		ContractMultiplier: cfg.ContractMultiplier,
		CommissionPerLot:   cfg.CommissionPerLot,
	}, appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize snapshot builder")
		log.Fatalf("FATAL: Failed to initialize snapshot builder: %v", err)
	}
	classifier, err := health.New(policy.HealthConfig())
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize health classifier")
		log.Fatalf("FATAL: Failed to initialize health classifier: %v", err)
	}
	engine, err := closing.New(engineCfg, appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize combination engine")
		log.Fatalf("FATAL: Failed to initialize combination engine: %v", err)
	}
	gate, err := closing.NewGate(appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize safety gate")
		log.Fatalf("FATAL: Failed to initialize safety gate: %v", err)
	}
	tracker := history.NewTracker(cfg.HistoryWindow)
	appLogger.Info(context.Background(), "Combination engine initialized")

	// 7. Initialize Application Service
	closerService, err := app.NewCloserService(
		cfg,
		appLogger,
		binanceClient, // Pass the concrete implementation, service expects the interface
		binanceClient, // Pass the concrete implementation, service expects the interface
		repo,          // Pass the concrete implementation, service expects the interface
		builder,
		classifier,
		engine,
		gate,
		tracker,
	)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize closer service")
		log.Fatalf("FATAL: Failed to initialize closer service: %v", err)
	}
	appLogger.Info(context.Background(), "Closer service initialized")

	// 8. Start the Service
	// Use context.Background() as the base context for the application run
	if err := closerService.Start(context.Background()); err != nil {
		appLogger.Error(context.Background(), err, "Closer service exited with error")
		log.Fatalf("FATAL: Closer service exited with error: %v", err)
	}

	appLogger.Info(context.Background(), "Application finished gracefully.")
}
