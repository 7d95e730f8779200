package app

import (
	"fmt"
	"log"

	config "car-market-api/configs"
	"car-market-api/pkg/handlers"
	"car-market-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// App 起動済みのアプリケーション。モデルとカタログは起動時に一度だけ読み込む。
type App struct {
	Config     *config.Config
	Engine     *gin.Engine
	Catalog    *services.CatalogService
	Model      *services.RandomForest
	DB         *services.Database
	Monitoring *services.MonitoringService
}

// New loads the reference data, ensures the model exists, opens the database
// and wires every handler. Any failure here is a bootstrap failure.
func New(cfg *config.Config) (*App, error) {
	dataset, err := services.LoadReferenceDataset(cfg.DatasetPath)
	if err != nil {
		return nil, fmt.Errorf("リファレンスデータの読み込みに失敗: %w", err)
	}
	catalog := services.NewCatalogService(dataset)
	log.Printf("✅ [catalog] %d 行, %d ブランドを読み込みました", len(dataset.Rows), len(catalog.Brands()))

	model, err := EnsureModel(cfg)
	if err != nil {
		return nil, err
	}

	db, err := services.OpenDatabase(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	monitoring := services.NewMonitoringService()
	store := services.NewPredictionStore(db)
	prediction := services.NewPredictionService(catalog, model, store,
		services.WithStrictEncoding(cfg.StrictEncoding),
		services.WithMetrics(monitoring),
	)
	listings := services.NewListingService(db, catalog)

	router := &handlers.Router{
		APIKey:     cfg.APIKey,
		Admin:      handlers.NewAdminHandler(cfg, func() bool { return model != nil }),
		Monitoring: handlers.NewMonitoringHandler(monitoring),
		Catalog:    handlers.NewCatalogHandler(catalog),
		Prediction: handlers.NewPredictionHandler(prediction, store, model),
		Listing:    handlers.NewListingHandler(listings),
		Market:     handlers.NewMarketHandler(services.NewMarketStatsService(dataset)),
		Middleware: []gin.HandlerFunc{monitoring.LoggingMiddleware()},
	}

	return &App{
		Config:     cfg,
		Engine:     router.Engine(),
		Catalog:    catalog,
		Model:      model,
		DB:         db,
		Monitoring: monitoring,
	}, nil
}

// EnsureModel runs the model bootstrap with the configured forest options.
func EnsureModel(cfg *config.Config) (*services.RandomForest, error) {
	opts := services.DefaultForestOptions()
	opts.MaxDepth = cfg.ForestMaxDepth
	model, err := services.NewModelBootstrap(cfg.DatasetPath, opts).EnsureModel(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("モデルの準備に失敗: %w", err)
	}
	return model, nil
}

// Close releases the database.
func (a *App) Close() error {
	return a.DB.Close()
}
