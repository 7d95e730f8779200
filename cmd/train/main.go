// Command train runs the model bootstrap once, before any server starts.
package main

import (
	"flag"
	"log"

	config "car-market-api/configs"
	"car-market-api/pkg/app"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}
	cfg := config.LoadConfig()

	flag.StringVar(&cfg.DatasetPath, "dataset", cfg.DatasetPath, "reference dataset (CSV or XLSX)")
	flag.StringVar(&cfg.ModelPath, "model", cfg.ModelPath, "model artifact path")
	flag.IntVar(&cfg.ForestMaxDepth, "max-depth", cfg.ForestMaxDepth, "maximum tree depth (0 = unlimited)")
	flag.Parse()

	model, err := app.EnsureModel(cfg)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	log.Printf("✅ モデル準備完了: %s (features=%d trees=%d)", cfg.ModelPath, len(model.FeatureNames), len(model.Trees))
}
