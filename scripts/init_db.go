//go:build ignore

package main

import (
	"flag"
	"log"

	config "car-market-api/configs"
	"car-market-api/pkg/services"

	"github.com/joho/godotenv"
)

func main() {
	log.Println("🚀 データベースの初期化を開始します...")

	// .envファイルを読み込み
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.LoadConfig()
	reset := flag.Bool("reset", false, "既存のテーブルを削除して作り直す")
	flag.StringVar(&cfg.DatabasePath, "db", cfg.DatabasePath, "SQLite ファイルのパス")
	flag.Parse()

	db, err := services.OpenDatabase(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("❌ データベースを開けません: %v", err)
	}
	defer db.Close()

	if *reset {
		if err := db.Reset(); err != nil {
			log.Fatalf("❌ テーブルの再作成に失敗しました: %v", err)
		}
		log.Println("🗑️ 既存のテーブルを削除して再作成しました")
	}

	log.Printf("✅ データベースの準備が完了しました: %s", cfg.DatabasePath)
}
