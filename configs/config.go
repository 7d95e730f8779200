package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds the application configuration
type Config struct {
	Port          string
	Environment   string
	APIKey        string
	AdminUsername string
	AdminPassword string

	// 価格予測パイプライン
	DatasetPath    string // 学習用リファレンスデータ (CSV / XLSX)
	ModelPath      string // 学習済みモデルの保存先
	DatabasePath   string // 予測履歴・出品情報の SQLite ファイル
	StrictEncoding bool   // 未知のカテゴリ値を 0 に丸めず拒否する
	ForestMaxDepth int    // 0 = 深さ制限なし
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		APIKey:         getEnv("API_KEY", ""),
		AdminUsername:  getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:  getEnv("ADMIN_PASSWORD", ""),
		DatasetPath:    getEnv("DATASET_PATH", "data/cleaned_car.csv"),
		ModelPath:      getEnv("MODEL_PATH", "data/car_price_model.msgpack"),
		DatabasePath:   getEnv("DATABASE_PATH", "data/car_market.db"),
		StrictEncoding: getEnvBool("STRICT_ENCODING", false),
		ForestMaxDepth: getEnvInt("FOREST_MAX_DEPTH", 0),
	}
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return defaultValue
	}
	return n
}
