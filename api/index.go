package handler

import (
	"log"
	"net/http"
	"sync"

	config "car-market-api/configs"
	"car-market-api/pkg/app"

	"github.com/gin-gonic/gin"
)

var (
	engine  *gin.Engine
	initErr error
	once    sync.Once
)

// setupApp はGinアプリケーションを初期化します。
// サーバーレス環境では、リクエストごとに初期化が走らないようsync.Onceで一度だけ実行します。
func setupApp() (*gin.Engine, error) {
	once.Do(func() {
		// 環境変数はデプロイ先の設定から読み込まれるため、ここではgodotenvを呼び出しません。
		cfg := config.LoadConfig()
		gin.SetMode(gin.ReleaseMode)

		a, err := app.New(cfg)
		if err != nil {
			initErr = err
			log.Printf("❌ [setupApp] 初期化に失敗しました: %v", err)
			return
		}
		engine = a.Engine
		log.Printf("🟢 [setupApp] Initialized (trees=%d)", len(a.Model.Trees))
	})
	return engine, initErr
}

// Handler はサーバーレス関数のエントリーポイントです。
func Handler(w http.ResponseWriter, r *http.Request) {
	e, err := setupApp()
	if err != nil {
		http.Error(w, `{"success":false,"error":"service unavailable"}`, http.StatusServiceUnavailable)
		return
	}
	e.ServeHTTP(w, r)
}
