package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"sync/atomic"

	config "car-market-api/configs"

	"github.com/gin-gonic/gin"
)

// AdminHandler は管理者向け操作とヘルスチェックのハンドラです。
type AdminHandler struct {
	adminUsername string
	adminPassword string
	maintenance   atomic.Bool
	modelReady    func() bool
}

// NewAdminHandler は新しいAdminHandlerを生成します。
// modelReady は学習済みモデルが読み込まれているかを返します。
func NewAdminHandler(cfg *config.Config, modelReady func() bool) *AdminHandler {
	return &AdminHandler{
		adminUsername: cfg.AdminUsername,
		adminPassword: cfg.AdminPassword,
		modelReady:    modelReady,
	}
}

// AdminCredentials は管理者認証のためのリクエストボディです。
type AdminCredentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AdminHandler) authorize(c *gin.Context) bool {
	var input AdminCredentials
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Username and password are required"})
		return false
	}
	// パスワード未設定のときは常に拒否
	if h.adminPassword == "" ||
		subtle.ConstantTimeCompare([]byte(input.Username), []byte(h.adminUsername)) != 1 ||
		subtle.ConstantTimeCompare([]byte(input.Password), []byte(h.adminPassword)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid credentials"})
		return false
	}
	return true
}

// StartMaintenance はメンテナンスモードを開始します。
func (h *AdminHandler) StartMaintenance(c *gin.Context) {
	if !h.authorize(c) {
		return
	}
	h.maintenance.Store(true)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Maintenance mode started"})
}

// StopMaintenance はメンテナンスモードを停止します。
func (h *AdminHandler) StopMaintenance(c *gin.Context) {
	if !h.authorize(c) {
		return
	}
	h.maintenance.Store(false)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Maintenance mode stopped"})
}

// GetHealthStatus は現在のサーバーの状態を返します。
func (h *AdminHandler) GetHealthStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"isMaintenanceMode": h.maintenance.Load(),
		"modelReady":        h.modelReady(),
	})
}

// HealthCheck はロードバランサー等からのヘルスチェックに応答します。
func (h *AdminHandler) HealthCheck(c *gin.Context) {
	switch {
	case h.maintenance.Load():
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "message": "Server is in maintenance mode"})
	case !h.modelReady():
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "message": "Model is not loaded"})
	default:
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// MaintenanceGuard rejects API calls while maintenance mode is on; admin
// routes stay reachable so maintenance can be stopped.
func (h *AdminHandler) MaintenanceGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.maintenance.Load() && !strings.HasPrefix(c.Request.URL.Path, "/api/v1/admin") {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Server is in maintenance mode"})
			return
		}
		c.Next()
	}
}
