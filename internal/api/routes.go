package api

import (
	"net/http"

	"github.com/feveal/Tablet-VINSA-1060-Plus-Linux-Driver/internal/features"
)

// ルートの設定
func (s *Server) setupRoutes(router *http.ServeMux) {
	// 設定関連のエンドポイント
	router.HandleFunc("GET /api/config", s.handleGetConfig)

	// デバイス関連のエンドポイント
	router.HandleFunc("GET /api/devices", s.handleGetDevices)

	// サービス関連のエンドポイント
	router.HandleFunc("POST /api/service/start", s.handleStartService)
	router.HandleFunc("POST /api/service/stop", s.handleStopService)
	router.HandleFunc("GET /api/service/status", s.handleServiceStatus)

	// ヘルスチェック用エンドポイント
	router.HandleFunc("GET /api/health", s.handleHealthCheck)
}

// 設定取得ハンドラ
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.GetConfig())
}

// デバイス一覧取得ハンドラ
func (s *Server) handleGetDevices(w http.ResponseWriter, r *http.Request) {
	cfg := s.GetConfig()
	devices, err := features.ScanTablets(cfg.Device.VendorID, cfg.Device.ProductID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "デバイスのスキャンに失敗しました")
		return
	}
	writeJSON(w, http.StatusOK, devices)
}

// サービス開始ハンドラ
func (s *Server) handleStartService(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Start(); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

// サービス停止ハンドラ
func (s *Server) handleStopService(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Stop(); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

// サービス状態取得ハンドラ
func (s *Server) handleServiceStatus(w http.ResponseWriter, r *http.Request) {
	running, mouseMode, scale := s.service.Status()

	mode := "tablet"
	if mouseMode {
		mode = "mouse"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"running":          running,
		"mode":             mode,
		"mouse_area_scale": scale,
	})
}

// ヘルスチェックハンドラ
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
