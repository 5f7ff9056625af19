package handlers

import (
	"context"
	"net/http"
	"time"

	"seatlicense/database"
	"seatlicense/logger"
	"seatlicense/models"
)

// HealthHandler 루트/헬스체크
type HealthHandler struct {
	db      *database.DB
	product string
}

// Home 루트 핸들러
// @Summary 서비스 정보
// @Tags 시스템
// @Produce json
// @Success 200 {object} models.APIResponse
// @Router / [get]
func (h *HealthHandler) Home(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.APIResponse{OK: true, Product: h.product})
}

// Health 헬스체크 핸들러 (저장소 연결 확인)
// @Summary 헬스체크
// @Tags 시스템
// @Produce json
// @Success 200 {object} models.APIResponse
// @Failure 503 {object} models.APIResponse "저장소 연결 불가"
// @Router /healthz [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			logger.Error("Health check failed: %v", err)
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, models.APIResponse{OK: true, Product: h.product})
}
