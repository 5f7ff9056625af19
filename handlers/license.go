package handlers

import (
	"errors"
	"net/http"
	"strings"

	"seatlicense/logger"
	"seatlicense/metrics"
	"seatlicense/middleware"
	"seatlicense/models"
	"seatlicense/services"
)

// LicenseHandler 클라이언트 라이선스 API (activate, verify, deactivate)
type LicenseHandler struct {
	activation *services.ActivationService
	tokens     *services.TokenService
	metrics    *metrics.Metrics
}

// failure 서비스 에러에 대응하는 HTTP 응답
type failure struct {
	status int
	msg    string
	label  string
}

// classify 서비스 에러를 HTTP 상태/메시지로 변환
func classify(err error) failure {
	switch {
	case errors.Is(err, services.ErrInvalidToken):
		return failure{http.StatusUnauthorized, "invalid token", "invalid_token"}
	case errors.Is(err, services.ErrMissingFields):
		return failure{http.StatusBadRequest, "missing fields", "missing_fields"}
	case errors.Is(err, services.ErrInvalidLicense):
		return failure{http.StatusBadRequest, "invalid license", "invalid_license"}
	case errors.Is(err, services.ErrEmailMismatch):
		return failure{http.StatusBadRequest, "email mismatch", "email_mismatch"}
	case errors.Is(err, services.ErrHWIDMismatch):
		return failure{http.StatusBadRequest, "hwid mismatch", "hwid_mismatch"}
	case errors.Is(err, services.ErrDeviceLimitReached):
		return failure{http.StatusForbidden, "device limit reached", "device_limit"}
	case errors.Is(err, services.ErrRevoked):
		return failure{http.StatusForbidden, "revoked", "revoked"}
	case services.IsRetryable(err):
		return failure{http.StatusServiceUnavailable, "temporarily unavailable, please retry", "retryable"}
	default:
		return failure{http.StatusInternalServerError, "server error", "error"}
	}
}

func (h *LicenseHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) failure {
	f := classify(err)
	fields := map[string]interface{}{
		"request_id": middleware.RequestID(r.Context()),
		"op":         op,
		"status":     f.status,
		"error":      err.Error(),
	}
	if f.status >= http.StatusInternalServerError {
		logger.WithFields(fields).Error("License request failed")
	} else {
		logger.WithFields(fields).Debug("License request rejected")
	}
	writeError(w, f.status, f.msg)
	return f
}

// Activate 디바이스 활성화
// @Summary 라이선스 활성화
// @Description 라이선스 키로 디바이스 좌석을 점유하고 세션 토큰을 발급합니다. 이미 활성화된 디바이스는 좌석을 추가로 쓰지 않습니다.
// @Tags 클라이언트 - 라이선스
// @Accept json
// @Produce json
// @Param request body models.ActivateRequest true "활성화 정보"
// @Success 200 {object} models.APIResponse "활성화 성공 (token, max_devices)"
// @Failure 400 {object} models.APIResponse "필수 값 누락, 잘못된 라이선스, 이메일 불일치"
// @Failure 403 {object} models.APIResponse "기기 수 초과"
// @Failure 429 {object} models.APIResponse "요청 한도 초과"
// @Failure 503 {object} models.APIResponse "동시 요청 충돌 (재시도 가능)"
// @Failure 500 {object} models.APIResponse "서버 에러"
// @Router /activate [post]
func (h *LicenseHandler) Activate(w http.ResponseWriter, r *http.Request) {
	var req models.ActivateRequest
	if !decodeJSON(w, r, &req) {
		h.metrics.Activation("bad_request")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.LicenseKey = strings.TrimSpace(req.LicenseKey)
	req.HWID = strings.TrimSpace(req.HWID)

	if err := validate.Struct(req); err != nil {
		h.metrics.Activation("bad_request")
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	result, err := h.activation.Activate(r.Context(), services.ActivateInput{
		Email:      req.Email,
		LicenseKey: req.LicenseKey,
		HWID:       req.HWID,
	})
	if err != nil {
		h.metrics.Activation(h.fail(w, r, "activate", err).label)
		return
	}

	if result.Reactivated {
		h.metrics.Activation("reactivated")
	} else {
		h.metrics.Activation("ok")
	}
	writeJSON(w, http.StatusOK, models.TokenResponse(result.Token, result.MaxDevices))
}

// Verify 세션 토큰 검증 및 갱신
// @Summary 세션 토큰 검증
// @Description 토큰 서명, 디바이스 바인딩, 라이선스 상태를 확인하고 만료 기간이 갱신된 토큰을 반환합니다.
// @Tags 클라이언트 - 라이선스
// @Accept json
// @Produce json
// @Param request body models.VerifyRequest true "토큰과 디바이스 ID"
// @Success 200 {object} models.APIResponse "검증 성공 (갱신된 token)"
// @Failure 400 {object} models.APIResponse "디바이스 불일치"
// @Failure 401 {object} models.APIResponse "유효하지 않거나 만료된 토큰"
// @Failure 403 {object} models.APIResponse "폐기된 라이선스"
// @Failure 500 {object} models.APIResponse "서버 에러"
// @Router /verify [post]
func (h *LicenseHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyRequest
	if !decodeJSON(w, r, &req) {
		h.metrics.Verification("bad_request")
		return
	}
	req.Token = strings.TrimSpace(req.Token)
	req.HWID = strings.TrimSpace(req.HWID)

	if req.Token == "" {
		h.metrics.Verification(h.fail(w, r, "verify", services.ErrInvalidToken).label)
		return
	}
	if err := validate.Struct(req); err != nil {
		h.metrics.Verification("bad_request")
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	renewed, err := h.tokens.Verify(r.Context(), req.Token, req.HWID)
	if err != nil {
		h.metrics.Verification(h.fail(w, r, "verify", err).label)
		return
	}

	h.metrics.Verification("ok")
	writeJSON(w, http.StatusOK, models.APIResponse{OK: true, Token: renewed})
}

// Deactivate 디바이스 비활성화
// @Summary 디바이스 비활성화
// @Description 토큰의 라이선스에서 해당 디바이스의 좌석을 해제합니다. 이미 해제된 좌석도 성공으로 처리합니다.
// @Tags 클라이언트 - 라이선스
// @Accept json
// @Produce json
// @Param request body models.DeactivateRequest true "토큰과 디바이스 ID"
// @Success 200 {object} models.APIResponse "해제 성공"
// @Failure 400 {object} models.APIResponse "디바이스 불일치 (strict 모드)"
// @Failure 401 {object} models.APIResponse "유효하지 않은 토큰"
// @Failure 500 {object} models.APIResponse "서버 에러"
// @Router /deactivate [post]
func (h *LicenseHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	var req models.DeactivateRequest
	if !decodeJSON(w, r, &req) {
		h.metrics.Deactivation("bad_request")
		return
	}
	req.Token = strings.TrimSpace(req.Token)
	req.HWID = strings.TrimSpace(req.HWID)

	if req.Token == "" {
		h.metrics.Deactivation(h.fail(w, r, "deactivate", services.ErrInvalidToken).label)
		return
	}
	if err := validate.Struct(req); err != nil {
		h.metrics.Deactivation("bad_request")
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	if err := h.activation.Deactivate(r.Context(), req.Token, req.HWID); err != nil {
		h.metrics.Deactivation(h.fail(w, r, "deactivate", err).label)
		return
	}

	h.metrics.Deactivation("ok")
	writeJSON(w, http.StatusOK, models.SuccessResponse())
}
