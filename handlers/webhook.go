package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"seatlicense/logger"
	"seatlicense/metrics"
	"seatlicense/middleware"
	"seatlicense/models"
	"seatlicense/services"
)

// defaultWebhookBodyBytes 웹훅 본문 기본 크기 제한
const defaultWebhookBodyBytes = 1 << 20

// WebhookHandler 결제 웹훅 처리
type WebhookHandler struct {
	issuer   *services.LicenseIssuer
	verifier *services.SignatureVerifier
	header   string
	metrics  *metrics.Metrics
	maxBody  int64
}

// Handle 결제 이벤트 수신
// @Summary 결제 웹훅 수신
// @Description 서명된 결제 이벤트로 라이선스를 발급합니다. 같은 reference의 중복 전달은 기존 라이선스로 처리됩니다.
// @Tags 웹훅
// @Accept json
// @Produce json
// @Param x-paystack-signature header string true "HMAC-SHA512 hex 서명"
// @Param request body models.PaymentEvent true "결제 이벤트"
// @Success 200 {object} models.APIResponse "처리 완료 (무시된 이벤트 포함)"
// @Failure 401 {object} models.APIResponse "서명 불일치"
// @Failure 500 {object} models.APIResponse "일시적 실패 (재전송 필요)"
// @Router /webhook [post]
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.RequestID(r.Context())

	limit := h.maxBody
	if limit <= 0 {
		limit = defaultWebhookBodyBytes
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		h.metrics.Issuance("rejected")
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		// 본문 수신 실패는 일시적일 수 있으므로 제공자가 재전송하도록 5xx로 응답한다
		logger.WithFields(map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to read webhook body")
		writeError(w, http.StatusInternalServerError, "failed to read body")
		return
	}

	// 서명 확인 전에는 본문을 파싱하지 않는다
	if err := h.verifier.Verify(body, r.Header.Get(h.header)); err != nil {
		h.metrics.Issuance("rejected")
		logger.WithFields(map[string]interface{}{
			"request_id": requestID,
			"ip":         middleware.ClientIP(r),
		}).Warn("Webhook signature rejected")
		writeError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	var event models.PaymentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.metrics.Issuance(string(services.IssueOutcomeIgnored))
		logger.WithFields(map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Ignoring malformed webhook payload")
		writeJSON(w, http.StatusOK, models.SuccessResponse())
		return
	}

	result, err := h.issuer.HandleEvent(r.Context(), event)
	if err != nil {
		h.metrics.Issuance("error")
		logger.WithFields(map[string]interface{}{
			"request_id": requestID,
			"reference":  event.Reference(),
			"retryable":  services.IsRetryable(err),
			"error":      err.Error(),
		}).Error("License issuance failed")
		writeError(w, http.StatusInternalServerError, "issuance failed")
		return
	}

	h.metrics.Issuance(string(result.Outcome))
	if result.Outcome == services.IssueOutcomeIgnored {
		logger.WithFields(map[string]interface{}{
			"request_id": requestID,
			"event":      event.Event,
		}).Debug("Webhook event ignored")
	}
	writeJSON(w, http.StatusOK, models.SuccessResponse())
}
