package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"seatlicense/logger"
	"seatlicense/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// 에러 메시지에 JSON 필드 이름 사용
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// writeJSON 상태 코드와 함께 JSON 응답 작성
func writeJSON(w http.ResponseWriter, status int, body models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.ErrorResponse(msg))
}

// decodeJSON 요청 본문을 디코딩합니다. 크기 초과는 413, 그 외 형식 오류는 400으로 응답하고 false를 반환합니다.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// validationMessage 검증 실패를 클라이언트 메시지로 변환
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return "missing fields"
		}
	}
	return "invalid " + verrs[0].Field()
}
