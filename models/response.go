package models

// APIResponse 클라이언트 API 응답 구조 ({ok, msg, token, max_devices})
type APIResponse struct {
	OK         bool   `json:"ok"`
	Msg        string `json:"msg,omitempty"`
	Token      string `json:"token,omitempty"`
	MaxDevices int    `json:"max_devices,omitempty"`
	Product    string `json:"product,omitempty"`
}

// SuccessResponse 성공 응답 생성
func SuccessResponse() APIResponse {
	return APIResponse{OK: true}
}

// TokenResponse 토큰 발급/갱신 응답 생성
func TokenResponse(token string, maxDevices int) APIResponse {
	return APIResponse{OK: true, Token: token, MaxDevices: maxDevices}
}

// ErrorResponse 에러 응답 생성
func ErrorResponse(msg string) APIResponse {
	return APIResponse{OK: false, Msg: msg}
}
