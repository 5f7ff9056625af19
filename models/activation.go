package models

// Activation 디바이스 좌석 점유 정보 (license_id, hwid 단위로 유일)
type Activation struct {
	LicenseID   string `json:"license_id" db:"license_id"`
	HWID        string `json:"hwid" db:"hwid"`
	ActivatedAt string `json:"activated_at" db:"activated_at"`
}

// ActivateRequest 라이선스 활성화 요청
type ActivateRequest struct {
	Email      string `json:"email" validate:"required,email"`
	LicenseKey string `json:"license_key" validate:"required"`
	HWID       string `json:"hwid" validate:"required,max=191"`
}

// VerifyRequest 세션 토큰 검증 요청. hwid가 비어 있으면 토큰의 hwid와 불일치로 처리됩니다.
type VerifyRequest struct {
	Token string `json:"token"`
	HWID  string `json:"hwid" validate:"max=191"`
}

// DeactivateRequest 디바이스 비활성화 요청. 토큰 서명만 통과하면 hwid 유무와 관계없이 성공합니다.
type DeactivateRequest struct {
	Token string `json:"token"`
	HWID  string `json:"hwid" validate:"max=191"`
}
