package models

import "strings"

// LicenseStatus 라이선스 상태
type LicenseStatus string

// LicenseStatus 상태 상수
const (
	LicenseStatusActive  LicenseStatus = "active"
	LicenseStatusRevoked LicenseStatus = "revoked"
)

// IsKnown 정의된 상태값인지 확인
func (s LicenseStatus) IsKnown() bool {
	switch s {
	case LicenseStatusActive, LicenseStatusRevoked:
		return true
	}
	return false
}

// ParseLicenseStatus 문자열을 상태값으로 변환 (정의되지 않은 값은 false)
func ParseLicenseStatus(v string) (LicenseStatus, bool) {
	s := LicenseStatus(strings.ToLower(strings.TrimSpace(v)))
	return s, s.IsKnown()
}

// License 라이선스 정보
type License struct {
	ID          string        `json:"id" db:"id"`
	LicenseKey  string        `json:"license_key" db:"license_key"`
	BuyerEmail  string        `json:"buyer_email" db:"buyer_email"`
	MaxDevices  int           `json:"max_devices" db:"max_devices"`
	Status      LicenseStatus `json:"status" db:"status"`
	ExternalRef *string       `json:"ext_ref,omitempty" db:"ext_ref"`
	CreatedAt   string        `json:"created_at" db:"created_at"`
	UpdatedAt   string        `json:"updated_at" db:"updated_at"`
}

// IsActive 활성화 여부 확인
func (l *License) IsActive() bool {
	return l.Status == LicenseStatusActive
}

// NormalizeEmail 구매자 이메일 정규화 (비교는 대소문자 구분 없음)
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeLicenseKey 클라이언트가 전달한 라이선스 키 정규화
func NormalizeLicenseKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}
