package models

import "github.com/golang-jwt/jwt/v5"

// SessionIdentity 세션 토큰에 담기는 신원 정보
type SessionIdentity struct {
	LicenseID  string `json:"license_id"`
	LicenseKey string `json:"license_key"`
	Email      string `json:"email"`
	HWID       string `json:"hwid"`
}

// SessionClaims 디바이스 바인딩 세션 토큰 클레임
type SessionClaims struct {
	SessionIdentity
	jwt.RegisteredClaims
}
