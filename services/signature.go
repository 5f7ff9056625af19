package services

import "seatlicense/utils"

// SignatureVerifier는 웹훅 원문 바이트에 대한 HMAC-SHA512 서명을 확인합니다.
// 본문은 이 검사를 통과하기 전까지 파싱하지 않아야 합니다.
type SignatureVerifier struct {
	secret []byte
}

// NewSignatureVerifier는 공유 비밀로 SignatureVerifier를 생성합니다.
func NewSignatureVerifier(secret string) *SignatureVerifier {
	return &SignatureVerifier{secret: []byte(secret)}
}

// Verify 서명이 맞지 않으면 ErrInvalidSignature
func (v *SignatureVerifier) Verify(body []byte, signature string) error {
	if !utils.VerifyWebhookSignature(v.secret, body, signature) {
		return ErrInvalidSignature
	}
	return nil
}
