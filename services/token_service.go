package services

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"seatlicense/models"
)

// DefaultTokenTTL 세션 토큰 기본 유효 기간
const DefaultTokenTTL = 30 * 24 * time.Hour

var signingMethod = jwt.SigningMethodRS256

// TokenService는 디바이스 바인딩 세션 토큰을 서명/검증합니다.
type TokenService struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	ttl        time.Duration
	revocation RevocationChecker
	now        func() time.Time
}

// TokenOption TokenService 옵션
type TokenOption func(*TokenService)

// WithClock 테스트용 시계 주입
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

// WithPublicKey 검증용 공개키 지정 (기본값: 개인키에서 유도)
func WithPublicKey(pub *rsa.PublicKey) TokenOption {
	return func(s *TokenService) { s.publicKey = pub }
}

// NewTokenService는 RS256 TokenService를 생성합니다.
func NewTokenService(privateKey *rsa.PrivateKey, ttl time.Duration, revocation RevocationChecker, opts ...TokenOption) (*TokenService, error) {
	if privateKey == nil {
		return nil, errors.New("token signing key is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	s := &TokenService{
		privateKey: privateKey,
		publicKey:  &privateKey.PublicKey,
		ttl:        ttl,
		revocation: revocation,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL 토큰 유효 기간
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Sign 신원 클레임으로 새 토큰 발급 (만료: 서명 시점 + TTL)
func (s *TokenService) Sign(identity models.SessionIdentity) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := &models.SessionClaims{
		SessionIdentity: identity,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(signingMethod, claims).SignedString(s.privateKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, expiresAt, nil
}

// Parse 서명/알고리즘/만료를 검증하고 클레임을 반환합니다.
// 디바이스 바인딩과 폐기 여부는 확인하지 않습니다.
func (s *TokenService) Parse(tokenString string) (*models.SessionClaims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &models.SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return s.publicKey, nil
		},
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.LicenseID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Verify 토큰을 검증하고 같은 클레임으로 만료 기간을 새로 채운 토큰을 반환합니다.
func (s *TokenService) Verify(ctx context.Context, tokenString, hwid string) (string, error) {
	claims, err := s.Parse(tokenString)
	if err != nil {
		return "", err
	}

	if claims.HWID != strings.TrimSpace(hwid) {
		return "", ErrHWIDMismatch
	}

	if s.revocation != nil {
		if err := s.revocation.CheckActive(ctx, claims.LicenseID); err != nil {
			return "", err
		}
	}

	renewed, _, err := s.Sign(claims.SessionIdentity)
	if err != nil {
		return "", err
	}
	return renewed, nil
}
