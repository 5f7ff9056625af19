package services

import (
	"context"
	"errors"

	"seatlicense/database"
	"seatlicense/models"
)

// RevocationChecker는 검증 시점의 라이선스 상태를 확인합니다.
type RevocationChecker interface {
	CheckActive(ctx context.Context, licenseID string) error
}

type licenseStatusCheck struct {
	db    *database.DB
	store LicenseStore
}

// NewRevocationChecker는 저장소 기반 RevocationChecker를 생성합니다.
// 상태를 캐시하지 않으므로 관리자 폐기는 다음 verify 호출에 바로 반영됩니다.
func NewRevocationChecker(db *database.DB) RevocationChecker {
	return &licenseStatusCheck{db: db}
}

// CheckActive 조회는 저장소의 트랜잭션 제한 시간으로 묶입니다.
func (c *licenseStatusCheck) CheckActive(ctx context.Context, licenseID string) error {
	ctx, cancel := context.WithTimeout(ctx, c.db.TxTimeout())
	defer cancel()

	status, err := c.store.Status(ctx, c.db, licenseID)
	if errors.Is(err, ErrLicenseNotFound) {
		return ErrRevoked
	}
	if err != nil {
		return classifyStoreError(err)
	}

	switch status {
	case models.LicenseStatusActive:
		return nil
	case models.LicenseStatusRevoked:
		return ErrRevoked
	default:
		// 알 수 없는 상태는 active가 아니므로 폐기와 동일하게 취급
		return ErrRevoked
	}
}
