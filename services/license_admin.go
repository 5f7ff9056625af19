package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"seatlicense/database"
	"seatlicense/logger"
	"seatlicense/models"
	"seatlicense/utils"
)

// LicenseAdmin은 라이선스 상태 변경(폐기/복구) 관리 작업을 제공합니다.
type LicenseAdmin struct {
	db          *database.DB
	store       LicenseStore
	activations ActivationStore
	now         func() time.Time
}

// Inventory 저장소 집계
type Inventory struct {
	ByStatus map[string]int
	Devices  int
}

// NewLicenseAdmin은 LicenseAdmin을 생성합니다.
func NewLicenseAdmin(db *database.DB) *LicenseAdmin {
	return &LicenseAdmin{db: db, now: time.Now}
}

// Get 라이선스 키로 조회 (상태 무관)
func (a *LicenseAdmin) Get(ctx context.Context, licenseKey string) (models.License, error) {
	license, err := a.store.FindByKey(ctx, a.db, models.NormalizeLicenseKey(licenseKey))
	if err != nil && !errors.Is(err, ErrLicenseNotFound) {
		return models.License{}, classifyStoreError(err)
	}
	return license, err
}

// SetStatus 라이선스 상태 변경. 이미 발급된 토큰은 다음 verify 호출에서 결과가 바뀝니다.
func (a *LicenseAdmin) SetStatus(ctx context.Context, licenseKey string, status models.LicenseStatus) error {
	if !status.IsKnown() {
		return fmt.Errorf("unknown license status: %q", status)
	}

	ctx, cancel := context.WithTimeout(ctx, a.db.TxTimeout())
	defer cancel()

	key := models.NormalizeLicenseKey(licenseKey)
	err := a.store.SetStatus(ctx, a.db, key, status, utils.FormatDateTimeForDB(a.now()))
	if err != nil {
		if errors.Is(err, ErrLicenseNotFound) {
			return err
		}
		return classifyStoreError(err)
	}

	logger.WithFields(map[string]interface{}{
		"license_key": key,
		"status":      status,
	}).Info("License status changed")
	return nil
}

// Inventory 상태별 라이선스 수와 점유 좌석 수 집계
func (a *LicenseAdmin) Inventory(ctx context.Context) (Inventory, error) {
	ctx, cancel := context.WithTimeout(ctx, a.db.TxTimeout())
	defer cancel()

	byStatus, err := a.store.CountByStatus(ctx, a.db)
	if err != nil {
		return Inventory{}, classifyStoreError(err)
	}
	devices, err := a.activations.CountAll(ctx, a.db)
	if err != nil {
		return Inventory{}, classifyStoreError(err)
	}
	return Inventory{ByStatus: byStatus, Devices: devices}, nil
}
