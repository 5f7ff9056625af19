package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"seatlicense/database"
	"seatlicense/logger"
	"seatlicense/models"
	"seatlicense/utils"
)

// ActivateInput 활성화 입력
type ActivateInput struct {
	Email      string
	LicenseKey string
	HWID       string
}

// ActivateResult 활성화 결과
type ActivateResult struct {
	Token       string
	ExpiresAt   time.Time
	MaxDevices  int
	LicenseID   string
	Reactivated bool
}

// ActivationConfig ActivationService 설정
type ActivationConfig struct {
	// EnforceEmail 요청 이메일과 구매자 이메일 일치 여부 확인
	EnforceEmail bool
	// StrictDeactivation 비활성화 시 토큰의 hwid와 요청 hwid 일치 요구
	StrictDeactivation bool
}

// ActivationService는 좌석 제한 정책을 적용하고 세션 토큰을 발급합니다.
type ActivationService struct {
	db          *database.DB
	licenses    LicenseStore
	activations ActivationStore
	tokens      *TokenService
	cfg         ActivationConfig
	now         func() time.Time
}

// NewActivationService는 ActivationService를 생성합니다.
func NewActivationService(db *database.DB, tokens *TokenService, cfg ActivationConfig) *ActivationService {
	return &ActivationService{db: db, tokens: tokens, cfg: cfg, now: time.Now}
}

// Activate 디바이스 활성화. 좌석 확인과 추가는 라이선스 행 잠금 아래에서 하나의 트랜잭션으로 실행됩니다.
func (s *ActivationService) Activate(ctx context.Context, in ActivateInput) (ActivateResult, error) {
	email := models.NormalizeEmail(in.Email)
	key := models.NormalizeLicenseKey(in.LicenseKey)
	hwid := strings.TrimSpace(in.HWID)
	if email == "" || key == "" || hwid == "" {
		return ActivateResult{}, ErrMissingFields
	}

	var (
		license     models.License
		reactivated bool
	)
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		var err error
		license, err = s.licenses.LockActiveByKey(ctx, tx, key)
		if errors.Is(err, ErrLicenseNotFound) {
			return ErrInvalidLicense
		}
		if err != nil {
			return err
		}

		if s.cfg.EnforceEmail && !strings.EqualFold(email, license.BuyerEmail) {
			return ErrEmailMismatch
		}

		// 이미 좌석을 가진 디바이스는 재활성화 (좌석 수에 영향 없음)
		exists, err := s.activations.Exists(ctx, tx, license.ID, hwid)
		if err != nil {
			return err
		}
		if exists {
			reactivated = true
			return nil
		}

		count, err := s.activations.Count(ctx, tx, license.ID)
		if err != nil {
			return err
		}
		if count >= license.MaxDevices {
			return ErrDeviceLimitReached
		}

		return s.activations.Insert(ctx, tx, models.Activation{
			LicenseID:   license.ID,
			HWID:        hwid,
			ActivatedAt: utils.FormatDateTimeForDB(s.now()),
		})
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidLicense), errors.Is(err, ErrEmailMismatch), errors.Is(err, ErrDeviceLimitReached):
			logger.WithFields(map[string]interface{}{
				"license_key": key,
				"hwid":        hwid,
				"reason":      err.Error(),
			}).Warn("License activation rejected")
			return ActivateResult{}, err
		default:
			return ActivateResult{}, classifyStoreError(err)
		}
	}

	token, expiresAt, err := s.tokens.Sign(models.SessionIdentity{
		LicenseID:  license.ID,
		LicenseKey: license.LicenseKey,
		Email:      license.BuyerEmail,
		HWID:       hwid,
	})
	if err != nil {
		return ActivateResult{}, err
	}

	logger.WithFields(map[string]interface{}{
		"license_id":  license.ID,
		"license_key": license.LicenseKey,
		"hwid":        hwid,
		"reactivated": reactivated,
	}).Info("License activated successfully")

	return ActivateResult{
		Token:       token,
		ExpiresAt:   expiresAt,
		MaxDevices:  license.MaxDevices,
		LicenseID:   license.ID,
		Reactivated: reactivated,
	}, nil
}

// Deactivate 토큰 서명 검증 후 (license_id, hwid) 좌석을 해제합니다.
// 폐기된 라이선스도 좌석을 해제할 수 있도록 폐기 확인은 하지 않으며, 없는 행 삭제도 성공입니다.
func (s *ActivationService) Deactivate(ctx context.Context, token, hwid string) error {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return err
	}

	hwid = strings.TrimSpace(hwid)
	if s.cfg.StrictDeactivation && claims.HWID != hwid {
		return ErrHWIDMismatch
	}

	ctx, cancel := context.WithTimeout(ctx, s.db.TxTimeout())
	defer cancel()

	removed, err := s.activations.Delete(ctx, s.db, claims.LicenseID, hwid)
	if err != nil {
		return classifyStoreError(err)
	}

	logger.WithFields(map[string]interface{}{
		"license_id": claims.LicenseID,
		"hwid":       hwid,
		"removed":    removed,
	}).Info("Device deactivated")
	return nil
}

// Devices 라이선스의 활성 디바이스 목록
func (s *ActivationService) Devices(ctx context.Context, licenseKey string) (models.License, []models.Activation, error) {
	license, err := s.licenses.FindByKey(ctx, s.db, models.NormalizeLicenseKey(licenseKey))
	if err != nil {
		if errors.Is(err, ErrLicenseNotFound) {
			return models.License{}, nil, err
		}
		return models.License{}, nil, classifyStoreError(err)
	}
	activations, err := s.activations.List(ctx, s.db, license.ID)
	if err != nil {
		return models.License{}, nil, classifyStoreError(err)
	}
	return license, activations, nil
}
