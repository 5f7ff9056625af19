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

// DefaultIssueAttempts 유일성 충돌 시 발급 트랜잭션 재시도 횟수
const DefaultIssueAttempts = 3

// IssueOutcome 발급 처리 결과
type IssueOutcome string

const (
	IssueOutcomeIssued   IssueOutcome = "issued"   // 새 라이선스 생성
	IssueOutcomeResolved IssueOutcome = "resolved" // 중복 전달, 기존 키 반환
	IssueOutcomeIgnored  IssueOutcome = "ignored"  // 발급 대상 아님 (확인 응답만)
)

// IssueResult 발급 결과
type IssueResult struct {
	Outcome    IssueOutcome
	LicenseID  string
	LicenseKey string
	Email      string
	Reference  string
	MaxDevices int
}

// IssuanceNotifier는 커밋 이후 구매자 안내를 큐에 넣습니다. 실패해도 발급은 유지됩니다.
type IssuanceNotifier interface {
	NotifyIssued(result IssueResult) error
}

// IssuerConfig LicenseIssuer 설정
type IssuerConfig struct {
	KeyPrefix    string
	DefaultSeats int
	MaxAttempts  int
}

// LicenseIssuer는 검증된 결제 이벤트로 라이선스를 멱등 발급합니다.
type LicenseIssuer struct {
	db       *database.DB
	store    LicenseStore
	cfg      IssuerConfig
	notifier IssuanceNotifier
	now      func() time.Time
}

// NewLicenseIssuer는 LicenseIssuer를 생성합니다. notifier는 nil일 수 있습니다.
func NewLicenseIssuer(db *database.DB, cfg IssuerConfig, notifier IssuanceNotifier) *LicenseIssuer {
	if cfg.DefaultSeats < 1 {
		cfg.DefaultSeats = 1
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = DefaultIssueAttempts
	}
	return &LicenseIssuer{db: db, cfg: cfg, notifier: notifier, now: time.Now}
}

// HandleEvent 결제 이벤트 처리. charge.success 이외의 이벤트와 필수 값이 빠진 이벤트는
// 재전송 폭주를 막기 위해 에러 없이 무시됩니다.
func (s *LicenseIssuer) HandleEvent(ctx context.Context, event models.PaymentEvent) (IssueResult, error) {
	if !event.IsChargeSuccess() {
		return IssueResult{Outcome: IssueOutcomeIgnored}, nil
	}

	email, ref := event.BuyerEmail(), event.Reference()
	if email == "" || ref == "" {
		logger.WithFields(map[string]interface{}{
			"event":         event.Event,
			"has_email":     email != "",
			"has_reference": ref != "",
		}).Warn("Ignoring charge event with missing fields")
		return IssueResult{Outcome: IssueOutcomeIgnored, Email: email, Reference: ref}, nil
	}

	return s.Issue(ctx, email, ref)
}

// Issue 외부 참조 기준으로 라이선스를 생성하거나 기존 라이선스를 반환합니다.
func (s *LicenseIssuer) Issue(ctx context.Context, email, ref string) (IssueResult, error) {
	var (
		result IssueResult
		err    error
	)

	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		result, err = s.issueOnce(ctx, email, ref)
		if err == nil {
			break
		}
		if !database.IsUniqueViolation(err) && !database.IsSerializationFailure(err) {
			return IssueResult{}, classifyStoreError(err)
		}

		// 동시 전달 경합에서 짐: 롤백됨, 다음 시도에서 승자의 행을 조회한다
		logger.WithFields(map[string]interface{}{
			"reference": ref,
			"attempt":   attempt,
		}).Warn("License issuance conflict, retrying")
	}
	if err != nil {
		return IssueResult{}, fmt.Errorf("%w: issuance for reference %s: %w", ErrConflict, ref, err)
	}

	logger.WithFields(map[string]interface{}{
		"license_id":  result.LicenseID,
		"license_key": result.LicenseKey,
		"reference":   ref,
		"outcome":     result.Outcome,
	}).Info("License issuance processed")

	// 커밋 이후에만 안내 발송을 예약한다
	if result.Outcome == IssueOutcomeIssued && s.notifier != nil {
		if nerr := s.notifier.NotifyIssued(result); nerr != nil {
			logger.WithFields(map[string]interface{}{
				"license_id": result.LicenseID,
				"error":      nerr.Error(),
			}).Error("Failed to queue license notification")
		}
	}

	return result, nil
}

func (s *LicenseIssuer) issueOnce(ctx context.Context, email, ref string) (IssueResult, error) {
	result := IssueResult{Email: email, Reference: ref}

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		existing, err := s.store.FindByExternalRef(ctx, tx, ref)
		if err == nil {
			result.Outcome = IssueOutcomeResolved
			result.LicenseID = existing.ID
			result.LicenseKey = existing.LicenseKey
			result.MaxDevices = existing.MaxDevices
			return nil
		}
		if !errors.Is(err, ErrLicenseNotFound) {
			return err
		}

		key, err := utils.GenerateLicenseKey(s.cfg.KeyPrefix)
		if err != nil {
			return err
		}

		now := utils.FormatDateTimeForDB(s.now())
		license := models.License{
			ID:          utils.GenerateID("lic"),
			LicenseKey:  key,
			BuyerEmail:  email,
			MaxDevices:  s.cfg.DefaultSeats,
			Status:      models.LicenseStatusActive,
			ExternalRef: &ref,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.store.Insert(ctx, tx, license); err != nil {
			return err
		}

		result.Outcome = IssueOutcomeIssued
		result.LicenseID = license.ID
		result.LicenseKey = license.LicenseKey
		result.MaxDevices = license.MaxDevices
		return nil
	})
	return result, err
}
