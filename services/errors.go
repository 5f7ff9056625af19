package services

import (
	"errors"
	"fmt"

	"seatlicense/database"
)

var (
	// ErrInvalidSignature는 웹훅 서명이 일치하지 않을 때 반환됩니다.
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrInvalidToken은 토큰 서명/알고리즘/만료 검증에 실패했을 때 반환됩니다.
	ErrInvalidToken = errors.New("invalid token")

	// ErrMissingFields는 필수 입력값이 비어 있을 때 반환됩니다.
	ErrMissingFields = errors.New("missing fields")
	// ErrInvalidLicense는 키가 없거나 활성 상태가 아닐 때 반환됩니다. 두 경우를 구분하지 않습니다.
	ErrInvalidLicense = errors.New("invalid license")
	// ErrEmailMismatch는 요청 이메일이 구매자 이메일과 다를 때 반환됩니다.
	ErrEmailMismatch = errors.New("email mismatch")
	// ErrHWIDMismatch는 토큰에 바인딩된 디바이스와 요청 디바이스가 다를 때 반환됩니다.
	ErrHWIDMismatch = errors.New("hwid mismatch")
	// ErrDeviceLimitReached는 좌석이 모두 사용 중일 때 반환됩니다.
	ErrDeviceLimitReached = errors.New("device limit reached")
	// ErrRevoked는 라이선스 상태가 active가 아닐 때 반환됩니다.
	ErrRevoked = errors.New("revoked")

	// ErrConflict는 동시 요청 경합에서 진 트랜잭션이 롤백되었을 때 반환됩니다. 재시도해도 안전합니다.
	ErrConflict = errors.New("concurrent update conflict")
	// ErrTransient는 제한 시간 초과 등 일시적 실패입니다. 재시도해도 안전합니다.
	ErrTransient = errors.New("transient failure")
	// ErrStorage는 저장소 연결/트랜잭션 실패입니다.
	ErrStorage = errors.New("storage failure")

	// ErrLicenseNotFound는 저장소 조회 결과가 없을 때 내부적으로 사용됩니다.
	ErrLicenseNotFound = errors.New("license not found")
)

// IsRetryable 호출자가 재시도해도 되는 실패인지 확인
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrTransient)
}

// classifyStoreError 드라이버 에러를 서비스 에러 분류로 변환
func classifyStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrConflict), errors.Is(err, ErrTransient), errors.Is(err, ErrStorage):
		return err
	case database.IsTimeout(err):
		return fmt.Errorf("%w: %w", ErrTransient, err)
	case database.IsUniqueViolation(err), database.IsSerializationFailure(err):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	default:
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
}
