package services

import (
	"context"
	"database/sql"
	"errors"

	"seatlicense/database"
	"seatlicense/models"
)

// LicenseStore는 licenses 테이블 접근을 담당합니다. 상태를 갖지 않으며
// 모든 메서드는 호출자가 전달한 Executor(연결 또는 트랜잭션) 위에서 실행됩니다.
type LicenseStore struct{}

const licenseColumns = `id, license_key, buyer_email, max_devices, status, ext_ref, created_at, updated_at`

func scanLicense(row *sql.Row) (models.License, error) {
	var (
		license models.License
		status  string
		extRef  sql.NullString
	)
	err := row.Scan(&license.ID, &license.LicenseKey, &license.BuyerEmail, &license.MaxDevices,
		&status, &extRef, &license.CreatedAt, &license.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.License{}, ErrLicenseNotFound
	}
	if err != nil {
		return models.License{}, err
	}

	license.Status = parseStatus(status)
	if extRef.Valid {
		license.ExternalRef = new(string)
		*license.ExternalRef = extRef.String
	}
	return license, nil
}

// parseStatus 저장된 값의 대소문자/공백 차이는 허용하고, 정의되지 않은 값은 그대로 둔다
func parseStatus(raw string) models.LicenseStatus {
	if status, ok := models.ParseLicenseStatus(raw); ok {
		return status
	}
	return models.LicenseStatus(raw)
}

// FindByExternalRef 외부 결제 참조로 라이선스 조회
func (LicenseStore) FindByExternalRef(ctx context.Context, ex database.Executor, ref string) (models.License, error) {
	return scanLicense(ex.QueryRowContext(ctx,
		`SELECT `+licenseColumns+` FROM licenses WHERE ext_ref = ?`, ref))
}

// FindByKey 라이선스 키로 조회 (상태 무관)
func (LicenseStore) FindByKey(ctx context.Context, ex database.Executor, key string) (models.License, error) {
	return scanLicense(ex.QueryRowContext(ctx,
		`SELECT `+licenseColumns+` FROM licenses WHERE license_key = ?`, key))
}

// LockActiveByKey 활성 라이선스를 조회하면서 행 잠금을 건다 (트랜잭션 안에서 호출)
func (LicenseStore) LockActiveByKey(ctx context.Context, ex database.Executor, key string) (models.License, error) {
	return scanLicense(ex.QueryRowContext(ctx,
		`SELECT `+licenseColumns+` FROM licenses WHERE license_key = ? AND status = ?`+database.LockClause(ex.Dialect()),
		key, models.LicenseStatusActive))
}

// Status 라이선스 현재 상태 조회
func (LicenseStore) Status(ctx context.Context, ex database.Executor, id string) (models.LicenseStatus, error) {
	var status string
	err := ex.QueryRowContext(ctx, `SELECT status FROM licenses WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrLicenseNotFound
	}
	if err != nil {
		return "", err
	}
	return parseStatus(status), nil
}

// Insert 새 라이선스 저장
func (LicenseStore) Insert(ctx context.Context, ex database.Executor, license models.License) error {
	var extRef any
	if license.ExternalRef != nil {
		extRef = *license.ExternalRef
	}
	_, err := ex.ExecContext(ctx, `
		INSERT INTO licenses (id, license_key, buyer_email, max_devices, status, ext_ref, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		license.ID, license.LicenseKey, license.BuyerEmail, license.MaxDevices, string(license.Status),
		extRef, license.CreatedAt, license.UpdatedAt,
	)
	return err
}

// SetStatus 라이선스 상태 변경 (관리 작업)
func (LicenseStore) SetStatus(ctx context.Context, ex database.Executor, key string, status models.LicenseStatus, updatedAt string) error {
	result, err := ex.ExecContext(ctx,
		`UPDATE licenses SET status = ?, updated_at = ? WHERE license_key = ?`,
		string(status), updatedAt, key)
	if err != nil {
		return err
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return ErrLicenseNotFound
	}
	return nil
}

// CountByStatus 상태별 라이선스 수
func (LicenseStore) CountByStatus(ctx context.Context, ex database.Executor) (map[string]int, error) {
	rows, err := ex.QueryContext(ctx, `SELECT status, COUNT(*) FROM licenses GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
