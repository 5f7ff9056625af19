package services

import (
	"context"
	"database/sql"
	"errors"

	"seatlicense/database"
	"seatlicense/models"
)

// ActivationStore는 activations 테이블 접근을 담당합니다.
type ActivationStore struct{}

// Exists 디바이스가 이미 좌석을 점유하고 있는지 확인
func (ActivationStore) Exists(ctx context.Context, ex database.Executor, licenseID, hwid string) (bool, error) {
	var one int
	err := ex.QueryRowContext(ctx,
		`SELECT 1 FROM activations WHERE license_id = ? AND hwid = ?`, licenseID, hwid).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Count 라이선스의 활성 디바이스 수
func (ActivationStore) Count(ctx context.Context, ex database.Executor, licenseID string) (int, error) {
	var count int
	err := ex.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT hwid) FROM activations WHERE license_id = ?`, licenseID).Scan(&count)
	return count, err
}

// Insert 좌석 점유 기록
func (ActivationStore) Insert(ctx context.Context, ex database.Executor, activation models.Activation) error {
	_, err := ex.ExecContext(ctx,
		`INSERT INTO activations (license_id, hwid, activated_at) VALUES (?, ?, ?)`,
		activation.LicenseID, activation.HWID, activation.ActivatedAt)
	return err
}

// Delete 좌석 해제. 행이 없어도 에러가 아니다.
func (ActivationStore) Delete(ctx context.Context, ex database.Executor, licenseID, hwid string) (bool, error) {
	result, err := ex.ExecContext(ctx,
		`DELETE FROM activations WHERE license_id = ? AND hwid = ?`, licenseID, hwid)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, nil
	}
	return rows > 0, nil
}

// List 라이선스의 활성화 목록
func (ActivationStore) List(ctx context.Context, ex database.Executor, licenseID string) ([]models.Activation, error) {
	rows, err := ex.QueryContext(ctx,
		`SELECT license_id, hwid, activated_at FROM activations WHERE license_id = ? ORDER BY activated_at ASC, hwid ASC`,
		licenseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activations := make([]models.Activation, 0)
	for rows.Next() {
		var a models.Activation
		if err := rows.Scan(&a.LicenseID, &a.HWID, &a.ActivatedAt); err != nil {
			return nil, err
		}
		activations = append(activations, a)
	}
	return activations, rows.Err()
}

// CountAll 전체 점유 좌석 수
func (ActivationStore) CountAll(ctx context.Context, ex database.Executor) (int, error) {
	var n int
	err := ex.QueryRowContext(ctx, `SELECT COUNT(*) FROM activations`).Scan(&n)
	return n, err
}
