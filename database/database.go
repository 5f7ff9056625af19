package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"seatlicense/logger"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect 지원 데이터베이스 종류
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
)

// DefaultTxTimeout 요청 단위 트랜잭션 기본 제한 시간
const DefaultTxTimeout = 5 * time.Second

// Options 데이터베이스 연결 옵션
type Options struct {
	Driver    string // sqlite, mysql, postgres (빈 값이면 DSN으로 추론)
	DSN       string
	TxTimeout time.Duration
}

// DB 명시적으로 생성/종료되는 저장소 핸들
type DB struct {
	sql       *sql.DB
	dialect   Dialect
	txTimeout time.Duration
}

// Executor 트랜잭션과 일반 연결 모두가 만족하는 최소 쿼리 인터페이스
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	Dialect() Dialect
}

// ParseDialect 드라이버 이름/DSN으로 방언 결정
func ParseDialect(driver, dsn string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "mysql":
		return DialectMySQL, nil
	case "postgres", "postgresql", "pgx":
		return DialectPostgres, nil
	case "":
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			return DialectPostgres, nil
		}
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// Open 데이터베이스 연결 및 스키마 생성
func Open(ctx context.Context, opts Options) (*DB, error) {
	dialect, err := ParseDialect(opts.Driver, opts.DSN)
	if err != nil {
		return nil, err
	}

	dsn := opts.DSN
	driverName := string(dialect)
	switch dialect {
	case DialectSQLite:
		if dsn == "" {
			dsn = "./license.db"
		}
	case DialectPostgres:
		driverName = "pgx"
	}

	conn, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite: 단일 연결로 트랜잭션을 직렬화 (:memory: DB 공유 포함)
	if dialect == DialectSQLite {
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
		conn.SetConnMaxLifetime(0)
	}

	// 연결 테스트
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	txTimeout := opts.TxTimeout
	if txTimeout <= 0 {
		txTimeout = DefaultTxTimeout
	}

	db := &DB{sql: conn, dialect: dialect, txTimeout: txTimeout}

	// SQLite 전용: 외래키 강제 활성화 (기본값 off)
	if dialect == DialectSQLite {
		if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	// 테이블 생성
	if err := db.createTables(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.WithFields(map[string]interface{}{
		"dialect": dialect,
	}).Info("Database initialized successfully")
	return db, nil
}

// createTables 테이블 생성
func (db *DB) createTables(ctx context.Context) error {
	suffix := ""
	if db.dialect == DialectMySQL {
		suffix = " CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci"
	}

	tables := []string{
		// 라이선스 테이블 (ext_ref는 발급 멱등성 키)
		`CREATE TABLE IF NOT EXISTS licenses (
			id VARCHAR(64) PRIMARY KEY,
			license_key VARCHAR(64) NOT NULL UNIQUE,
			buyer_email VARCHAR(255) NOT NULL,
			max_devices INT NOT NULL DEFAULT 1 CHECK (max_devices >= 1),
			status VARCHAR(32) NOT NULL DEFAULT 'active',
			ext_ref VARCHAR(191) UNIQUE,
			created_at VARCHAR(50) NOT NULL DEFAULT '',
			updated_at VARCHAR(50) NOT NULL DEFAULT ''
		)` + suffix,

		// 디바이스 활성화(좌석) 테이블
		`CREATE TABLE IF NOT EXISTS activations (
			license_id VARCHAR(64) NOT NULL,
			hwid VARCHAR(191) NOT NULL,
			activated_at VARCHAR(50) NOT NULL DEFAULT '',
			PRIMARY KEY (license_id, hwid),
			FOREIGN KEY (license_id) REFERENCES licenses(id) ON DELETE CASCADE
		)` + suffix,
	}

	for _, stmt := range tables {
		if _, err := db.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute SQL: %w", err)
		}
	}
	return nil
}

// Dialect 현재 방언
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// TxTimeout 트랜잭션 제한 시간
func (db *DB) TxTimeout() time.Duration {
	return db.txTimeout
}

// ExecContext ? 플레이스홀더를 방언에 맞게 변환하여 실행
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.sql.ExecContext(ctx, Rebind(db.dialect, query), args...)
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.sql.QueryContext(ctx, Rebind(db.dialect, query), args...)
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.sql.QueryRowContext(ctx, Rebind(db.dialect, query), args...)
}

// PingContext 연결 상태 확인
func (db *DB) PingContext(ctx context.Context) error {
	return db.sql.PingContext(ctx)
}

// Close 데이터베이스 연결 종료
func (db *DB) Close() error {
	if db == nil || db.sql == nil {
		return nil
	}
	return db.sql.Close()
}

// Tx 방언 정보를 가진 트랜잭션
type Tx struct {
	tx      *sql.Tx
	dialect Dialect
}

func (t *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, Rebind(t.dialect, query), args...)
}

func (t *Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, Rebind(t.dialect, query), args...)
}

func (t *Tx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(ctx, Rebind(t.dialect, query), args...)
}

func (t *Tx) Dialect() Dialect {
	return t.dialect
}

// WithTx fn을 트랜잭션 안에서 실행한다. fn이 에러를 반환하거나 패닉이 나면
// 부분 쓰기까지 모두 롤백되고, 성공하면 커밋된다. 트랜잭션 전체는 TxTimeout으로 제한된다.
func (db *DB) WithTx(ctx context.Context, fn func(tx *Tx) error) (err error) {
	ctx, cancel := context.WithTimeout(ctx, db.txTimeout)
	defer cancel()

	sqlTx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	tx := &Tx{tx: sqlTx, dialect: db.dialect}
	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logger.Warn("Failed to roll back transaction: %v", rbErr)
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rebind ? 플레이스홀더를 postgres의 $n 으로 변환 (쿼리 문자열 리터럴 안의 ?는 사용하지 않는다)
func Rebind(dialect Dialect, query string) string {
	if dialect != DialectPostgres || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// LockClause 행 잠금 구문. SQLite는 단일 연결 직렬화로 대신한다.
func LockClause(dialect Dialect) string {
	switch dialect {
	case DialectMySQL, DialectPostgres:
		return " FOR UPDATE"
	default:
		return ""
	}
}
