package config

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"seatlicense/database"
)

// EnvPrefix 환경 변수 접두사. SEATLICENSE_DATABASE__DSN 은 database.dsn 으로 매핑됩니다.
const EnvPrefix = "SEATLICENSE_"

// Config 서버 전체 설정
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Webhook  WebhookConfig  `koanf:"webhook"`
	Token    TokenConfig    `koanf:"token"`
	License  LicenseConfig  `koanf:"license"`
	Notify   NotifyConfig   `koanf:"notify"`
	Log      LogConfig      `koanf:"log"`
}

type ServerConfig struct {
	Addr          string        `koanf:"addr"`
	ReadTimeout   time.Duration `koanf:"read_timeout"`
	WriteTimeout  time.Duration `koanf:"write_timeout"`
	IdleTimeout   time.Duration `koanf:"idle_timeout"`
	RateLimit     float64       `koanf:"rate_limit"` // IP별 초당 요청 수 (0이면 제한 없음)
	RateBurst     int           `koanf:"rate_burst"`
	MaxBodyBytes  int64         `koanf:"max_body_bytes"`
	StatsInterval time.Duration `koanf:"stats_interval"` // 라이선스 집계 지표 갱신 주기

	// TrustProxyHeaders 신뢰하는 리버스 프록시 뒤에서만 true (X-Forwarded-For 위조로 속도 제한 우회 가능)
	TrustProxyHeaders bool `koanf:"trust_proxy_headers"`
}

type DatabaseConfig struct {
	Driver    string        `koanf:"driver"`
	DSN       string        `koanf:"dsn"`
	TxTimeout time.Duration `koanf:"tx_timeout"`
}

type WebhookConfig struct {
	Secret          string `koanf:"secret"`
	SignatureHeader string `koanf:"signature_header"`
}

// TokenConfig 세션 토큰 키. PEM 원문(private_key) 또는 파일 경로(private_key_file) 중 하나를 사용합니다.
type TokenConfig struct {
	PrivateKey     string `koanf:"private_key"`
	PrivateKeyFile string `koanf:"private_key_file"`
	PublicKey      string `koanf:"public_key"`
	PublicKeyFile  string `koanf:"public_key_file"`
	TTLDays        int    `koanf:"ttl_days"`
}

type LicenseConfig struct {
	KeyPrefix          string `koanf:"key_prefix"`
	DefaultSeats       int    `koanf:"default_seats"`
	EnforceEmail       bool   `koanf:"enforce_email"`
	StrictDeactivation bool   `koanf:"strict_deactivation"`
	ProductCode        string `koanf:"product_code"`
}

type NotifyConfig struct {
	Mode         string        `koanf:"mode"` // log | smtp
	Workers      int           `koanf:"workers"`
	QueueSize    int           `koanf:"queue_size"`
	MaxAttempts  int           `koanf:"max_attempts"`
	RetryDelay   time.Duration `koanf:"retry_delay"`
	SMTPHost     string        `koanf:"smtp_host"`
	SMTPPort     int           `koanf:"smtp_port"`
	SMTPUsername string        `koanf:"smtp_username"`
	SMTPPassword string        `koanf:"smtp_password"`
	SMTPFrom     string        `koanf:"smtp_from"`
}

type LogConfig struct {
	Level      string `koanf:"level"`
	Dir        string `koanf:"dir"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxAgeDays int    `koanf:"max_age_days"`
	Color      bool   `koanf:"color"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"server.addr":                 ":8080",
		"server.read_timeout":         "15s",
		"server.write_timeout":        "15s",
		"server.idle_timeout":         "60s",
		"server.rate_limit":           5.0,
		"server.rate_burst":           10,
		"server.max_body_bytes":       64 * 1024,
		"server.stats_interval":       "1m",
		"server.trust_proxy_headers":  false,
		"database.driver":             "",
		"database.dsn":                "./license.db",
		"database.tx_timeout":         "5s",
		"webhook.signature_header":    "x-paystack-signature",
		"token.ttl_days":              30,
		"license.key_prefix":          "GOCBT",
		"license.default_seats":       1,
		"license.enforce_email":       true,
		"license.strict_deactivation": false,
		"license.product_code":        "GoCBT",
		"notify.mode":                 "log",
		"notify.workers":              2,
		"notify.queue_size":           100,
		"notify.max_attempts":         5,
		"notify.retry_delay":          "2s",
		"notify.smtp_port":            587,
		"log.level":                   "info",
		"log.dir":                     "./logs",
		"log.max_size_mb":             10,
		"log.max_age_days":            7,
		"log.color":                   true,
	}
}

// legacyEnv 이전 배포에서 쓰던 환경 변수 이름
var legacyEnv = map[string]string{
	"PAYSTACK_SECRET": "webhook.secret",
	"JWT_PRIVATE":     "token.private_key",
	"JWT_PUBLIC":      "token.public_key",
	"TOKEN_DAYS":      "token.ttl_days",
	"DATABASE_URL":    "database.dsn",
	"MAX_DEVICES":     "license.default_seats",
}

// Load 설정 로드: 기본값 → TOML 파일 → 레거시 환경 변수 → SEATLICENSE_* 환경 변수 순으로 덮어씁니다.
func Load(configPath string) (*Config, error) {
	var k = koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		for _, path := range []string{"./seatlicense.toml", "$HOME/.seatlicense.toml"} {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
					return nil, fmt.Errorf("error loading config %s: %w", path, err)
				}
				break
			}
		}
	}

	legacy := map[string]interface{}{}
	for name, key := range legacyEnv {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			legacy[key] = v
		}
	}
	if port, ok := os.LookupEnv("PORT"); ok && port != "" {
		legacy["server.addr"] = ":" + strings.TrimPrefix(port, ":")
	}
	if len(legacy) > 0 {
		if err := k.Load(confmap.Provider(legacy, "."), nil); err != nil {
			return nil, fmt.Errorf("error loading legacy environment: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	return &cfg, nil
}

// Validate 서버 실행에 필요한 값 확인
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Webhook.Secret) == "" {
		errs = append(errs, errors.New("webhook.secret is required"))
	}
	if c.Token.PrivateKey == "" && c.Token.PrivateKeyFile == "" {
		errs = append(errs, errors.New("token.private_key or token.private_key_file is required"))
	}
	if c.Token.TTLDays <= 0 {
		errs = append(errs, fmt.Errorf("token.ttl_days must be positive, got %d", c.Token.TTLDays))
	}
	if c.License.DefaultSeats < 1 {
		errs = append(errs, fmt.Errorf("license.default_seats must be at least 1, got %d", c.License.DefaultSeats))
	}
	if _, err := database.ParseDialect(c.Database.Driver, c.Database.DSN); err != nil {
		errs = append(errs, err)
	}
	switch c.Notify.Mode {
	case "", "log":
	case "smtp":
		if c.Notify.SMTPHost == "" || c.Notify.SMTPFrom == "" {
			errs = append(errs, errors.New("notify.smtp_host and notify.smtp_from are required for smtp mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown notify.mode %q", c.Notify.Mode))
	}

	return errors.Join(errs...)
}

// DatabaseOptions 저장소 연결 옵션
func (c *Config) DatabaseOptions() database.Options {
	return database.Options{
		Driver:    c.Database.Driver,
		DSN:       c.Database.DSN,
		TxTimeout: c.Database.TxTimeout,
	}
}

// TTL 토큰 유효 기간
func (t TokenConfig) TTL() time.Duration {
	return time.Duration(t.TTLDays) * 24 * time.Hour
}

// Keys 서명용 개인키와 검증용 공개키를 읽습니다. 공개키가 없으면 개인키에서 유도합니다.
func (t TokenConfig) Keys() (*rsa.PrivateKey, *rsa.PublicKey, error) {
	privPEM, err := readPEM(t.PrivateKey, t.PrivateKeyFile)
	if err != nil {
		return nil, nil, fmt.Errorf("token private key: %w", err)
	}
	if len(privPEM) == 0 {
		return nil, nil, errors.New("token private key is not configured")
	}
	priv, err := jwt.ParseRSAPrivateKeyFromPEM(privPEM)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse token private key: %w", err)
	}

	pubPEM, err := readPEM(t.PublicKey, t.PublicKeyFile)
	if err != nil {
		return nil, nil, fmt.Errorf("token public key: %w", err)
	}
	if len(pubPEM) == 0 {
		return priv, &priv.PublicKey, nil
	}
	pub, err := jwt.ParseRSAPublicKeyFromPEM(pubPEM)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse token public key: %w", err)
	}
	if pub.N.Cmp(priv.PublicKey.N) != 0 || pub.E != priv.PublicKey.E {
		return nil, nil, errors.New("token public key does not match private key")
	}
	return priv, pub, nil
}

// readPEM 인라인 값이 우선이며, 환경 변수에 한 줄로 넣은 "\n" 이스케이프도 허용합니다.
func readPEM(inline, path string) ([]byte, error) {
	if inline != "" {
		return []byte(strings.ReplaceAll(inline, `\n`, "\n")), nil
	}
	if path == "" {
		return nil, nil
	}
	return os.ReadFile(path)
}
