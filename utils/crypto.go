package utils

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// licenseKeyBytes is the random payload of a license key (120 bits).
const licenseKeyBytes = 15

var keyEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// GenerateLicenseKey 라이선스 키 생성 (형식: PREFIX-XXXX-XXXX-XXXX-XXXX-XXXX-XXXX)
func GenerateLicenseKey(prefix string) (string, error) {
	bytes := make([]byte, licenseKeyBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	key := keyEncoding.EncodeToString(bytes)

	// 4자리씩 끊어서 대시로 연결
	groups := make([]string, 0, len(key)/4)
	for i := 0; i < len(key); i += 4 {
		groups = append(groups, key[i:min(i+4, len(key))])
	}
	formatted := strings.Join(groups, "-")

	prefix = strings.ToUpper(strings.Trim(strings.TrimSpace(prefix), "-"))
	if prefix == "" {
		return formatted, nil
	}
	return prefix + "-" + formatted, nil
}

// GenerateID UUID 기반 ID 생성
func GenerateID(prefix string) string {
	id := uuid.NewString()
	if prefix != "" {
		return fmt.Sprintf("%s-%s", prefix, id)
	}
	return id
}
