package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateLicenseKey(t *testing.T) {
	pattern := regexp.MustCompile(`^GOCBT(-[A-Z2-7]{4}){6}$`)

	seen := make(map[string]struct{})
	for i := 0; i < 500; i++ {
		key, err := GenerateLicenseKey("gocbt")
		require.NoError(t, err)
		assert.Regexp(t, pattern, key)

		_, dup := seen[key]
		require.False(t, dup, "duplicate key %s", key)
		seen[key] = struct{}{}
	}
}

func TestGenerateLicenseKeyWithoutPrefix(t *testing.T) {
	key, err := GenerateLicenseKey("  ")
	require.NoError(t, err)
	assert.Regexp(t, `^[A-Z2-7]{4}(-[A-Z2-7]{4}){5}$`, key)
}

func TestGenerateID(t *testing.T) {
	assert.Regexp(t, `^lic-[0-9a-f-]{36}$`, GenerateID("lic"))
	assert.Len(t, GenerateID(""), 36)
}
