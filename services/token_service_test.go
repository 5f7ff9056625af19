package services

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seatlicense/database"
	"seatlicense/models"
)

func activatedToken(t *testing.T, f *fixture) (string, string) {
	t.Helper()
	key := f.issueLicense(t, "buyer@example.com", "ref-token", 1)
	res, err := activate(f, "buyer@example.com", key, "hw-a")
	require.NoError(t, err)
	return res.Token, key
}

func TestVerifyRenewsToken(t *testing.T) {
	f := newFixture(t, ActivationConfig{EnforceEmail: true})
	token, key := activatedToken(t, f)

	before, err := f.tokens.Parse(token)
	require.NoError(t, err)

	f.clock.Advance(10 * 24 * time.Hour)
	renewed, err := f.tokens.Verify(context.Background(), token, "hw-a")
	require.NoError(t, err)

	after, err := f.tokens.Parse(renewed)
	require.NoError(t, err)
	assert.Equal(t, before.SessionIdentity, after.SessionIdentity)
	assert.Equal(t, key, after.LicenseKey)
	assert.True(t, after.ExpiresAt.After(before.ExpiresAt.Time))
	assert.Equal(t, f.clock.Now().Add(DefaultTokenTTL).Unix(), after.ExpiresAt.Unix())
	assert.NotEqual(t, before.ID, after.ID)
}

func TestVerifySlidingWindowKeepsSessionAlive(t *testing.T) {
	f := newFixture(t, ActivationConfig{EnforceEmail: true})
	token, _ := activatedToken(t, f)

	// 매 25일마다 갱신하면 원래 만료 이후에도 계속 유효하다
	for i := 0; i < 4; i++ {
		f.clock.Advance(25 * 24 * time.Hour)
		renewed, err := f.tokens.Verify(context.Background(), token, "hw-a")
		require.NoError(t, err)
		token = renewed
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	f := newFixture(t, ActivationConfig{EnforceEmail: true})
	token, _ := activatedToken(t, f)

	f.clock.Advance(DefaultTokenTTL + time.Minute)
	_, err := f.tokens.Verify(context.Background(), token, "hw-a")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsOtherDevice(t *testing.T) {
	f := newFixture(t, ActivationConfig{EnforceEmail: true})
	token, _ := activatedToken(t, f)

	_, err := f.tokens.Verify(context.Background(), token, "hw-b")
	assert.ErrorIs(t, err, ErrHWIDMismatch)

	_, err = f.tokens.Verify(context.Background(), token, " hw-a ")
	assert.NoError(t, err)
}

func TestVerifyReflectsRevocation(t *testing.T) {
	f := newFixture(t, ActivationConfig{EnforceEmail: true})
	token, key := activatedToken(t, f)

	_, err := f.tokens.Verify(context.Background(), token, "hw-a")
	require.NoError(t, err)

	require.NoError(t, f.admin.SetStatus(context.Background(), key, models.LicenseStatusRevoked))
	_, err = f.tokens.Verify(context.Background(), token, "hw-a")
	assert.ErrorIs(t, err, ErrRevoked)

	require.NoError(t, f.admin.SetStatus(context.Background(), key, models.LicenseStatusActive))
	_, err = f.tokens.Verify(context.Background(), token, "hw-a")
	assert.NoError(t, err)
}

func TestParseRejectsForeignTokens(t *testing.T) {
	f := newFixture(t, ActivationConfig{})
	claims := &models.SessionClaims{
		SessionIdentity: models.SessionIdentity{LicenseID: "lic-1", HWID: "hw-a"},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(f.clock.Now().Add(time.Hour)),
		},
	}

	hs, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("shared-secret"))
	require.NoError(t, err)

	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	foreign, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(other)
	require.NoError(t, err)

	noExp := &models.SessionClaims{SessionIdentity: claims.SessionIdentity}
	unbounded, err := jwt.NewWithClaims(jwt.SigningMethodRS256, noExp).SignedString(signingKey(t))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "symmetric algorithm", token: hs},
		{name: "different signing key", token: foreign},
		{name: "missing expiry", token: unbounded},
		{name: "garbage", token: "a.b.c"},
		{name: "empty", token: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.tokens.Parse(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestParseAcceptsPublicKeyOnlyVerifier(t *testing.T) {
	f := newFixture(t, ActivationConfig{})
	token, _, err := f.tokens.Sign(models.SessionIdentity{LicenseID: "lic-1", HWID: "hw-a"})
	require.NoError(t, err)

	verifier, err := NewTokenService(signingKey(t), time.Hour, nil,
		WithPublicKey(&signingKey(t).PublicKey), WithClock(f.clock.Now))
	require.NoError(t, err)

	claims, err := verifier.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "lic-1", claims.LicenseID)
}

func TestNewTokenServiceRequiresKey(t *testing.T) {
	_, err := NewTokenService(nil, time.Hour, nil)
	assert.Error(t, err)

	s, err := NewTokenService(signingKey(t), 0, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, s.TTL())
}

func TestRevocationCheckerUnknownLicense(t *testing.T) {
	db := openTestDB(t)
	checker := NewRevocationChecker(db)
	assert.ErrorIs(t, checker.CheckActive(context.Background(), "lic-missing"), ErrRevoked)
}

func TestRevocationCheckerUnknownStatus(t *testing.T) {
	f := newFixture(t, ActivationConfig{})
	res, err := f.issuer.Issue(context.Background(), "buyer@example.com", "ref-odd")
	require.NoError(t, err)

	_, err = f.db.ExecContext(context.Background(), "UPDATE licenses SET status = ? WHERE id = ?", "suspended", res.LicenseID)
	require.NoError(t, err)

	checker := NewRevocationChecker(f.db)
	assert.ErrorIs(t, checker.CheckActive(context.Background(), res.LicenseID), ErrRevoked)
}

func TestRevocationCheckerNormalizesStoredStatus(t *testing.T) {
	f := newFixture(t, ActivationConfig{})
	res, err := f.issuer.Issue(context.Background(), "buyer@example.com", "ref-upper")
	require.NoError(t, err)

	_, err = f.db.ExecContext(context.Background(), "UPDATE licenses SET status = ? WHERE id = ?", " ACTIVE ", res.LicenseID)
	require.NoError(t, err)

	assert.NoError(t, NewRevocationChecker(f.db).CheckActive(context.Background(), res.LicenseID))

	license, err := f.admin.Get(context.Background(), res.LicenseKey)
	require.NoError(t, err)
	assert.Equal(t, models.LicenseStatusActive, license.Status)
}

func TestRevocationCheckerIsBoundedByTxTimeout(t *testing.T) {
	db, err := database.Open(context.Background(), database.Options{Driver: "sqlite", DSN: ":memory:", TxTimeout: time.Nanosecond})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	err = NewRevocationChecker(db).CheckActive(context.Background(), "lic-any")
	assert.ErrorIs(t, err, ErrTransient)
	assert.True(t, IsRetryable(err))
}

func TestSignatureVerifier(t *testing.T) {
	body := []byte(`{"event":"charge.success"}`)
	v := NewSignatureVerifier("whsec")

	require.NoError(t, v.Verify(body, signHex("whsec", body)))
	assert.ErrorIs(t, v.Verify(body, "deadbeef"), ErrInvalidSignature)
	assert.ErrorIs(t, v.Verify(body, ""), ErrInvalidSignature)
	assert.ErrorIs(t, NewSignatureVerifier("").Verify(body, signHex("", body)), ErrInvalidSignature)
}
