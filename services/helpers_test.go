package services

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"seatlicense/database"
	"seatlicense/models"
	"seatlicense/utils"
)

var (
	keyOnce sync.Once
	testKey *rsa.PrivateKey
)

func signingKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	keyOnce.Do(func() {
		k, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		testKey = k
	})
	return testKey
}

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(context.Background(), database.Options{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// fakeClock is a manually advanced clock shared by the token service under test.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	db         *database.DB
	clock      *fakeClock
	tokens     *TokenService
	issuer     *LicenseIssuer
	activation *ActivationService
	admin      *LicenseAdmin
	notified   *recordingNotifier
}

func newFixture(t *testing.T, cfg ActivationConfig) *fixture {
	t.Helper()
	db := openTestDB(t)
	clock := newFakeClock()

	tokens, err := NewTokenService(signingKey(t), DefaultTokenTTL, NewRevocationChecker(db), WithClock(clock.Now))
	require.NoError(t, err)

	notified := &recordingNotifier{}
	return &fixture{
		db:         db,
		clock:      clock,
		tokens:     tokens,
		issuer:     NewLicenseIssuer(db, IssuerConfig{KeyPrefix: "GOCBT", DefaultSeats: 1}, notified),
		activation: NewActivationService(db, tokens, cfg),
		admin:      NewLicenseAdmin(db),
		notified:   notified,
	}
}

// issueLicense creates a license with the given seat limit and returns its key.
func (f *fixture) issueLicense(t *testing.T, email, ref string, seats int) string {
	t.Helper()
	res, err := f.issuer.Issue(context.Background(), email, ref)
	require.NoError(t, err)
	if seats != 1 {
		_, err = f.db.ExecContext(context.Background(), "UPDATE licenses SET max_devices = ? WHERE id = ?", seats, res.LicenseID)
		require.NoError(t, err)
	}
	return res.LicenseKey
}

func (f *fixture) activationCount(t *testing.T, licenseKey string) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.QueryRowContext(context.Background(), `
		SELECT COUNT(*) FROM activations a JOIN licenses l ON l.id = a.license_id WHERE l.license_key = ?`,
		licenseKey).Scan(&n))
	return n
}

type recordingNotifier struct {
	mu      sync.Mutex
	results []IssueResult
}

func (n *recordingNotifier) NotifyIssued(result IssueResult) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.results = append(n.results, result)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.results)
}

func chargeEvent(email, ref string) models.PaymentEvent {
	return models.PaymentEvent{
		Event: models.EventChargeSuccess,
		Data: models.PaymentEventData{
			Reference: ref,
			Customer:  models.PaymentCustomer{Email: email},
		},
	}
}

func signHex(secret string, body []byte) string {
	return utils.SignWebhookPayload([]byte(secret), body)
}
