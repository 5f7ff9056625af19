package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seatlicense/models"
)

func TestLicenseAdminGet(t *testing.T) {
	f := newFixture(t, ActivationConfig{})
	key := f.issueLicense(t, "buyer@example.com", "ref-admin", 2)

	license, err := f.admin.Get(context.Background(), "  "+key+" ")
	require.NoError(t, err)
	assert.Equal(t, key, license.LicenseKey)
	assert.Equal(t, 2, license.MaxDevices)
	assert.Equal(t, models.LicenseStatusActive, license.Status)

	_, err = f.admin.Get(context.Background(), "GOCBT-MISSING")
	assert.ErrorIs(t, err, ErrLicenseNotFound)
}

func TestLicenseAdminSetStatus(t *testing.T) {
	f := newFixture(t, ActivationConfig{})
	ctx := context.Background()
	key := f.issueLicense(t, "buyer@example.com", "ref-status", 1)

	require.NoError(t, f.admin.SetStatus(ctx, key, models.LicenseStatusRevoked))
	license, err := f.admin.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, models.LicenseStatusRevoked, license.Status)

	assert.ErrorIs(t, f.admin.SetStatus(ctx, "GOCBT-MISSING", models.LicenseStatusRevoked), ErrLicenseNotFound)
	assert.Error(t, f.admin.SetStatus(ctx, key, models.LicenseStatus("suspended")))
}

func TestLicenseAdminInventory(t *testing.T) {
	f := newFixture(t, ActivationConfig{})
	ctx := context.Background()

	inv, err := f.admin.Inventory(ctx)
	require.NoError(t, err)
	assert.Empty(t, inv.ByStatus)
	assert.Zero(t, inv.Devices)

	keyA := f.issueLicense(t, "a@example.com", "ref-a", 2)
	keyB := f.issueLicense(t, "b@example.com", "ref-b", 1)
	f.issueLicense(t, "c@example.com", "ref-c", 1)

	_, err = activate(f, "a@example.com", keyA, "hw-1")
	require.NoError(t, err)
	_, err = activate(f, "a@example.com", keyA, "hw-2")
	require.NoError(t, err)
	require.NoError(t, f.admin.SetStatus(ctx, keyB, models.LicenseStatusRevoked))

	inv, err = f.admin.Inventory(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"active": 2, "revoked": 1}, inv.ByStatus)
	assert.Equal(t, 2, inv.Devices)
}
