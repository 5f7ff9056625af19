package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"seatlicense/services"
)

type stubSource struct {
	mu    sync.Mutex
	calls int
	inv   services.Inventory
	err   error
}

func (s *stubSource) Inventory(context.Context) (services.Inventory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.inv, s.err
}

func (s *stubSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type recordingSink struct {
	mu       sync.Mutex
	byStatus map[string]int
	devices  int
	updates  int
}

func (r *recordingSink) SetInventory(byStatus map[string]int, devices int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byStatus = byStatus
	r.devices = devices
	r.updates++
}

func TestRefreshInventoryPublishes(t *testing.T) {
	source := &stubSource{inv: services.Inventory{ByStatus: map[string]int{"active": 4}, Devices: 6}}
	sink := &recordingSink{}

	ok := New(source, sink, time.Hour).RefreshInventory(context.Background())
	assert.True(t, ok)
	assert.Equal(t, map[string]int{"active": 4}, sink.byStatus)
	assert.Equal(t, 6, sink.devices)
}

func TestRefreshInventoryKeepsPreviousOnError(t *testing.T) {
	source := &stubSource{err: errors.New("database is locked")}
	sink := &recordingSink{}

	ok := New(source, sink, time.Hour).RefreshInventory(context.Background())
	assert.False(t, ok)
	assert.Zero(t, sink.updates)
}

func TestRunRefreshesUntilCancelled(t *testing.T) {
	source := &stubSource{inv: services.Inventory{ByStatus: map[string]int{}}}
	sink := &recordingSink{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		New(source, sink, 10*time.Millisecond).Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return source.callCount() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}

func TestNewDefaultsInterval(t *testing.T) {
	s := New(&stubSource{}, &recordingSink{}, 0)
	assert.Equal(t, DefaultInterval, s.interval)
}
