package scheduler

import (
	"context"
	"time"

	"seatlicense/logger"
	"seatlicense/services"
)

// DefaultInterval 집계 주기 기본값
const DefaultInterval = time.Minute

// InventorySource 저장소 집계 제공자 (services.LicenseAdmin)
type InventorySource interface {
	Inventory(ctx context.Context) (services.Inventory, error)
}

// InventorySink 집계 결과 수신자 (metrics.Metrics)
type InventorySink interface {
	SetInventory(byStatus map[string]int, devices int)
}

// Scheduler 라이선스 집계를 주기적으로 갱신합니다.
type Scheduler struct {
	source   InventorySource
	sink     InventorySink
	interval time.Duration
}

// New Scheduler 생성
func New(source InventorySource, sink InventorySink, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{source: source, sink: sink, interval: interval}
}

// Run ctx가 끝날 때까지 실행합니다. 시작 시 즉시 한 번 갱신합니다.
func (s *Scheduler) Run(ctx context.Context) {
	logger.Info("Scheduler started (interval: %s)", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.RefreshInventory(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Info("Scheduler stopped")
			return
		case <-ticker.C:
			s.RefreshInventory(ctx)
		}
	}
}

// RefreshInventory 집계 한 번 실행. 실패하면 이전 값을 유지합니다.
func (s *Scheduler) RefreshInventory(ctx context.Context) bool {
	inv, err := s.source.Inventory(ctx)
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"error": err.Error(),
		}).Warn("Failed to refresh license inventory")
		return false
	}

	s.sink.SetInventory(inv.ByStatus, inv.Devices)
	logger.WithFields(map[string]interface{}{
		"licenses": inv.ByStatus,
		"devices":  inv.Devices,
	}).Debug("License inventory refreshed")
	return true
}
