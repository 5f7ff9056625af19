package notifier

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/avast/retry-go"

	"seatlicense/logger"
	"seatlicense/metrics"
	"seatlicense/services"
)

var (
	// ErrQueueFull 큐가 가득 차 안내를 버렸을 때
	ErrQueueFull = errors.New("notification queue full")
	// ErrStopped Stop 이후 들어온 안내
	ErrStopped = errors.New("notification dispatcher stopped")
)

// Config Dispatcher 설정
type Config struct {
	Workers     int
	QueueSize   int
	MaxAttempts int
	RetryDelay  time.Duration
	Product     string
}

func (c *Config) applyDefaults() {
	if c.Workers < 1 {
		c.Workers = 2
	}
	if c.QueueSize < 1 {
		c.QueueSize = 100
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 5
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Second
	}
}

// Dispatcher 발급 트랜잭션 커밋 이후의 안내 발송을 처리하는 작업 큐.
// 큐에 넣는 쪽은 절대 블록되지 않으며, 발송 실패는 발급 결과에 영향을 주지 않습니다.
type Dispatcher struct {
	sender  Sender
	cfg     Config
	metrics *metrics.Metrics

	queue  chan Message
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	started bool
	stopped bool
}

// NewDispatcher Dispatcher 생성. Start 호출 전까지 안내는 큐에만 쌓입니다.
func NewDispatcher(sender Sender, cfg Config, m *metrics.Metrics) *Dispatcher {
	cfg.applyDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		sender:  sender,
		cfg:     cfg,
		metrics: m,
		queue:   make(chan Message, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start 워커 시작
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.stopped {
		return
	}
	d.started = true

	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	logger.Info("Notification dispatcher started (workers: %d, queue: %d)", d.cfg.Workers, d.cfg.QueueSize)
}

// NotifyIssued services.IssuanceNotifier 구현
func (d *Dispatcher) NotifyIssued(result services.IssueResult) error {
	return d.Enqueue(Message{
		To:         result.Email,
		LicenseKey: result.LicenseKey,
		Reference:  result.Reference,
		MaxDevices: result.MaxDevices,
		Product:    d.cfg.Product,
	})
}

// Enqueue 안내를 큐에 넣습니다. 큐가 가득 차면 ErrQueueFull.
func (d *Dispatcher) Enqueue(msg Message) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		d.metrics.Notification("dropped")
		return ErrStopped
	}

	select {
	case d.queue <- msg:
		return nil
	default:
		d.metrics.Notification("dropped")
		return ErrQueueFull
	}
}

// Stop 새 안내 접수를 중단하고 남은 큐를 비웁니다. ctx가 끝나면 진행 중인 재시도를 취소합니다.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	close(d.queue)
	started := d.started
	d.mu.Unlock()

	if !started {
		d.cancel()
		return nil
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		logger.Info("Notification dispatcher stopped")
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for msg := range d.queue {
		d.deliver(id, msg)
	}
}

func (d *Dispatcher) deliver(worker int, msg Message) {
	err := retry.Do(
		func() error {
			return d.sender.Send(d.ctx, msg)
		},
		retry.Context(d.ctx),
		retry.Attempts(uint(d.cfg.MaxAttempts)),
		retry.Delay(d.cfg.RetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.WithFields(map[string]interface{}{
				"worker":      worker,
				"attempt":     n + 1,
				"license_key": msg.LicenseKey,
				"error":       err.Error(),
			}).Warn("Notification attempt failed, retrying")
		}),
	)
	if err != nil {
		d.metrics.Notification("failed")
		logger.WithFields(map[string]interface{}{
			"worker":      worker,
			"to":          msg.To,
			"license_key": msg.LicenseKey,
			"error":       err.Error(),
		}).Error("Notification delivery failed")
		return
	}
	d.metrics.Notification("sent")
}
