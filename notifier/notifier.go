package notifier

import (
	"context"
	"fmt"
	"strings"

	"seatlicense/logger"
)

// Message 구매자에게 보내는 라이선스 발급 안내
type Message struct {
	To         string
	LicenseKey string
	Reference  string
	MaxDevices int
	Product    string
}

// Subject 메일 제목
func (m Message) Subject() string {
	if m.Product != "" {
		return fmt.Sprintf("Your %s license key", m.Product)
	}
	return "Your license key"
}

// Body 메일 본문 (text/plain)
func (m Message) Body() string {
	var b strings.Builder
	b.WriteString("Thank you for your purchase.\r\n\r\n")
	fmt.Fprintf(&b, "License key: %s\r\n", m.LicenseKey)
	fmt.Fprintf(&b, "Devices allowed: %d\r\n", m.MaxDevices)
	if m.Reference != "" {
		fmt.Fprintf(&b, "Payment reference: %s\r\n", m.Reference)
	}
	b.WriteString("\r\nActivate the application with the email address used at checkout.\r\n")
	return b.String()
}

// Sender 안내 한 건을 전송합니다. 일시적 실패는 에러로 반환하면 Dispatcher가 재시도합니다.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogNotifier 메일 서버 없이 발급 사실만 기록합니다 (기본값).
type LogNotifier struct{}

func (LogNotifier) Send(_ context.Context, msg Message) error {
	logger.WithFields(map[string]interface{}{
		"to":          msg.To,
		"license_key": msg.LicenseKey,
		"reference":   msg.Reference,
		"max_devices": msg.MaxDevices,
	}).Info("License issued notification")
	return nil
}
