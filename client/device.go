package client

import (
	"crypto/sha256"
	"fmt"
	"os"
	"runtime"

	"github.com/keygen-sh/machineid"

	"seatlicense/logger"
)

// DeviceID 설치 단위 디바이스 식별자. appID로 해시된 machine id를 사용하고,
// 읽을 수 없는 환경에서는 호스트 정보 해시로 대체합니다.
func DeviceID(appID string) string {
	id, err := machineid.ProtectedID(appID)
	if err != nil {
		logger.Warn("Failed to read machine id, using host fallback: %v", err)
		return fallbackDeviceID(appID)
	}
	return id
}

func fallbackDeviceID(appID string) string {
	hostInfo := fmt.Sprintf("%s|%s", runtime.GOOS, runtime.GOARCH)
	if hostname, err := os.Hostname(); err == nil {
		hostInfo = fmt.Sprintf("%s|%s", hostInfo, hostname)
	}
	sum := sha256.Sum256([]byte(hostInfo + "|" + appID))
	return fmt.Sprintf("%x", sum)
}
