package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotActivated 저장된 활성화 정보가 없을 때
var ErrNotActivated = errors.New("not activated")

// State 로컬에 보관하는 활성화 정보
type State struct {
	Email      string `json:"email"`
	LicenseKey string `json:"license_key"`
	Token      string `json:"token"`
	HWID       string `json:"hwid"`
}

func (s State) complete() bool {
	return s.LicenseKey != "" && s.Token != "" && s.HWID != ""
}

// DefaultStatePath 사용자 홈의 상태 파일 경로
func DefaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".seatlicense.json"
	}
	return filepath.Join(home, ".seatlicense.json")
}

// LoadState 상태 파일 읽기. 파일이 없거나 비어 있으면 ErrNotActivated.
func LoadState(path string) (State, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return State{}, ErrNotActivated
	}
	if err != nil {
		return State{}, err
	}

	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		return State{}, fmt.Errorf("corrupt license state %s: %w", path, err)
	}
	if !s.complete() {
		return State{}, ErrNotActivated
	}
	return s, nil
}

// SaveState 상태 파일 쓰기 (임시 파일 후 rename)
func SaveState(path string, s State) error {
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// ClearState 상태 파일 삭제 (없어도 성공)
func ClearState(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
