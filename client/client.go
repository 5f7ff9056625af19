// Package client is the desktop-side counterpart of the license server: it binds
// the installation to a device id, activates it, and keeps the session token
// fresh with periodic verify calls.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go"

	"seatlicense/logger"
	"seatlicense/models"
)

// APIError 서버가 ok:false로 응답한 경우
type APIError struct {
	Status int
	Msg    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("license server returned %d: %s", e.Status, e.Msg)
}

// IsStatus err가 주어진 HTTP 상태의 APIError인지 확인
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Client 라이선스 서버 클라이언트
type Client struct {
	baseURL   string
	http      *http.Client
	statePath string
	hwid      string
	attempts  uint
	delay     time.Duration
}

// Option Client 옵션
type Option func(*Client)

// WithHTTPClient HTTP 클라이언트 지정
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithStatePath 상태 파일 경로 지정
func WithStatePath(path string) Option {
	return func(c *Client) { c.statePath = path }
}

// WithDeviceID 디바이스 ID 직접 지정 (기본값: DeviceID(appID))
func WithDeviceID(hwid string) Option {
	return func(c *Client) { c.hwid = hwid }
}

// WithRetry 네트워크/5xx 재시도 정책
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(c *Client) {
		c.attempts = attempts
		c.delay = delay
	}
}

// New Client 생성
func New(baseURL, appID string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 25 * time.Second},
		attempts: 3,
		delay:    time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.statePath == "" {
		c.statePath = DefaultStatePath()
	}
	if c.hwid == "" {
		c.hwid = DeviceID(appID)
	}
	if c.attempts < 1 {
		c.attempts = 1
	}
	return c
}

// Activate 라이선스 활성화 후 상태 저장
func (c *Client) Activate(ctx context.Context, email, licenseKey string) (State, error) {
	var resp models.APIResponse
	err := c.post(ctx, "/activate", models.ActivateRequest{
		Email:      strings.TrimSpace(email),
		LicenseKey: strings.TrimSpace(licenseKey),
		HWID:       c.hwid,
	}, &resp)
	if err != nil {
		return State{}, err
	}

	state := State{
		Email:      strings.TrimSpace(email),
		LicenseKey: strings.TrimSpace(licenseKey),
		Token:      resp.Token,
		HWID:       c.hwid,
	}
	if err := SaveState(c.statePath, state); err != nil {
		return State{}, fmt.Errorf("failed to save license state: %w", err)
	}
	return state, nil
}

// Verify 저장된 토큰 검증 및 갱신 토큰 저장. 토큰이 무효(401)이거나 폐기(403)되면 상태를 지웁니다.
func (c *Client) Verify(ctx context.Context) (State, error) {
	state, err := LoadState(c.statePath)
	if err != nil {
		return State{}, err
	}

	var resp models.APIResponse
	err = c.post(ctx, "/verify", models.VerifyRequest{Token: state.Token, HWID: state.HWID}, &resp)
	if err != nil {
		if IsStatus(err, http.StatusUnauthorized) || IsStatus(err, http.StatusForbidden) {
			if cerr := ClearState(c.statePath); cerr != nil {
				logger.Warn("Failed to clear license state: %v", cerr)
			}
		}
		return State{}, err
	}

	state.Token = resp.Token
	if err := SaveState(c.statePath, state); err != nil {
		return State{}, fmt.Errorf("failed to save license state: %w", err)
	}
	return state, nil
}

// Deactivate 좌석 해제 후 상태 삭제
func (c *Client) Deactivate(ctx context.Context) error {
	state, err := LoadState(c.statePath)
	if err != nil {
		return err
	}

	var resp models.APIResponse
	if err := c.post(ctx, "/deactivate", models.DeactivateRequest{Token: state.Token, HWID: state.HWID}, &resp); err != nil {
		return err
	}
	return ClearState(c.statePath)
}

// post JSON 요청. 4xx는 즉시 실패, 네트워크 오류와 5xx는 재시도합니다.
func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := c.http.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
			if err != nil {
				return err
			}

			var decoded models.APIResponse
			if err := json.Unmarshal(raw, &decoded); err != nil {
				decoded.Msg = strings.TrimSpace(string(raw))
			}

			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				return &APIError{Status: resp.StatusCode, Msg: decoded.Msg}
			}
			if resp.StatusCode >= 400 || !decoded.OK {
				return retry.Unrecoverable(&APIError{Status: resp.StatusCode, Msg: decoded.Msg})
			}

			if out != nil {
				if err := json.Unmarshal(raw, out); err != nil {
					return retry.Unrecoverable(fmt.Errorf("decode %s response: %w", path, err))
				}
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Debug("License server request %s failed (attempt %d): %v", path, n+1, err)
		}),
	)
}
