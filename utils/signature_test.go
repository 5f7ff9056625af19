package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifyWebhookSignature(t *testing.T) {
	secret := []byte("sk_test_secret")
	body := []byte(`{"event":"charge.success"}`)
	good := SignWebhookPayload(secret, body)

	tests := []struct {
		name      string
		secret    []byte
		body      []byte
		signature string
		expected  bool
	}{
		{name: "valid signature", secret: secret, body: body, signature: good, expected: true},
		{name: "upper case hex is accepted", secret: secret, body: body, signature: strings.ToUpper(good), expected: true},
		{name: "tampered body", secret: secret, body: []byte(`{"event":"charge.failed"}`), signature: good, expected: false},
		{name: "wrong secret", secret: []byte("other"), body: body, signature: good, expected: false},
		{name: "empty signature", secret: secret, body: body, signature: "", expected: false},
		{name: "not hex", secret: secret, body: body, signature: "zz" + good[2:], expected: false},
		{name: "truncated digest", secret: secret, body: body, signature: good[:64], expected: false},
		{name: "empty secret rejects", secret: nil, body: body, signature: SignWebhookPayload(nil, body), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, VerifyWebhookSignature(tt.secret, tt.body, tt.signature))
		})
	}
}
