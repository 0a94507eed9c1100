package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskEmail(t *testing.T) {
	tests := []struct {
		name string
		addr string
		want string
	}{
		{"typical address", "farmer@example.com", "fa***@example.com"},
		{"two-char local part", "ab@example.com", "ab***@example.com"},
		{"one-char local part left alone", "a@example.com", "a@example.com"},
		{"no at sign left alone", "not-an-email", "not-an-email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, maskEmail(tt.addr))
		})
	}
}
