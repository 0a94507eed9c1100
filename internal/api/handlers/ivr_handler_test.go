package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCallDurationSeconds(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"normal duration", "125", 125},
		{"zero", "0", 0},
		{"not a number", "abc", 0},
		{"trailing garbage", "12s", 0},
		{"negative", "-5", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, callDurationSeconds(tt.raw))
		})
	}
}
