package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTicketCode(t *testing.T) {
	format := regexp.MustCompile(`^TKT-[0-9A-F]{8}$`)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := NewTicketCode()
		require.NoError(t, err)
		assert.Regexp(t, format, code)
		seen[code] = true
	}
	// 100 draws from 2^32 values; a repeat means the generator is broken.
	assert.Len(t, seen, 100)
}

func TestNewOTP(t *testing.T) {
	digits := regexp.MustCompile(`^[0-9]{6}$`)
	for i := 0; i < 50; i++ {
		code, err := NewOTP(6)
		require.NoError(t, err)
		assert.Regexp(t, digits, code)
	}
}
