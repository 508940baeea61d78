package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEventWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time {
		return time.Date(2026, 3, 1, h, m, 0, 0, time.UTC)
	}

	cases := []struct {
		name    string
		starts  time.Time
		ends    time.Time
		wantMsg string
	}{
		{"valid window", at(14, 0), at(16, 0), ""},
		{"minimum duration exactly", at(14, 0), at(14, 15), ""},
		{"maximum duration exactly", at(14, 0), at(22, 0), ""},
		{"end equals start", at(14, 0), at(14, 0), "end time must be after start time"},
		{"end before start", at(14, 0), at(13, 0), "end time must be after start time"},
		{"too short", at(14, 0), at(14, 10), "event must last at least 15 minutes"},
		{"start in the past", at(10, 0), at(11, 0), "start time must be in the future"},
		{"start equals now", at(12, 0), at(13, 0), "start time must be in the future"},
		{"too long", at(13, 0), at(22, 0), "event cannot last longer than 8 hours"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateEventWindow(tc.starts, tc.ends, now)
			if tc.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tc.wantMsg, vErr.Msg)
		})
	}
}

func TestValidateEventWindowRuleOrder(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	// A window that is both in the past and too short fails on duration
	// first: ordering checks run before the clock check.
	err := ValidateEventWindow(
		time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 1, 9, 5, 0, 0, time.UTC),
		now)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "event must last at least 15 minutes", vErr.Msg)
}
