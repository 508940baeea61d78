package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticketing/internal/repository"
)

func TestFindConflict(t *testing.T) {
	at := func(h, m int) time.Time {
		return time.Date(2026, 3, 2, h, m, 0, 0, time.UTC)
	}
	existing := []repository.Event{
		{ID: 1, Title: "Morning Workshop", StartsAt: at(10, 0), EndsAt: at(10, 20)},
	}

	cases := []struct {
		name     string
		starts   time.Time
		ends     time.Time
		conflict bool
	}{
		// 11:15 is only 55 minutes after the workshop ends; the buffered
		// ranges still touch.
		{"inside buffer after", at(11, 15), at(12, 0), true},
		{"direct overlap", at(10, 10), at(11, 0), true},
		{"inside buffer before", at(8, 30), at(9, 30), true},
		{"clear of buffer after", at(12, 30), at(13, 0), false},
		{"clear of buffer before", at(7, 0), at(8, 0), false},
		// Exactly a two hour gap: buffered edges meet but do not overlap.
		{"exact gap boundary", at(12, 20), at(13, 0), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := findConflict(tc.starts, tc.ends, existing)
			if !tc.conflict {
				assert.NoError(t, err)
				return
			}
			var cErr *ConflictError
			require.ErrorAs(t, err, &cErr)
			assert.Equal(t, "Morning Workshop", cErr.EventTitle)
		})
	}
}

func TestFindConflictReportsFirstCollision(t *testing.T) {
	at := func(h, m int) time.Time {
		return time.Date(2026, 3, 2, h, m, 0, 0, time.UTC)
	}
	existing := []repository.Event{
		{ID: 3, Title: "First", StartsAt: at(9, 0), EndsAt: at(10, 0)},
		{ID: 8, Title: "Second", StartsAt: at(12, 0), EndsAt: at(13, 0)},
	}
	// The candidate collides with both; the earlier row wins.
	err := findConflict(at(10, 30), at(11, 30), existing)
	var cErr *ConflictError
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, "First", cErr.EventTitle)
}

func TestFindConflictEmptySchedule(t *testing.T) {
	starts := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	assert.NoError(t, findConflict(starts, starts.Add(time.Hour), nil))
}
