package gamesession

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRosterStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  Status
		current int
		want    Status
	}{
		{"open below capacity", StatusOpen, 3, StatusOpen},
		{"open reaches capacity", StatusOpen, 4, StatusFull},
		{"full drops below", StatusFull, 3, StatusOpen},
		{"full stays full", StatusFull, 4, StatusFull},
		{"empty", StatusOpen, 0, StatusOpen},
		{"in progress ignores roster", StatusInProgress, 2, StatusInProgress},
		{"cancelled ignores roster", StatusCancelled, 4, StatusCancelled},
		{"completed ignores roster", StatusCompleted, 0, StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RosterStatus(tt.status, tt.current, 4))
		})
	}
}

func TestStatus_CanTransition(t *testing.T) {
	assert.True(t, StatusFull.CanTransition(StatusInProgress))
	assert.True(t, StatusInProgress.CanTransition(StatusCompleted))
	assert.True(t, StatusInProgress.CanTransition(StatusCancelled))
	assert.True(t, StatusOpen.CanTransition(StatusCancelled))

	assert.False(t, StatusOpen.CanTransition(StatusInProgress))
	assert.False(t, StatusCompleted.CanTransition(StatusCancelled))
	assert.False(t, StatusCancelled.CanTransition(StatusOpen))
}

func TestPlayerStatus_Active(t *testing.T) {
	assert.True(t, PlayerRegistered.Active())
	assert.True(t, PlayerNoShow.Active())
	assert.False(t, PlayerCancelled.Active())
	assert.False(t, PlayerStatus("left").Active())
}
