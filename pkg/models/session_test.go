package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidTransition(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{"initializing to idle", StatusInitializing, StatusIdle, true},
		{"initializing to working", StatusInitializing, StatusWorking, true},
		{"initializing to completed", StatusInitializing, StatusCompleted, false},
		{"idle to working", StatusIdle, StatusWorking, true},
		{"idle to cancelled", StatusIdle, StatusCancelled, true},
		{"idle to error", StatusIdle, StatusError, false},
		{"working to idle", StatusWorking, StatusIdle, true},
		{"working to error", StatusWorking, StatusError, true},
		{"working to interrupted", StatusWorking, StatusInterrupted, true},
		{"working to completed", StatusWorking, StatusCompleted, true},
		{"working to cancelled", StatusWorking, StatusCancelled, false},
		{"error to idle", StatusError, StatusIdle, true},
		{"error to working", StatusError, StatusWorking, true},
		{"interrupted to idle", StatusInterrupted, StatusIdle, true},
		{"interrupted to working", StatusInterrupted, StatusWorking, false},
		{"completed to idle", StatusCompleted, StatusIdle, true},
		{"completed to working", StatusCompleted, StatusWorking, false},
		{"cancelled is terminal", StatusCancelled, StatusIdle, false},
		{"unknown from", "bogus", StatusIdle, false},
		{"unknown to", StatusIdle, "bogus", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidTransition(tt.from, tt.to))
		})
	}
}

func TestKanbanStageFor(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{StatusInitializing, KanbanBacklog},
		{StatusIdle, KanbanWaiting},
		{StatusWorking, KanbanActive},
		{StatusError, KanbanWaiting},
		{StatusInterrupted, KanbanWaiting},
		{StatusCompleted, KanbanDone},
		{StatusCancelled, KanbanDone},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			assert.Equal(t, tt.want, KanbanStageFor(tt.status))
		})
	}
}

func TestIsValidSessionType(t *testing.T) {
	for _, st := range ValidSessionTypes {
		assert.True(t, IsValidSessionType(st), st)
	}
	assert.False(t, IsValidSessionType(""))
	assert.False(t, IsValidSessionType("manager"))
}
