package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInitialEventStatus(t *testing.T) {
	now := time.Now()

	assert.Equal(t, EventScheduled, InitialEventStatus(now.Add(time.Hour), now))
	assert.Equal(t, EventActive, InitialEventStatus(now, now))
	assert.Equal(t, EventActive, InitialEventStatus(now.Add(-time.Minute), now))
}

func TestEffectiveStatus_TimeDrivenTransitions(t *testing.T) {
	now := time.Now()
	event := OpenHouseEvent{
		Status:    EventScheduled,
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(time.Hour),
	}

	// An event whose window has opened reads as active regardless of the
	// status it was created with.
	assert.Equal(t, EventActive, event.EffectiveStatus(now))

	// Still before the window.
	assert.Equal(t, EventScheduled, event.EffectiveStatus(now.Add(-2*time.Hour)))

	// Past the window, even from scheduled, it reads completed.
	assert.Equal(t, EventCompleted, event.EffectiveStatus(now.Add(2*time.Hour)))
}

func TestEffectiveStatus_TerminalStatesStick(t *testing.T) {
	now := time.Now()
	cancelled := OpenHouseEvent{
		Status:    EventCancelled,
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(time.Hour),
	}
	assert.Equal(t, EventCancelled, cancelled.EffectiveStatus(now))

	completed := OpenHouseEvent{
		Status:    EventCompleted,
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(time.Hour),
	}
	// completed never reverts to active, even inside the window.
	assert.Equal(t, EventCompleted, completed.EffectiveStatus(now))
}

func TestAcceptingJoins(t *testing.T) {
	now := time.Now()
	event := OpenHouseEvent{
		Status:    EventActive,
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(time.Hour),
	}

	assert.True(t, event.AcceptingJoins(now))
	assert.False(t, event.AcceptingJoins(now.Add(-2*time.Hour)))
	assert.False(t, event.AcceptingJoins(now.Add(2*time.Hour)))

	event.Status = EventCancelled
	assert.False(t, event.AcceptingJoins(now))
}
