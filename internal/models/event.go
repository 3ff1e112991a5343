package models

import "time"

type EventStatus string

const (
	EventScheduled EventStatus = "scheduled"
	EventActive    EventStatus = "active"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
)

type Property struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	AgentID     string    `gorm:"not null;index" json:"agent_id"`
	Street      string    `gorm:"not null" json:"street"`
	City        string    `gorm:"not null" json:"city"`
	State       string    `json:"state"`
	Zip         string    `json:"zip"`
	Bedrooms    int       `json:"bedrooms"`
	Bathrooms   float64   `json:"bathrooms"`
	Rent        float64   `json:"rent"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type OpenHouseEvent struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	PropertyID uint        `gorm:"not null;index" json:"property_id"`
	AgentID    string      `gorm:"not null;index" json:"agent_id"`
	StartTime  time.Time   `gorm:"not null" json:"start_time"`
	EndTime    time.Time   `gorm:"not null" json:"end_time"`
	Status     EventStatus `gorm:"type:varchar(20);not null;default:'scheduled'" json:"status"`
	JoinToken  string      `gorm:"index" json:"join_token"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`

	Property *Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
}

// InitialEventStatus computes the status an event is created with: active if
// its window has already opened, scheduled otherwise.
func InitialEventStatus(startTime time.Time, now time.Time) EventStatus {
	if !startTime.After(now) {
		return EventActive
	}
	return EventScheduled
}

// EffectiveStatus returns the status the event should hold at the given wall
// clock. Time only moves an event forward (scheduled → active → completed);
// cancelled and completed are terminal and never revisited.
func (e *OpenHouseEvent) EffectiveStatus(now time.Time) EventStatus {
	switch e.Status {
	case EventCancelled, EventCompleted:
		return e.Status
	}
	if !now.Before(e.EndTime) {
		return EventCompleted
	}
	if !now.Before(e.StartTime) {
		return EventActive
	}
	return EventScheduled
}

// AcceptingJoins reports whether a visitor may join the queue right now.
func (e *OpenHouseEvent) AcceptingJoins(now time.Time) bool {
	return e.EffectiveStatus(now) == EventActive &&
		!now.Before(e.StartTime) && !now.After(e.EndTime)
}
