package dto

import "time"

type CreateEventRequest struct {
	PropertyID uint      `json:"property_id" validate:"required"`
	AgentID    string    `json:"agent_id" validate:"required"`
	StartTime  time.Time `json:"start_time" validate:"required"`
	EndTime    time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
}

// JoinQueueRequest carries exactly one identity form: a registered user id,
// or a guest name + phone (+ optional email).
type JoinQueueRequest struct {
	UserID     string `json:"user_id,omitempty"`
	GuestName  string `json:"guest_name,omitempty"`
	GuestPhone string `json:"guest_phone,omitempty"`
	GuestEmail string `json:"guest_email,omitempty"`
}

type ReorderRequest struct {
	Position int `json:"position" validate:"required,gt=0"`
}

type InterestRequest struct {
	Interested bool `json:"interested"`
}

type NotesRequest struct {
	Notes string `json:"notes"`
}
