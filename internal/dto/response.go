package dto

import (
	"time"

	"github.com/tanawat-p/openhouse-queue/internal/models"
)

type EventResponse struct {
	ID         uint               `json:"id"`
	PropertyID uint               `json:"property_id"`
	AgentID    string             `json:"agent_id"`
	StartTime  time.Time          `json:"start_time"`
	EndTime    time.Time          `json:"end_time"`
	Status     models.EventStatus `json:"status"`
	JoinToken  string             `json:"join_token"`
	CreatedAt  time.Time          `json:"created_at"`
}

type EntryResponse struct {
	ID                uint               `json:"id"`
	EventID           uint               `json:"event_id"`
	UserID            *string            `json:"user_id,omitempty"`
	GuestName         string             `json:"guest_name,omitempty"`
	GuestPhone        string             `json:"guest_phone,omitempty"`
	GuestEmail        string             `json:"guest_email,omitempty"`
	Position          int                `json:"position"`
	Status            models.EntryStatus `json:"status"`
	JoinedAt          time.Time          `json:"joined_at"`
	StartedTourAt     *time.Time         `json:"started_tour_at,omitempty"`
	CompletedAt       *time.Time         `json:"completed_at,omitempty"`
	ExpressedInterest bool               `json:"expressed_interest"`
	ApplicationSent   bool               `json:"application_sent"`
	Notes             string             `json:"notes,omitempty"`
}

type AgentEventsResponse struct {
	Scheduled []EventResponse `json:"scheduled"`
	Active    []EventResponse `json:"active"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func ToEventResponse(e *models.OpenHouseEvent) EventResponse {
	return EventResponse{
		ID:         e.ID,
		PropertyID: e.PropertyID,
		AgentID:    e.AgentID,
		StartTime:  e.StartTime,
		EndTime:    e.EndTime,
		Status:     e.Status,
		JoinToken:  e.JoinToken,
		CreatedAt:  e.CreatedAt,
	}
}

func ToEventResponses(events []models.OpenHouseEvent) []EventResponse {
	resp := make([]EventResponse, len(events))
	for i := range events {
		resp[i] = ToEventResponse(&events[i])
	}
	return resp
}

func ToEntryResponse(w *models.WaitlistEntry) EntryResponse {
	return EntryResponse{
		ID:                w.ID,
		EventID:           w.EventID,
		UserID:            w.UserID,
		GuestName:         w.GuestName,
		GuestPhone:        w.GuestPhone,
		GuestEmail:        w.GuestEmail,
		Position:          w.Position,
		Status:            w.Status,
		JoinedAt:          w.JoinedAt,
		StartedTourAt:     w.StartedTourAt,
		CompletedAt:       w.CompletedAt,
		ExpressedInterest: w.ExpressedInterest,
		ApplicationSent:   w.ApplicationSent,
		Notes:             w.Notes,
	}
}
