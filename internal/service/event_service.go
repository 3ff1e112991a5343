package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/tanawat-p/openhouse-queue/internal/models"
	"github.com/tanawat-p/openhouse-queue/internal/notify"
	"github.com/tanawat-p/openhouse-queue/internal/repository"
	"github.com/tanawat-p/openhouse-queue/internal/token"
	"github.com/tanawat-p/openhouse-queue/pkg/retry"
	"gorm.io/gorm"
)

var (
	ErrEventNotFound    = errors.New("event not found")
	ErrPropertyNotFound = errors.New("property not found")
	ErrNotPropertyOwner = errors.New("property belongs to another agent")
	ErrPropertyBusy     = errors.New("property already has an open event")
	ErrBadEventWindow   = errors.New("end time must be after start time")
	ErrEventTerminal    = errors.New("event is already completed or cancelled")
	ErrBadJoinToken     = errors.New("join token does not resolve to an event")
)

// findActiveTimeout bounds the dashboard's "what am I hosting right now"
// lookup; past the deadline the caller gets an empty result, never a hang.
const findActiveTimeout = 30 * time.Second

// AgentEvents is one status-consistent snapshot of an agent's upcoming and
// in-progress events.
type AgentEvents struct {
	Scheduled []models.OpenHouseEvent `json:"scheduled"`
	Active    []models.OpenHouseEvent `json:"active"`
}

type EventService interface {
	CreateEvent(ctx context.Context, event *models.OpenHouseEvent) error
	GetEvent(ctx context.Context, id uint) (*models.OpenHouseEvent, error)
	ResolveJoinToken(ctx context.Context, tok string) (*models.OpenHouseEvent, error)
	CategorizeAgentEvents(ctx context.Context, agentID string) (*AgentEvents, error)
	FindActiveEventForAgent(ctx context.Context, agentID string) (*models.OpenHouseEvent, error)
	CancelEvent(ctx context.Context, id uint) (*models.OpenHouseEvent, error)
	DeleteEvent(ctx context.Context, id uint) error
}

type eventService struct {
	events     repository.EventRepository
	properties repository.PropertyRepository
	notifier   notify.Notifier
}

func NewEventService(events repository.EventRepository, properties repository.PropertyRepository, notifier notify.Notifier) EventService {
	return &eventService{events: events, properties: properties, notifier: notifier}
}

func (s *eventService) CreateEvent(ctx context.Context, event *models.OpenHouseEvent) error {
	if !event.EndTime.After(event.StartTime) {
		return ErrBadEventWindow
	}

	property, err := s.properties.FindByID(ctx, event.PropertyID)
	if err != nil {
		return ErrPropertyNotFound
	}
	if property.AgentID != event.AgentID {
		return ErrNotPropertyOwner
	}

	// Soft rule: one non-completed event per property. Enforced here in the
	// creation workflow, not by the database.
	if _, err := s.events.FindOpenByProperty(ctx, event.PropertyID); err == nil {
		return ErrPropertyBusy
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	event.Status = models.InitialEventStatus(event.StartTime, time.Now())
	if err := s.events.Create(ctx, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}

	// The token embeds the event id, so it can only be minted after insert.
	event.JoinToken = token.Encode(event.ID)
	if err := s.events.SetJoinToken(ctx, event.ID, event.JoinToken); err != nil {
		return fmt.Errorf("persist join token: %w", err)
	}

	s.notifier.EventChanged(notify.ActionInsert, event.ID)
	return nil
}

func (s *eventService) GetEvent(ctx context.Context, id uint) (*models.OpenHouseEvent, error) {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		return nil, ErrEventNotFound
	}
	if err := s.syncStatus(ctx, event, time.Now()); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *eventService) ResolveJoinToken(ctx context.Context, tok string) (*models.OpenHouseEvent, error) {
	// Scanned garbage is rejected before it costs a query.
	if _, err := token.Decode(tok); err != nil {
		return nil, ErrBadJoinToken
	}

	event, err := s.events.FindByJoinToken(ctx, tok)
	if err != nil {
		return nil, ErrBadJoinToken
	}
	if err := s.syncStatus(ctx, event, time.Now()); err != nil {
		return nil, err
	}
	return event, nil
}

// CategorizeAgentEvents runs the lazy transition over every non-terminal
// event the agent owns, then partitions. The sync pass completes before any
// partitioning so the snapshot is consistent with one wall-clock instant.
func (s *eventService) CategorizeAgentEvents(ctx context.Context, agentID string) (*AgentEvents, error) {
	events, err := s.events.FindByAgent(ctx, agentID,
		[]models.EventStatus{models.EventScheduled, models.EventActive})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for i := range events {
		if err := s.syncStatus(ctx, &events[i], now); err != nil {
			return nil, err
		}
	}

	result := &AgentEvents{
		Scheduled: []models.OpenHouseEvent{},
		Active:    []models.OpenHouseEvent{},
	}
	for _, event := range events {
		switch event.Status {
		case models.EventScheduled:
			result.Scheduled = append(result.Scheduled, event)
		case models.EventActive:
			result.Active = append(result.Active, event)
		}
	}
	return result, nil
}

// FindActiveEventForAgent returns the agent's currently active event, or nil
// if there is none or the store does not answer within the bounded wait.
func (s *eventService) FindActiveEventForAgent(ctx context.Context, agentID string) (*models.OpenHouseEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, findActiveTimeout)
	defer cancel()

	var snapshot *AgentEvents
	err := retry.Do(ctx, retry.DefaultConfig(), func() error {
		var err error
		snapshot, err = s.CategorizeAgentEvents(ctx, agentID)
		return err
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Printf("[EventService] find active event for agent %s timed out", agentID)
			return nil, nil
		}
		return nil, err
	}

	if len(snapshot.Active) == 0 {
		return nil, nil
	}
	return &snapshot.Active[0], nil
}

func (s *eventService) CancelEvent(ctx context.Context, id uint) (*models.OpenHouseEvent, error) {
	event, err := s.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.Status == models.EventCompleted || event.Status == models.EventCancelled {
		return nil, ErrEventTerminal
	}

	if err := s.events.SetStatus(ctx, id, models.EventCancelled); err != nil {
		return nil, err
	}
	event.Status = models.EventCancelled

	s.notifier.EventChanged(notify.ActionUpdate, id)
	return event, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, id uint) error {
	if _, err := s.events.FindByID(ctx, id); err != nil {
		return ErrEventNotFound
	}
	if err := s.events.Delete(ctx, id); err != nil {
		return err
	}
	s.notifier.EventChanged(notify.ActionDelete, id)
	return nil
}

// syncStatus persists any time-driven transition the stored status is behind
// on, so a read never hands out a status inconsistent with the wall clock.
// The conditional update makes concurrent readers race harmlessly.
func (s *eventService) syncStatus(ctx context.Context, event *models.OpenHouseEvent, now time.Time) error {
	effective := event.EffectiveStatus(now)
	if effective == event.Status {
		return nil
	}

	moved, err := s.events.UpdateStatusIf(ctx, event.ID, event.Status, effective)
	if err != nil {
		return err
	}
	if moved {
		s.notifier.EventChanged(notify.ActionUpdate, event.ID)
	}
	event.Status = effective
	return nil
}
