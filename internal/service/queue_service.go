package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/tanawat-p/openhouse-queue/internal/ledger"
	"github.com/tanawat-p/openhouse-queue/internal/models"
	"github.com/tanawat-p/openhouse-queue/internal/notify"
	"github.com/tanawat-p/openhouse-queue/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrEntryNotFound      = errors.New("entry not found")
	ErrEventNotActive     = errors.New("event is not active")
	ErrEventNotStarted    = errors.New("event has not started yet")
	ErrEventEnded         = errors.New("event has already ended")
	ErrAlreadyQueued      = errors.New("you are already in this queue")
	ErrInvalidTransition  = errors.New("entry status does not allow this change")
	ErrBadPosition        = errors.New("target position is out of range")
	ErrIntegrityViolation = errors.New("queue positions would no longer be sequential")
)

// PositionLedger is the slice of the ledger the orchestrator drives.
// Satisfied by *ledger.Ledger.
type PositionLedger interface {
	Append(ctx context.Context, eventID uint, identity models.Identity, now time.Time) (*models.WaitlistEntry, error)
	Reorder(ctx context.Context, entryID uint, newPosition int) error
	RemoveAndCompact(ctx context.Context, entryID uint) error
	Repair(ctx context.Context, eventID uint) error
}

type QueueService interface {
	JoinQueue(ctx context.Context, eventID uint, identity models.Identity) (*models.WaitlistEntry, error)
	// CallNext returns (nil, nil) when no one is waiting; an empty queue is
	// an expected outcome, not an error.
	CallNext(ctx context.Context, eventID uint) (*models.WaitlistEntry, error)
	CompleteTour(ctx context.Context, entryID uint) (*models.WaitlistEntry, error)
	SkipEntry(ctx context.Context, entryID uint) (*models.WaitlistEntry, error)
	MarkNoShow(ctx context.Context, entryID uint) (*models.WaitlistEntry, error)
	Reorder(ctx context.Context, entryID uint, newPosition int) error
	ListQueue(ctx context.Context, eventID uint) ([]models.WaitlistEntry, error)
	GetEntry(ctx context.Context, entryID uint) (*models.WaitlistEntry, error)
	ExpressInterest(ctx context.Context, entryID uint, interested bool) (*models.WaitlistEntry, error)
	UpdateNotes(ctx context.Context, entryID uint, notes string) (*models.WaitlistEntry, error)
	MarkApplicationSent(ctx context.Context, entryID uint) (*models.WaitlistEntry, error)
	RemoveEntry(ctx context.Context, entryID uint) error
	RepairPositions(ctx context.Context, eventID uint) error
}

type queueService struct {
	ledger   PositionLedger
	entries  repository.EntryRepository
	events   repository.EventRepository
	eventSvc EventService
	notifier notify.Notifier
}

func NewQueueService(l PositionLedger, entries repository.EntryRepository, events repository.EventRepository, eventSvc EventService, notifier notify.Notifier) QueueService {
	return &queueService{
		ledger:   l,
		entries:  entries,
		events:   events,
		eventSvc: eventSvc,
		notifier: notifier,
	}
}

func (s *queueService) JoinQueue(ctx context.Context, eventID uint, identity models.Identity) (*models.WaitlistEntry, error) {
	// GetEvent applies the lazy time transition, so the gate below sees the
	// status the wall clock implies, not a stale row.
	event, err := s.eventSvc.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	switch event.Status {
	case models.EventScheduled:
		return nil, ErrEventNotStarted
	case models.EventCompleted:
		return nil, ErrEventEnded
	case models.EventCancelled:
		return nil, ErrEventNotActive
	}
	if now.Before(event.StartTime) {
		return nil, ErrEventNotStarted
	}
	if now.After(event.EndTime) {
		return nil, ErrEventEnded
	}

	entry, err := s.ledger.Append(ctx, eventID, identity, now)
	if err != nil {
		return nil, mapLedgerErr(err)
	}

	s.notifier.EntryChanged(notify.ActionInsert, eventID, entry.ID)
	return entry, nil
}

// CallNext picks the lowest-position waiting entry and moves it to touring.
// The event row lock serializes two agent sessions pressing the button at
// once; the loser simply calls the next visitor after them.
func (s *queueService) CallNext(ctx context.Context, eventID uint) (*models.WaitlistEntry, error) {
	var result *models.WaitlistEntry

	err := s.entries.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.events.FindByIDForUpdate(ctx, tx, eventID); err != nil {
			return ErrEventNotFound
		}

		entry, err := s.entries.FirstWaiting(ctx, tx, eventID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil // queue empty
			}
			return err
		}

		now := time.Now()
		moved, err := s.entries.TransitionStatus(ctx, tx, entry.ID,
			models.EntryWaiting, models.EntryTouring, "started_tour_at", now)
		if err != nil {
			return err
		}
		if !moved {
			log.Printf("[QueueService] call-next lost transition race on entry %d", entry.ID)
			return ErrInvalidTransition
		}

		entry.Status = models.EntryTouring
		if entry.StartedTourAt == nil {
			entry.StartedTourAt = &now
		}
		result = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result != nil {
		s.notifier.EntryChanged(notify.ActionUpdate, eventID, result.ID)
	}
	return result, nil
}

func (s *queueService) CompleteTour(ctx context.Context, entryID uint) (*models.WaitlistEntry, error) {
	return s.transition(ctx, entryID, models.EntryTouring, models.EntryCompleted, "completed_at")
}

func (s *queueService) SkipEntry(ctx context.Context, entryID uint) (*models.WaitlistEntry, error) {
	return s.transition(ctx, entryID, models.EntryWaiting, models.EntrySkipped, "")
}

func (s *queueService) MarkNoShow(ctx context.Context, entryID uint) (*models.WaitlistEntry, error) {
	return s.transition(ctx, entryID, models.EntryWaiting, models.EntryNoShow, "")
}

// transition applies one edge of the entry state machine. The status
// precondition rides in the UPDATE's WHERE clause, so of two racing agent
// sessions exactly one wins; the loser gets ErrInvalidTransition and no
// timestamp is ever overwritten.
func (s *queueService) transition(ctx context.Context, entryID uint, from, to models.EntryStatus, stampColumn string) (*models.WaitlistEntry, error) {
	entry, err := s.entries.FindByID(ctx, entryID)
	if err != nil {
		return nil, ErrEntryNotFound
	}

	if !models.CanTransition(entry.Status, to) {
		return nil, ErrInvalidTransition
	}

	now := time.Now()
	moved, err := s.entries.TransitionStatus(ctx, s.entries.GetDB(), entryID, from, to, stampColumn, now)
	if err != nil {
		return nil, err
	}
	if !moved {
		log.Printf("[QueueService] transition %s→%s lost race on entry %d", from, to, entryID)
		return nil, ErrInvalidTransition
	}

	entry.Status = to
	switch stampColumn {
	case "started_tour_at":
		if entry.StartedTourAt == nil {
			entry.StartedTourAt = &now
		}
	case "completed_at":
		if entry.CompletedAt == nil {
			entry.CompletedAt = &now
		}
	}

	s.notifier.EntryChanged(notify.ActionUpdate, entry.EventID, entryID)
	return entry, nil
}

func (s *queueService) Reorder(ctx context.Context, entryID uint, newPosition int) error {
	entry, err := s.entries.FindByID(ctx, entryID)
	if err != nil {
		return ErrEntryNotFound
	}

	if err := s.ledger.Reorder(ctx, entryID, newPosition); err != nil {
		return mapLedgerErr(err)
	}

	s.notifier.EntryChanged(notify.ActionUpdate, entry.EventID, entryID)
	return nil
}

func (s *queueService) ListQueue(ctx context.Context, eventID uint) ([]models.WaitlistEntry, error) {
	if _, err := s.events.FindByID(ctx, eventID); err != nil {
		return nil, ErrEventNotFound
	}
	return s.entries.FindByEventID(ctx, eventID, nil)
}

func (s *queueService) GetEntry(ctx context.Context, entryID uint) (*models.WaitlistEntry, error) {
	entry, err := s.entries.FindByID(ctx, entryID)
	if err != nil {
		return nil, ErrEntryNotFound
	}
	return entry, nil
}

// ExpressInterest is one uniform call for both identity kinds. The primary
// update path matches the entry's own kind; if the store's policy refuses it
// (zero rows), the alternate path is tried before giving up. The caller never
// learns which path went through.
func (s *queueService) ExpressInterest(ctx context.Context, entryID uint, interested bool) (*models.WaitlistEntry, error) {
	entry, err := s.entries.FindByID(ctx, entryID)
	if err != nil {
		return nil, ErrEntryNotFound
	}

	var paths []func() (bool, error)
	if entry.IsGuest() {
		paths = []func() (bool, error){
			func() (bool, error) {
				return s.entries.SetInterestByGuest(ctx, entryID, entry.GuestPhone, interested)
			},
			func() (bool, error) {
				return s.entries.SetInterestByUser(ctx, entryID, entry.IdentityKey, interested)
			},
		}
	} else {
		paths = []func() (bool, error){
			func() (bool, error) {
				return s.entries.SetInterestByUser(ctx, entryID, *entry.UserID, interested)
			},
			func() (bool, error) {
				return s.entries.SetInterestByGuest(ctx, entryID, entry.GuestPhone, interested)
			},
		}
	}

	updated := false
	for _, attempt := range paths {
		ok, err := attempt()
		if err != nil {
			return nil, err
		}
		if ok {
			updated = true
			break
		}
	}
	if !updated {
		return nil, ErrEntryNotFound
	}

	entry.ExpressedInterest = interested
	s.notifier.EntryChanged(notify.ActionUpdate, entry.EventID, entryID)
	return entry, nil
}

func (s *queueService) UpdateNotes(ctx context.Context, entryID uint, notes string) (*models.WaitlistEntry, error) {
	entry, err := s.entries.FindByID(ctx, entryID)
	if err != nil {
		return nil, ErrEntryNotFound
	}
	if err := s.entries.UpdateNotes(ctx, entryID, notes); err != nil {
		return nil, err
	}
	entry.Notes = notes
	s.notifier.EntryChanged(notify.ActionUpdate, entry.EventID, entryID)
	return entry, nil
}

func (s *queueService) MarkApplicationSent(ctx context.Context, entryID uint) (*models.WaitlistEntry, error) {
	entry, err := s.entries.FindByID(ctx, entryID)
	if err != nil {
		return nil, ErrEntryNotFound
	}
	if err := s.entries.MarkApplicationSent(ctx, entryID); err != nil {
		return nil, err
	}
	entry.ApplicationSent = true
	s.notifier.EntryChanged(notify.ActionUpdate, entry.EventID, entryID)
	return entry, nil
}

func (s *queueService) RemoveEntry(ctx context.Context, entryID uint) error {
	entry, err := s.entries.FindByID(ctx, entryID)
	if err != nil {
		return ErrEntryNotFound
	}

	if err := s.ledger.RemoveAndCompact(ctx, entryID); err != nil {
		return mapLedgerErr(err)
	}

	s.notifier.EntryChanged(notify.ActionDelete, entry.EventID, entryID)
	return nil
}

func (s *queueService) RepairPositions(ctx context.Context, eventID uint) error {
	if err := s.ledger.Repair(ctx, eventID); err != nil {
		return mapLedgerErr(err)
	}
	s.notifier.EntryChanged(notify.ActionUpdate, eventID, 0)
	return nil
}

func mapLedgerErr(err error) error {
	switch {
	case errors.Is(err, ledger.ErrEventNotFound):
		return ErrEventNotFound
	case errors.Is(err, ledger.ErrEntryNotFound):
		return ErrEntryNotFound
	case errors.Is(err, ledger.ErrEventNotAccepting):
		return ErrEventNotActive
	case errors.Is(err, ledger.ErrAlreadyQueued):
		return ErrAlreadyQueued
	case errors.Is(err, ledger.ErrBadPosition):
		return ErrBadPosition
	case errors.Is(err, ledger.ErrIntegrityViolation):
		return ErrIntegrityViolation
	default:
		return err
	}
}
