// Package ledger owns queue positions. Every entry of an event occupies one
// slot of a dense 1..N sequence, and every mutation that could disturb that
// sequence funnels through here, inside a single transaction holding a row
// lock on the event.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/tanawat-p/openhouse-queue/internal/models"
	"github.com/tanawat-p/openhouse-queue/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrEventNotFound      = errors.New("event not found")
	ErrEntryNotFound      = errors.New("entry not found")
	ErrEventNotAccepting  = errors.New("event is not accepting joins")
	ErrAlreadyQueued      = errors.New("identity already has a live entry in this queue")
	ErrBadPosition        = errors.New("target position is out of range")
	ErrIntegrityViolation = errors.New("positions are no longer sequential")
)

type Ledger struct {
	db      *gorm.DB
	events  repository.EventRepository
	entries repository.EntryRepository
}

func New(db *gorm.DB, events repository.EventRepository, entries repository.EntryRepository) *Ledger {
	return &Ledger{db: db, events: events, entries: entries}
}

// Append creates a waiting entry at position max+1. The event row lock makes
// "read max, insert max+1" atomic against concurrent joins; without it two
// joins could read the same max and collide.
func (l *Ledger) Append(ctx context.Context, eventID uint, identity models.Identity, now time.Time) (*models.WaitlistEntry, error) {
	if err := identity.Validate(); err != nil {
		return nil, err
	}

	var result *models.WaitlistEntry
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event, err := l.events.FindByIDForUpdate(ctx, tx, eventID)
		if err != nil {
			return ErrEventNotFound
		}

		if !event.AcceptingJoins(now) {
			return ErrEventNotAccepting
		}

		_, err = l.entries.FindLiveByIdentity(ctx, tx, eventID, identity.Key())
		if err == nil {
			return ErrAlreadyQueued
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		maxPos, err := l.entries.MaxPosition(ctx, tx, eventID)
		if err != nil {
			return err
		}

		entry := &models.WaitlistEntry{
			EventID:     eventID,
			Position:    maxPos + 1,
			Status:      models.EntryWaiting,
			JoinedAt:    now,
			IdentityKey: identity.Key(),
		}
		switch identity.Kind {
		case models.IdentityRegistered:
			userID := identity.UserID
			entry.UserID = &userID
		case models.IdentityGuest:
			entry.GuestName = identity.GuestName
			entry.GuestPhone = identity.GuestPhone
			entry.GuestEmail = identity.GuestEmail
		}

		if err := l.entries.Create(ctx, tx, entry); err != nil {
			return err
		}
		result = entry
		return nil
	})
	return result, err
}

// Reorder moves one entry to a target position, shifting everything between
// the old and new slot by one in the opposite direction. All updates commit
// together or not at all; the resulting sequence is re-validated before the
// transaction is allowed to commit.
func (l *Ledger) Reorder(ctx context.Context, entryID uint, newPosition int) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var probe models.WaitlistEntry
		if err := tx.WithContext(ctx).First(&probe, entryID).Error; err != nil {
			return ErrEntryNotFound
		}

		if _, err := l.events.FindByIDForUpdate(ctx, tx, probe.EventID); err != nil {
			return ErrEventNotFound
		}

		// Re-read under the lock; the position may have moved since the probe.
		entry, err := l.entries.FindByIDForUpdate(ctx, tx, entryID)
		if err != nil {
			return ErrEntryNotFound
		}

		if newPosition == entry.Position {
			return nil
		}

		maxPos, err := l.entries.MaxPosition(ctx, tx, entry.EventID)
		if err != nil {
			return err
		}
		if newPosition < 1 || newPosition > maxPos {
			return ErrBadPosition
		}

		lo, hi, delta := shiftRange(entry.Position, newPosition)

		// Park the moving entry outside the range so the shift never collides.
		if err := l.entries.UpdatePosition(ctx, tx, entryID, 0); err != nil {
			return err
		}
		if err := l.entries.ShiftPositions(ctx, tx, entry.EventID, lo, hi, delta); err != nil {
			return err
		}
		if err := l.entries.UpdatePosition(ctx, tx, entryID, newPosition); err != nil {
			return err
		}

		return l.validate(ctx, tx, entry.EventID)
	})
}

// RemoveAndCompact deletes an entry and closes the gap it leaves, so the
// remaining entries are dense again.
func (l *Ledger) RemoveAndCompact(ctx context.Context, entryID uint) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var probe models.WaitlistEntry
		if err := tx.WithContext(ctx).First(&probe, entryID).Error; err != nil {
			return ErrEntryNotFound
		}

		if _, err := l.events.FindByIDForUpdate(ctx, tx, probe.EventID); err != nil {
			return ErrEventNotFound
		}

		entry, err := l.entries.FindByIDForUpdate(ctx, tx, entryID)
		if err != nil {
			return ErrEntryNotFound
		}

		maxPos, err := l.entries.MaxPosition(ctx, tx, entry.EventID)
		if err != nil {
			return err
		}

		if err := l.entries.Delete(ctx, tx, entryID); err != nil {
			return err
		}
		if entry.Position < maxPos {
			if err := l.entries.ShiftPositions(ctx, tx, entry.EventID, entry.Position+1, maxPos, -1); err != nil {
				return err
			}
		}

		return l.validate(ctx, tx, entry.EventID)
	})
}

// Repair reassigns positions 1..N in (position, joined_at) order. Idempotent;
// for recovery if corruption is ever observed.
func (l *Ledger) Repair(ctx context.Context, eventID uint) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := l.events.FindByIDForUpdate(ctx, tx, eventID); err != nil {
			return ErrEventNotFound
		}

		entries, err := l.entries.ListForRepair(ctx, tx, eventID)
		if err != nil {
			return err
		}

		for i, entry := range entries {
			want := i + 1
			if entry.Position == want {
				continue
			}
			if err := l.entries.UpdatePosition(ctx, tx, entry.ID, want); err != nil {
				return err
			}
		}
		return nil
	})
}

func (l *Ledger) validate(ctx context.Context, tx *gorm.DB, eventID uint) error {
	positions, err := l.entries.Positions(ctx, tx, eventID)
	if err != nil {
		return err
	}
	if !Sequential(positions) {
		return ErrIntegrityViolation
	}
	return nil
}
