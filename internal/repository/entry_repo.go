package repository

import (
	"context"
	"time"

	"github.com/tanawat-p/openhouse-queue/internal/models"
	"gorm.io/gorm"
)

type EntryRepository interface {
	Create(ctx context.Context, tx *gorm.DB, entry *models.WaitlistEntry) error
	FindByID(ctx context.Context, id uint) (*models.WaitlistEntry, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.WaitlistEntry, error)
	FindByEventID(ctx context.Context, eventID uint, status *models.EntryStatus) ([]models.WaitlistEntry, error)
	FindLiveByIdentity(ctx context.Context, tx *gorm.DB, eventID uint, identityKey string) (*models.WaitlistEntry, error)
	FirstWaiting(ctx context.Context, tx *gorm.DB, eventID uint) (*models.WaitlistEntry, error)
	MaxPosition(ctx context.Context, tx *gorm.DB, eventID uint) (int, error)
	Positions(ctx context.Context, tx *gorm.DB, eventID uint) ([]int, error)
	UpdatePosition(ctx context.Context, tx *gorm.DB, entryID uint, position int) error
	ShiftPositions(ctx context.Context, tx *gorm.DB, eventID uint, lo, hi, delta int) error
	ListForRepair(ctx context.Context, tx *gorm.DB, eventID uint) ([]models.WaitlistEntry, error)
	TransitionStatus(ctx context.Context, tx *gorm.DB, entryID uint, from, to models.EntryStatus, stampColumn string, stamp time.Time) (bool, error)
	SetInterestByUser(ctx context.Context, entryID uint, userID string, interested bool) (bool, error)
	SetInterestByGuest(ctx context.Context, entryID uint, guestPhone string, interested bool) (bool, error)
	UpdateNotes(ctx context.Context, entryID uint, notes string) error
	MarkApplicationSent(ctx context.Context, entryID uint) error
	Delete(ctx context.Context, tx *gorm.DB, entryID uint) error
	GetDB() *gorm.DB
}

type entryRepository struct {
	db *gorm.DB
}

func NewEntryRepository(db *gorm.DB) EntryRepository {
	return &entryRepository{db: db}
}

func (r *entryRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *entryRepository) Create(ctx context.Context, tx *gorm.DB, entry *models.WaitlistEntry) error {
	return tx.WithContext(ctx).Create(entry).Error
}

func (r *entryRepository) FindByID(ctx context.Context, id uint) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	if err := r.db.WithContext(ctx).First(&entry, id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindByIDForUpdate locks the entry row within the given transaction.
func (r *entryRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	if err := tx.WithContext(ctx).
		Set("gorm:query_option", "FOR UPDATE").
		First(&entry, id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *entryRepository) FindByEventID(ctx context.Context, eventID uint, status *models.EntryStatus) ([]models.WaitlistEntry, error) {
	var entries []models.WaitlistEntry
	q := r.db.WithContext(ctx).Where("event_id = ?", eventID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if err := q.Order("position ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *entryRepository) FindLiveByIdentity(ctx context.Context, tx *gorm.DB, eventID uint, identityKey string) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	err := tx.WithContext(ctx).
		Where("event_id = ? AND identity_key = ? AND status IN ?",
			eventID, identityKey, []models.EntryStatus{models.EntryWaiting, models.EntryTouring}).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// FirstWaiting returns the lowest-position waiting entry for call-next.
func (r *entryRepository) FirstWaiting(ctx context.Context, tx *gorm.DB, eventID uint) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	err := tx.WithContext(ctx).
		Where("event_id = ? AND status = ?", eventID, models.EntryWaiting).
		Order("position ASC").
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *entryRepository) MaxPosition(ctx context.Context, tx *gorm.DB, eventID uint) (int, error) {
	var maxPos int
	err := tx.WithContext(ctx).
		Model(&models.WaitlistEntry{}).
		Where("event_id = ?", eventID).
		Select("COALESCE(MAX(position), 0)").
		Scan(&maxPos).Error
	return maxPos, err
}

func (r *entryRepository) Positions(ctx context.Context, tx *gorm.DB, eventID uint) ([]int, error) {
	var positions []int
	err := tx.WithContext(ctx).
		Model(&models.WaitlistEntry{}).
		Where("event_id = ?", eventID).
		Order("position ASC").
		Pluck("position", &positions).Error
	return positions, err
}

func (r *entryRepository) UpdatePosition(ctx context.Context, tx *gorm.DB, entryID uint, position int) error {
	return tx.WithContext(ctx).
		Model(&models.WaitlistEntry{}).
		Where("id = ?", entryID).
		Update("position", position).Error
}

// ShiftPositions adds delta to the position of every entry of the event whose
// position lies in [lo, hi].
func (r *entryRepository) ShiftPositions(ctx context.Context, tx *gorm.DB, eventID uint, lo, hi, delta int) error {
	return tx.WithContext(ctx).
		Model(&models.WaitlistEntry{}).
		Where("event_id = ? AND position >= ? AND position <= ?", eventID, lo, hi).
		Update("position", gorm.Expr("position + ?", delta)).Error
}

// ListForRepair returns the event's entries in (position, joined_at) order,
// the canonical order positions are reassigned in.
func (r *entryRepository) ListForRepair(ctx context.Context, tx *gorm.DB, eventID uint) ([]models.WaitlistEntry, error) {
	var entries []models.WaitlistEntry
	err := tx.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("position ASC, joined_at ASC").
		Find(&entries).Error
	return entries, err
}

// TransitionStatus applies a status change conditioned on the current status,
// optionally stamping a timestamp column only if it is still null. The bool
// result reports whether a row actually moved; false means another writer got
// there first or the transition was never legal for the row's real status.
func (r *entryRepository) TransitionStatus(ctx context.Context, tx *gorm.DB, entryID uint, from, to models.EntryStatus, stampColumn string, stamp time.Time) (bool, error) {
	updates := map[string]any{"status": to}
	if stampColumn != "" {
		updates[stampColumn] = gorm.Expr("COALESCE("+stampColumn+", ?)", stamp)
	}
	res := tx.WithContext(ctx).
		Model(&models.WaitlistEntry{}).
		Where("id = ? AND status = ?", entryID, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *entryRepository) SetInterestByUser(ctx context.Context, entryID uint, userID string, interested bool) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.WaitlistEntry{}).
		Where("id = ? AND user_id = ?", entryID, userID).
		Update("expressed_interest", interested)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *entryRepository) SetInterestByGuest(ctx context.Context, entryID uint, guestPhone string, interested bool) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.WaitlistEntry{}).
		Where("id = ? AND user_id IS NULL AND guest_phone = ?", entryID, guestPhone).
		Update("expressed_interest", interested)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *entryRepository) UpdateNotes(ctx context.Context, entryID uint, notes string) error {
	return r.db.WithContext(ctx).
		Model(&models.WaitlistEntry{}).
		Where("id = ?", entryID).
		Update("notes", notes).Error
}

func (r *entryRepository) MarkApplicationSent(ctx context.Context, entryID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.WaitlistEntry{}).
		Where("id = ?", entryID).
		Update("application_sent", true).Error
}

func (r *entryRepository) Delete(ctx context.Context, tx *gorm.DB, entryID uint) error {
	return tx.WithContext(ctx).Delete(&models.WaitlistEntry{}, entryID).Error
}
