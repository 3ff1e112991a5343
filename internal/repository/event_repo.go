package repository

import (
	"context"

	"github.com/tanawat-p/openhouse-queue/internal/models"
	"gorm.io/gorm"
)

type EventRepository interface {
	Create(ctx context.Context, event *models.OpenHouseEvent) error
	FindByID(ctx context.Context, id uint) (*models.OpenHouseEvent, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.OpenHouseEvent, error)
	FindByJoinToken(ctx context.Context, token string) (*models.OpenHouseEvent, error)
	FindByAgent(ctx context.Context, agentID string, statuses []models.EventStatus) ([]models.OpenHouseEvent, error)
	FindOpenByProperty(ctx context.Context, propertyID uint) (*models.OpenHouseEvent, error)
	UpdateStatusIf(ctx context.Context, eventID uint, from, to models.EventStatus) (bool, error)
	SetStatus(ctx context.Context, eventID uint, status models.EventStatus) error
	SetJoinToken(ctx context.Context, eventID uint, token string) error
	Delete(ctx context.Context, eventID uint) error
	GetDB() *gorm.DB
}

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *eventRepository) Create(ctx context.Context, event *models.OpenHouseEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *eventRepository) FindByID(ctx context.Context, id uint) (*models.OpenHouseEvent, error) {
	var event models.OpenHouseEvent
	if err := r.db.WithContext(ctx).First(&event, id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// FindByIDForUpdate acquires a row-level lock on the event within the given
// transaction. Every per-event queue mutation goes through this lock.
func (r *eventRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.OpenHouseEvent, error) {
	var event models.OpenHouseEvent
	if err := tx.WithContext(ctx).
		Set("gorm:query_option", "FOR UPDATE").
		First(&event, id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) FindByJoinToken(ctx context.Context, token string) (*models.OpenHouseEvent, error) {
	var event models.OpenHouseEvent
	if err := r.db.WithContext(ctx).Where("join_token = ?", token).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) FindByAgent(ctx context.Context, agentID string, statuses []models.EventStatus) ([]models.OpenHouseEvent, error) {
	var events []models.OpenHouseEvent
	q := r.db.WithContext(ctx).Where("agent_id = ?", agentID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	if err := q.Order("start_time ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// FindOpenByProperty returns a non-completed, non-cancelled event for the
// property, if one exists. Backs the one-open-event-per-property rule in the
// creation workflow.
func (r *eventRepository) FindOpenByProperty(ctx context.Context, propertyID uint) (*models.OpenHouseEvent, error) {
	var event models.OpenHouseEvent
	err := r.db.WithContext(ctx).
		Where("property_id = ? AND status IN ?",
			propertyID, []models.EventStatus{models.EventScheduled, models.EventActive}).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// UpdateStatusIf persists a lazy time transition. The status precondition
// makes concurrent readers race harmlessly: only one writer moves the row.
func (r *eventRepository) UpdateStatusIf(ctx context.Context, eventID uint, from, to models.EventStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.OpenHouseEvent{}).
		Where("id = ? AND status = ?", eventID, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *eventRepository) SetStatus(ctx context.Context, eventID uint, status models.EventStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.OpenHouseEvent{}).
		Where("id = ?", eventID).
		Update("status", status).Error
}

func (r *eventRepository) SetJoinToken(ctx context.Context, eventID uint, token string) error {
	return r.db.WithContext(ctx).
		Model(&models.OpenHouseEvent{}).
		Where("id = ?", eventID).
		Update("join_token", token).Error
}

// Delete removes the event and cascades to its entries.
func (r *eventRepository) Delete(ctx context.Context, eventID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", eventID).Delete(&models.WaitlistEntry{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.OpenHouseEvent{}, eventID).Error
	})
}
