package models

import "time"

type EntryStatus string

const (
	EntryWaiting   EntryStatus = "waiting"
	EntryTouring   EntryStatus = "touring"
	EntryCompleted EntryStatus = "completed"
	EntrySkipped   EntryStatus = "skipped"
	EntryNoShow    EntryStatus = "no_show"
)

// entryTransitions is the full edge set of the entry state machine. Anything
// not listed here is an invalid transition.
var entryTransitions = map[EntryStatus][]EntryStatus{
	EntryWaiting: {EntryTouring, EntrySkipped, EntryNoShow},
	EntryTouring: {EntryCompleted},
}

// CanTransition reports whether from → to is an allowed entry status change.
func CanTransition(from, to EntryStatus) bool {
	for _, next := range entryTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further status change is defined for s.
func (s EntryStatus) IsTerminal() bool {
	return len(entryTransitions[s]) == 0
}

type WaitlistEntry struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	EventID    uint        `gorm:"not null;index" json:"event_id"`
	UserID     *string     `gorm:"index" json:"user_id,omitempty"`
	GuestName  string      `json:"guest_name,omitempty"`
	GuestPhone string      `json:"guest_phone,omitempty"`
	GuestEmail string      `json:"guest_email,omitempty"`
	// IdentityKey backs the partial unique index guarding double-joins:
	// user id for registered visitors, phone for guests.
	IdentityKey string      `gorm:"not null;index" json:"-"`
	Position    int         `gorm:"not null" json:"position"`
	Status      EntryStatus `gorm:"type:varchar(20);not null;default:'waiting'" json:"status"`

	JoinedAt      time.Time  `gorm:"not null" json:"joined_at"`
	StartedTourAt *time.Time `json:"started_tour_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`

	ExpressedInterest bool   `gorm:"not null;default:false" json:"expressed_interest"`
	ApplicationSent   bool   `gorm:"not null;default:false" json:"application_sent"`
	Notes             string `json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Event *OpenHouseEvent `gorm:"foreignKey:EventID" json:"event,omitempty"`
}

// IsGuest reports whether the entry carries a guest identity rather than a
// registered-user reference.
func (w *WaitlistEntry) IsGuest() bool {
	return w.UserID == nil
}
