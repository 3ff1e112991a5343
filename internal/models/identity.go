package models

import "errors"

type IdentityKind int

const (
	IdentityRegistered IdentityKind = iota
	IdentityGuest
)

var (
	ErrEmptyUserID       = errors.New("registered identity requires a user id")
	ErrIncompleteGuest   = errors.New("guest identity requires name and phone")
	ErrAmbiguousIdentity = errors.New("identity must be registered or guest, not both")
)

// Identity is the tagged union of the two ways a visitor can join a queue:
// a registered user id, or a guest tuple of name + phone (+ optional email).
// Exactly one arm is populated.
type Identity struct {
	Kind       IdentityKind
	UserID     string
	GuestName  string
	GuestPhone string
	GuestEmail string
}

func RegisteredIdentity(userID string) Identity {
	return Identity{Kind: IdentityRegistered, UserID: userID}
}

func GuestIdentity(name, phone, email string) Identity {
	return Identity{Kind: IdentityGuest, GuestName: name, GuestPhone: phone, GuestEmail: email}
}

func (id Identity) Validate() error {
	switch id.Kind {
	case IdentityRegistered:
		if id.UserID == "" {
			return ErrEmptyUserID
		}
		if id.GuestName != "" || id.GuestPhone != "" || id.GuestEmail != "" {
			return ErrAmbiguousIdentity
		}
	case IdentityGuest:
		if id.UserID != "" {
			return ErrAmbiguousIdentity
		}
		if id.GuestName == "" || id.GuestPhone == "" {
			return ErrIncompleteGuest
		}
	default:
		return ErrAmbiguousIdentity
	}
	return nil
}

// Key returns the value used to detect the same identity joining the same
// event twice: the user id for registered visitors, the phone number for
// guests.
func (id Identity) Key() string {
	if id.Kind == IdentityRegistered {
		return id.UserID
	}
	return id.GuestPhone
}
