package service

import (
	"context"

	"github.com/google/uuid"
)

// Identity scopes carts and orders: the authenticated user when logged in,
// otherwise the guest-id cookie.
type Identity struct {
	UserID  *uuid.UUID
	GuestID string
}

func UserIdentity(userID uuid.UUID) Identity {
	return Identity{UserID: &userID}
}

func GuestIdentity(guestID string) Identity {
	return Identity{GuestID: guestID}
}

func (id Identity) guestPtr() *string {
	if id.UserID != nil || id.GuestID == "" {
		return nil
	}
	g := id.GuestID
	return &g
}

// Owns reports whether this identity created the given owner pair. Orders
// looked up by gateway id must pass this before any state change.
func (id Identity) Owns(userID *uuid.UUID, guestID *string) bool {
	if id.UserID != nil {
		return userID != nil && *userID == *id.UserID
	}
	return guestID != nil && id.GuestID != "" && *guestID == id.GuestID
}

// EventPublisher pushes domain events to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, event map[string]interface{}) error
}
