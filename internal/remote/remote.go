package remote

import (
	"context"
	"errors"

	"kerala-sedp/internal/models"
)

// Collection names on the remote platform. The portal never creates
// collections, it only reads and writes records in these.
const (
	CollectionCategories    = "categories"
	CollectionPanchayaths   = "panchayaths"
	CollectionAnnouncements = "announcements"
	CollectionGallery       = "gallery_items"
	CollectionRegistrations = "registrations"
	CollectionNotifications = "notifications"
)

var ErrNotFound = errors.New("remote: record not found")

// Query describes a read against a named collection. Filter keys are matched
// for equality; OrderBy names a single field.
type Query struct {
	Filter  map[string]interface{}
	OrderBy string
	Desc    bool
	Limit   int64
}

// SessionEvent carries the platform's session after a change. A nil Session
// means the user signed out.
type SessionEvent struct {
	Session *models.Session `json:"session"`
}

// Subscription is a push channel of session changes. Events() is closed after
// Close returns; no event is delivered after Close.
type Subscription interface {
	Events() <-chan SessionEvent
	Close() error
}

// Client is the generic query/mutation contract of the remote platform.
// The portal is transport-agnostic: any backend honoring this contract works.
type Client interface {
	// Select reads records into dest, which must be a pointer to a slice.
	Select(ctx context.Context, collection string, q Query, dest interface{}) error

	// Insert writes record and decodes the stored representation (including
	// server-assigned fields) into dest.
	Insert(ctx context.Context, collection string, record interface{}, dest interface{}) error

	// Update applies patch to every record matching filter.
	Update(ctx context.Context, collection string, filter, patch map[string]interface{}) error

	// Delete removes every record matching filter.
	Delete(ctx context.Context, collection string, filter map[string]interface{}) error

	// CurrentSession returns the platform's current session, or (nil, nil)
	// when nobody is signed in.
	CurrentSession(ctx context.Context) (*models.Session, error)

	// SessionChanges opens a push subscription to session-change events.
	SessionChanges(ctx context.Context) (Subscription, error)
}
