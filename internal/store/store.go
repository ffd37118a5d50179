// Package store holds the portal's in-memory snapshot of the six remote
// collections. The snapshot is read-through only: every mutation performs one
// remote write and then reloads the whole snapshot, so local state is always
// what the remote store returned on the last successful refresh.
package store

import (
	"context"
	"sync"
	"time"

	"kerala-sedp/internal/models"
	"kerala-sedp/internal/remote"

	"github.com/sirupsen/logrus"
)

type Store struct {
	remote   remote.Client
	notifier Notifier

	mu            sync.RWMutex
	loading       bool
	categories    []models.Category
	panchayaths   []models.Panchayath
	announcements []models.Announcement
	gallery       []models.GalleryItem
	registrations []models.Registration
	notifications []models.Notification
}

func New(client remote.Client, notifier Notifier) *Store {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Store{
		remote:   client,
		notifier: notifier,
	}
}

// Refresh reloads all six collections sequentially. On the first read failure
// the remaining assignments are skipped: collections fetched before the
// failure keep their new values, the rest keep their previous ones. The
// loading flag is cleared on every exit path.
func (s *Store) Refresh(ctx context.Context) {
	s.setLoading(true)
	defer s.setLoading(false)

	if err := s.refresh(ctx); err != nil {
		logrus.WithError(err).Error("refreshing snapshot")
		s.notifier.Notify(Toast{
			Title:       "Error",
			Description: "Failed to load data. Please try again.",
			Severity:    SeverityError,
		})
	}
}

func (s *Store) refresh(ctx context.Context) error {
	var categories []models.Category
	if err := s.remote.Select(ctx, remote.CollectionCategories, remote.Query{
		OrderBy: "name",
	}, &categories); err != nil {
		return err
	}
	s.mu.Lock()
	s.categories = categories
	s.mu.Unlock()

	var panchayaths []models.Panchayath
	if err := s.remote.Select(ctx, remote.CollectionPanchayaths, remote.Query{
		OrderBy: "malayalam_name",
	}, &panchayaths); err != nil {
		return err
	}
	s.mu.Lock()
	s.panchayaths = panchayaths
	s.mu.Unlock()

	var announcements []models.Announcement
	if err := s.remote.Select(ctx, remote.CollectionAnnouncements, remote.Query{
		Filter:  map[string]interface{}{"is_active": true},
		OrderBy: "created_at",
		Desc:    true,
	}, &announcements); err != nil {
		return err
	}
	s.mu.Lock()
	s.announcements = announcements
	s.mu.Unlock()

	var gallery []models.GalleryItem
	if err := s.remote.Select(ctx, remote.CollectionGallery, remote.Query{
		OrderBy: "uploaded_at",
		Desc:    true,
	}, &gallery); err != nil {
		return err
	}
	s.mu.Lock()
	s.gallery = gallery
	s.mu.Unlock()

	var registrations []models.Registration
	if err := s.remote.Select(ctx, remote.CollectionRegistrations, remote.Query{
		OrderBy: "submitted_at",
		Desc:    true,
	}, &registrations); err != nil {
		return err
	}
	s.mu.Lock()
	s.registrations = registrations
	s.mu.Unlock()

	var notifications []models.Notification
	if err := s.remote.Select(ctx, remote.CollectionNotifications, remote.Query{
		OrderBy: "created_at",
		Desc:    true,
	}, &notifications); err != nil {
		return err
	}

	// Records with an unrecognized audience never reach the exposed snapshot.
	valid := notifications[:0]
	for _, n := range notifications {
		if n.TargetAudience.Valid() {
			valid = append(valid, n)
		} else {
			logrus.WithFields(logrus.Fields{
				"notification_id": n.ID,
				"audience":        n.TargetAudience,
			}).Warn("dropping notification with unknown target audience")
		}
	}
	s.mu.Lock()
	s.notifications = valid
	s.mu.Unlock()

	return nil
}

// CreateRegistration inserts a new registration and reloads the snapshot.
// It returns nil when the remote insert fails; the failure is logged and
// surfaced as a toast, never as an error.
func (s *Store) CreateRegistration(ctx context.Context, input models.NewRegistration) *models.Registration {
	record := models.Registration{
		Name:           input.Name,
		MobileNumber:   input.MobileNumber,
		WhatsAppNumber: input.WhatsAppNumber,
		Address:        input.Address,
		PanchayathID:   input.PanchayathID,
		Category:       input.Category,
		Status:         models.RegistrationStatusPending,
		SubmittedAt:    time.Now().UTC(),
	}

	var inserted models.Registration
	if err := s.remote.Insert(ctx, remote.CollectionRegistrations, record, &inserted); err != nil {
		logrus.WithError(err).Error("creating registration")
		s.notifier.Notify(Toast{
			Title:       "Error",
			Description: "Failed to submit registration. Please try again.",
			Severity:    SeverityError,
		})
		return nil
	}

	s.notifier.Notify(Toast{
		Title:       "Success",
		Description: "Registration submitted successfully.",
		Severity:    SeveritySuccess,
	})
	s.Refresh(ctx)
	return &inserted
}

// UpdateRegistrationStatus transitions a registration to approved or rejected
// and stamps approved_at. A non-empty uniqueID is written alongside. The
// remote layer is authoritative for the id's existence.
func (s *Store) UpdateRegistrationStatus(ctx context.Context, id string, status models.RegistrationStatus, uniqueID string) bool {
	patch := map[string]interface{}{
		"status":      status,
		"approved_at": time.Now().UTC(),
	}
	if uniqueID != "" {
		patch["unique_id"] = uniqueID
	}

	err := s.remote.Update(ctx, remote.CollectionRegistrations, map[string]interface{}{"id": id}, patch)
	if err != nil {
		logrus.WithError(err).WithField("registration_id", id).Error("updating registration status")
		s.notifier.Notify(Toast{
			Title:       "Error",
			Description: "Failed to update registration status.",
			Severity:    SeverityError,
		})
		return false
	}

	s.notifier.Notify(Toast{
		Title:       "Success",
		Description: "Registration " + string(status) + ".",
		Severity:    SeveritySuccess,
	})
	s.Refresh(ctx)
	return true
}

func (s *Store) DeleteRegistration(ctx context.Context, id string) bool {
	err := s.remote.Delete(ctx, remote.CollectionRegistrations, map[string]interface{}{"id": id})
	if err != nil {
		logrus.WithError(err).WithField("registration_id", id).Error("deleting registration")
		s.notifier.Notify(Toast{
			Title:       "Error",
			Description: "Failed to delete registration.",
			Severity:    SeverityError,
		})
		return false
	}

	s.notifier.Notify(Toast{
		Title:       "Success",
		Description: "Registration deleted.",
		Severity:    SeveritySuccess,
	})
	s.Refresh(ctx)
	return true
}

// UpdateCategoryImage replaces the image of the category matching name.
// The category name, not the id, is the match key.
func (s *Store) UpdateCategoryImage(ctx context.Context, categoryName, imageURL string) bool {
	err := s.remote.Update(ctx, remote.CollectionCategories,
		map[string]interface{}{"name": categoryName},
		map[string]interface{}{"image_url": imageURL},
	)
	if err != nil {
		logrus.WithError(err).WithField("category", categoryName).Error("updating category image")
		s.notifier.Notify(Toast{
			Title:       "Error",
			Description: "Failed to update category image.",
			Severity:    SeverityError,
		})
		return false
	}

	s.notifier.Notify(Toast{
		Title:       "Success",
		Description: "Category image updated.",
		Severity:    SeveritySuccess,
	})
	s.Refresh(ctx)
	return true
}

// UpdateCategoryFees writes the fee pair and the offer flag in one update so
// the three fields never diverge.
func (s *Store) UpdateCategoryFees(ctx context.Context, categoryName string, actualFee, offerFee float64, hasOffer bool) bool {
	err := s.remote.Update(ctx, remote.CollectionCategories,
		map[string]interface{}{"name": categoryName},
		map[string]interface{}{
			"actual_fee": actualFee,
			"offer_fee":  offerFee,
			"has_offer":  hasOffer,
		},
	)
	if err != nil {
		logrus.WithError(err).WithField("category", categoryName).Error("updating category fees")
		s.notifier.Notify(Toast{
			Title:       "Error",
			Description: "Failed to update category fees.",
			Severity:    SeverityError,
		})
		return false
	}

	s.notifier.Notify(Toast{
		Title:       "Success",
		Description: "Category fees updated.",
		Severity:    SeveritySuccess,
	})
	s.Refresh(ctx)
	return true
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Store) Categories() []models.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Category, len(s.categories))
	copy(out, s.categories)
	return out
}

func (s *Store) Panchayaths() []models.Panchayath {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Panchayath, len(s.panchayaths))
	copy(out, s.panchayaths)
	return out
}

func (s *Store) Announcements() []models.Announcement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Announcement, len(s.announcements))
	copy(out, s.announcements)
	return out
}

func (s *Store) Gallery() []models.GalleryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.GalleryItem, len(s.gallery))
	copy(out, s.gallery)
	return out
}

func (s *Store) Registrations() []models.Registration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Registration, len(s.registrations))
	copy(out, s.registrations)
	return out
}

func (s *Store) Notifications() []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}
