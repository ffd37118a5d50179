// Package session mirrors the auth platform's current session. The store is
// an explicitly constructed object passed to its consumers; there is no
// package-level instance.
package session

import (
	"context"
	"sync"

	"kerala-sedp/internal/models"
	"kerala-sedp/internal/remote"

	"github.com/sirupsen/logrus"
)

type Store struct {
	remote remote.Client

	mu        sync.RWMutex
	user      *models.User
	started   bool
	callbacks []func(*models.User)

	sub       remote.Subscription
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func New(client remote.Client) *Store {
	return &Store{remote: client}
}

// Start performs the initial session lookup and opens the push subscription.
// A failed lookup leaves the user unset (signed out) rather than failing the
// start; a failed subscription is a hard error since the mirror would go
// permanently stale.
func (s *Store) Start(ctx context.Context) error {
	current, err := s.remote.CurrentSession(ctx)
	if err != nil {
		logrus.WithError(err).Error("initial session lookup")
		current = nil
	}

	s.mu.Lock()
	s.started = true
	if current != nil {
		s.user = current.User
	}
	s.mu.Unlock()

	sub, err := s.remote.SessionChanges(ctx)
	if err != nil {
		return err
	}
	s.sub = sub

	s.wg.Add(1)
	go s.loop()
	return nil
}

func (s *Store) loop() {
	defer s.wg.Done()

	for event := range s.sub.Events() {
		var user *models.User
		if event.Session != nil {
			user = event.Session.User
		}
		s.setUser(user)
	}
}

func (s *Store) setUser(user *models.User) {
	s.mu.Lock()
	s.user = user
	callbacks := make([]func(*models.User), len(s.callbacks))
	copy(callbacks, s.callbacks)
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn(user)
	}
}

// Current returns the mirrored user. The second result reports whether the
// store has been started: (nil, true) means "started, nobody signed in",
// (nil, false) means the mirror is not running at all. The two conditions are
// deliberately kept distinguishable.
func (s *Store) Current() (*models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.started
}

// OnChange registers fn to run on every session change. Callbacks run on the
// subscription's delivery goroutine and never after Close has returned.
func (s *Store) OnChange(fn func(*models.User)) {
	s.mu.Lock()
	s.callbacks = append(s.callbacks, fn)
	s.mu.Unlock()
}

// Close releases the push subscription. It returns only after the delivery
// goroutine has exited, so no callback fires after teardown.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.sub != nil {
			err = s.sub.Close()
			s.wg.Wait()
		}
		s.mu.Lock()
		s.started = false
		s.mu.Unlock()
	})
	return err
}
