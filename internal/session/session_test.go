package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"kerala-sedp/internal/models"
	"kerala-sedp/internal/remote"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubscription struct {
	events    chan remote.SessionEvent
	done      chan struct{}
	closeOnce sync.Once
}

func newFakeSubscription() *fakeSubscription {
	return &fakeSubscription{
		events: make(chan remote.SessionEvent),
		done:   make(chan struct{}),
	}
}

func (s *fakeSubscription) Events() <-chan remote.SessionEvent {
	return s.events
}

func (s *fakeSubscription) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		close(s.events)
	})
	return nil
}

// emit reports whether the event was delivered; after Close it is dropped.
func (s *fakeSubscription) emit(event remote.SessionEvent) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case <-s.done:
		return false
	case s.events <- event:
		return true
	}
}

type fakeSessionClient struct {
	session    *models.Session
	sessionErr error
	sub        *fakeSubscription
	subErr     error
}

var _ remote.Client = (*fakeSessionClient)(nil)

func (f *fakeSessionClient) Select(ctx context.Context, collection string, q remote.Query, dest interface{}) error {
	return errors.New("not supported")
}

func (f *fakeSessionClient) Insert(ctx context.Context, collection string, record, dest interface{}) error {
	return errors.New("not supported")
}

func (f *fakeSessionClient) Update(ctx context.Context, collection string, filter, patch map[string]interface{}) error {
	return errors.New("not supported")
}

func (f *fakeSessionClient) Delete(ctx context.Context, collection string, filter map[string]interface{}) error {
	return errors.New("not supported")
}

func (f *fakeSessionClient) CurrentSession(ctx context.Context) (*models.Session, error) {
	return f.session, f.sessionErr
}

func (f *fakeSessionClient) SessionChanges(ctx context.Context) (remote.Subscription, error) {
	if f.subErr != nil {
		return nil, f.subErr
	}
	return f.sub, nil
}

func alice() *models.User {
	return &models.User{ID: "u1", Email: "alice@example.org", Role: "admin"}
}

func TestCurrentBeforeStart(t *testing.T) {
	s := New(&fakeSessionClient{sub: newFakeSubscription()})

	user, started := s.Current()
	assert.Nil(t, user)
	assert.False(t, started)
}

func TestStartMirrorsExistingSession(t *testing.T) {
	client := &fakeSessionClient{
		session: &models.Session{User: alice()},
		sub:     newFakeSubscription(),
	}
	s := New(client)
	require.NoError(t, s.Start(context.Background()))
	defer s.Close()

	// The initial user is visible immediately, before any push event.
	user, started := s.Current()
	require.True(t, started)
	require.NotNil(t, user)
	assert.Equal(t, "alice@example.org", user.Email)
}

func TestStartWithNoSession(t *testing.T) {
	client := &fakeSessionClient{sub: newFakeSubscription()}
	s := New(client)
	require.NoError(t, s.Start(context.Background()))
	defer s.Close()

	user, started := s.Current()
	assert.True(t, started)
	assert.Nil(t, user)
}

func TestStartSurvivesLookupFailure(t *testing.T) {
	client := &fakeSessionClient{
		sessionErr: errors.New("lookup down"),
		sub:        newFakeSubscription(),
	}
	s := New(client)
	require.NoError(t, s.Start(context.Background()))
	defer s.Close()

	user, started := s.Current()
	assert.True(t, started)
	assert.Nil(t, user)
}

func TestStartFailsWhenSubscriptionFails(t *testing.T) {
	client := &fakeSessionClient{subErr: errors.New("stream down")}
	s := New(client)
	assert.Error(t, s.Start(context.Background()))
}

func TestPushEventReplacesUser(t *testing.T) {
	sub := newFakeSubscription()
	client := &fakeSessionClient{sub: sub}
	s := New(client)
	require.NoError(t, s.Start(context.Background()))
	defer s.Close()

	require.True(t, sub.emit(remote.SessionEvent{Session: &models.Session{User: alice()}}))

	require.Eventually(t, func() bool {
		user, _ := s.Current()
		return user != nil && user.ID == "u1"
	}, time.Second, 5*time.Millisecond)
}

func TestSignOutEventClearsUser(t *testing.T) {
	sub := newFakeSubscription()
	client := &fakeSessionClient{
		session: &models.Session{User: alice()},
		sub:     sub,
	}
	s := New(client)
	require.NoError(t, s.Start(context.Background()))
	defer s.Close()

	// An event carrying no session means the user signed out.
	require.True(t, sub.emit(remote.SessionEvent{Session: nil}))

	require.Eventually(t, func() bool {
		user, started := s.Current()
		return started && user == nil
	}, time.Second, 5*time.Millisecond)
}

func TestOnChangeCallbackRuns(t *testing.T) {
	sub := newFakeSubscription()
	s := New(&fakeSessionClient{sub: sub})

	changes := make(chan *models.User, 4)
	s.OnChange(func(user *models.User) {
		changes <- user
	})

	require.NoError(t, s.Start(context.Background()))
	defer s.Close()

	require.True(t, sub.emit(remote.SessionEvent{Session: &models.Session{User: alice()}}))

	select {
	case user := <-changes:
		require.NotNil(t, user)
		assert.Equal(t, "u1", user.ID)
	case <-time.After(time.Second):
		t.Fatal("callback never ran")
	}
}

func TestNoCallbackAfterClose(t *testing.T) {
	sub := newFakeSubscription()
	s := New(&fakeSessionClient{sub: sub})

	var count int
	var mu sync.Mutex
	s.OnChange(func(*models.User) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	require.NoError(t, s.Start(context.Background()))
	require.True(t, sub.emit(remote.SessionEvent{Session: &models.Session{User: alice()}}))

	require.NoError(t, s.Close())

	mu.Lock()
	after := count
	mu.Unlock()

	// The subscription drops events once released.
	assert.False(t, sub.emit(remote.SessionEvent{Session: nil}))

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, after, count)
	mu.Unlock()
}

func TestCloseIsIdempotent(t *testing.T) {
	sub := newFakeSubscription()
	s := New(&fakeSessionClient{sub: sub})
	require.NoError(t, s.Start(context.Background()))

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, started := s.Current()
	assert.False(t, started)
}
