package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kerala-sedp/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostedSelectEncodesQuery(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		assert.Equal(t, "service-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]models.Announcement{
			{ID: "a1", Title: "Camp schedule", IsActive: true},
			{ID: "a2", Title: "Fee deadline", IsActive: true},
		})
	}))
	defer server.Close()

	client := NewHosted(server.URL, "service-key")

	var announcements []models.Announcement
	err := client.Select(context.Background(), CollectionAnnouncements, Query{
		Filter:  map[string]interface{}{"is_active": true},
		OrderBy: "created_at",
		Desc:    true,
		Limit:   50,
	}, &announcements)

	require.NoError(t, err)
	assert.Equal(t, "/rest/v1/announcements", gotPath)
	assert.Equal(t, []string{"*"}, gotQuery["select"])
	assert.Equal(t, []string{"eq.true"}, gotQuery["is_active"])
	assert.Equal(t, []string{"created_at.desc"}, gotQuery["order"])
	assert.Equal(t, []string{"50"}, gotQuery["limit"])

	require.Len(t, announcements, 2)
	assert.Equal(t, "Camp schedule", announcements[0].Title)
}

func TestHostedSelectAscendingOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "name.asc", r.URL.Query().Get("order"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewHosted(server.URL, "k")
	var categories []models.Category
	require.NoError(t, client.Select(context.Background(), CollectionCategories, Query{OrderBy: "name"}, &categories))
	assert.Empty(t, categories)
}

func TestHostedSelectErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"permission denied"}`, http.StatusForbidden)
	}))
	defer server.Close()

	client := NewHosted(server.URL, "k")
	var categories []models.Category
	err := client.Select(context.Background(), CollectionCategories, Query{}, &categories)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "categories")
}

func TestHostedInsertReturnsRepresentation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Meera", body["name"])

		body["id"] = "srv-42"
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode([]map[string]interface{}{body})
	}))
	defer server.Close()

	client := NewHosted(server.URL, "k")

	record := models.Registration{
		Name:         "Meera",
		MobileNumber: "9400000002",
		Status:       models.RegistrationStatusPending,
		SubmittedAt:  time.Now().UTC(),
	}
	var inserted models.Registration
	require.NoError(t, client.Insert(context.Background(), CollectionRegistrations, record, &inserted))

	assert.Equal(t, "srv-42", inserted.ID)
	assert.Equal(t, "Meera", inserted.Name)
}

func TestHostedUpdateSendsPatchWithFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "eq.farming", r.URL.Query().Get("name"))

		var patch map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&patch))
		assert.Equal(t, "https://cdn.example.org/f.jpg", patch["image_url"])

		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewHosted(server.URL, "k")
	err := client.Update(context.Background(), CollectionCategories,
		map[string]interface{}{"name": "farming"},
		map[string]interface{}{"image_url": "https://cdn.example.org/f.jpg"},
	)
	require.NoError(t, err)
}

func TestHostedDelete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "eq.r1", r.URL.Query().Get("id"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewHosted(server.URL, "k")
	require.NoError(t, client.Delete(context.Background(), CollectionRegistrations,
		map[string]interface{}{"id": "r1"}))
}

func TestHostedCurrentSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/session", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.Session{
			User: &models.User{ID: "u1", Email: "alice@example.org"},
		})
	}))
	defer server.Close()

	client := NewHosted(server.URL, "k")
	session, err := client.CurrentSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "alice@example.org", session.User.Email)
}

func TestHostedCurrentSessionSignedOut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewHosted(server.URL, "k")
	session, err := client.CurrentSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestHostedSessionChanges(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/v1/stream", r.URL.Path)
		assert.Equal(t, "k", r.URL.Query().Get("apikey"))

		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		conn.WriteJSON(SessionEvent{Session: &models.Session{
			User: &models.User{ID: "u1", Email: "alice@example.org"},
		}})
		conn.WriteJSON(SessionEvent{Session: nil})

		// Hold the connection open until the client closes it.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	client := NewHosted(server.URL, "k")
	sub, err := client.SessionChanges(context.Background())
	require.NoError(t, err)

	select {
	case event := <-sub.Events():
		require.NotNil(t, event.Session)
		assert.Equal(t, "u1", event.Session.User.ID)
	case <-time.After(time.Second):
		t.Fatal("no signed-in event")
	}

	select {
	case event := <-sub.Events():
		assert.Nil(t, event.Session)
	case <-time.After(time.Second):
		t.Fatal("no signed-out event")
	}

	require.NoError(t, sub.Close())

	// Events channel is closed after Close; no further delivery possible.
	_, open := <-sub.Events()
	assert.False(t, open)
}
