package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"kerala-sedp/internal/models"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Hosted talks to the managed database platform over its REST data API and
// its auth endpoints. Data requests are authorized with the service key.
type Hosted struct {
	http    *resty.Client
	baseURL string
	key     string
}

func NewHosted(baseURL, key string) *Hosted {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("apikey", key).
		SetAuthToken(key).
		SetHeader("Content-Type", "application/json")

	return &Hosted{
		http:    client,
		baseURL: baseURL,
		key:     key,
	}
}

func (h *Hosted) Select(ctx context.Context, collection string, q Query, dest interface{}) error {
	req := h.http.R().
		SetContext(ctx).
		SetQueryParam("select", "*").
		SetResult(dest)

	for key, value := range q.Filter {
		req.SetQueryParam(key, fmt.Sprintf("eq.%v", value))
	}
	if q.OrderBy != "" {
		direction := "asc"
		if q.Desc {
			direction = "desc"
		}
		req.SetQueryParam("order", q.OrderBy+"."+direction)
	}
	if q.Limit > 0 {
		req.SetQueryParam("limit", strconv.FormatInt(q.Limit, 10))
	}

	resp, err := req.Get("/rest/v1/" + collection)
	if err != nil {
		return fmt.Errorf("select %s: %w", collection, err)
	}
	if resp.IsError() {
		return fmt.Errorf("select %s: %s: %s", collection, resp.Status(), resp.String())
	}
	return nil
}

func (h *Hosted) Insert(ctx context.Context, collection string, record interface{}, dest interface{}) error {
	resp, err := h.http.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetBody(record).
		Post("/rest/v1/" + collection)
	if err != nil {
		return fmt.Errorf("insert %s: %w", collection, err)
	}
	if resp.IsError() {
		return fmt.Errorf("insert %s: %s: %s", collection, resp.Status(), resp.String())
	}

	// The data API returns the stored representation as a single-element array.
	var rows []json.RawMessage
	if err := json.Unmarshal(resp.Body(), &rows); err != nil {
		return fmt.Errorf("insert %s: decoding representation: %w", collection, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("insert %s: %w", collection, ErrNotFound)
	}
	if dest != nil {
		if err := json.Unmarshal(rows[0], dest); err != nil {
			return fmt.Errorf("insert %s: decoding representation: %w", collection, err)
		}
	}
	return nil
}

func (h *Hosted) Update(ctx context.Context, collection string, filter, patch map[string]interface{}) error {
	req := h.http.R().
		SetContext(ctx).
		SetBody(patch)
	for key, value := range filter {
		req.SetQueryParam(key, fmt.Sprintf("eq.%v", value))
	}

	resp, err := req.Patch("/rest/v1/" + collection)
	if err != nil {
		return fmt.Errorf("update %s: %w", collection, err)
	}
	if resp.IsError() {
		return fmt.Errorf("update %s: %s: %s", collection, resp.Status(), resp.String())
	}
	return nil
}

func (h *Hosted) Delete(ctx context.Context, collection string, filter map[string]interface{}) error {
	req := h.http.R().SetContext(ctx)
	for key, value := range filter {
		req.SetQueryParam(key, fmt.Sprintf("eq.%v", value))
	}

	resp, err := req.Delete("/rest/v1/" + collection)
	if err != nil {
		return fmt.Errorf("delete %s: %w", collection, err)
	}
	if resp.IsError() {
		return fmt.Errorf("delete %s: %s: %s", collection, resp.Status(), resp.String())
	}
	return nil
}

func (h *Hosted) CurrentSession(ctx context.Context) (*models.Session, error) {
	var session models.Session
	resp, err := h.http.R().
		SetContext(ctx).
		SetResult(&session).
		Get("/auth/v1/session")
	if err != nil {
		return nil, fmt.Errorf("current session: %w", err)
	}
	if resp.StatusCode() == http.StatusNoContent {
		return nil, nil
	}
	if resp.IsError() {
		return nil, fmt.Errorf("current session: %s: %s", resp.Status(), resp.String())
	}
	if session.User == nil {
		return nil, nil
	}
	return &session, nil
}

func (h *Hosted) SessionChanges(ctx context.Context) (Subscription, error) {
	streamURL, err := h.streamURL()
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, streamURL, nil)
	if err != nil {
		return nil, fmt.Errorf("session stream: %w", err)
	}

	sub := &hostedSubscription{
		conn:   conn,
		events: make(chan SessionEvent),
		done:   make(chan struct{}),
	}
	sub.wg.Add(1)
	go sub.readLoop()
	return sub, nil
}

func (h *Hosted) streamURL() (string, error) {
	u, err := url.Parse(h.baseURL)
	if err != nil {
		return "", fmt.Errorf("session stream: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/auth/v1/stream"
	u.RawQuery = url.Values{"apikey": {h.key}}.Encode()
	return u.String(), nil
}

type hostedSubscription struct {
	conn      *websocket.Conn
	events    chan SessionEvent
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func (s *hostedSubscription) Events() <-chan SessionEvent {
	return s.events
}

// Close tears the stream down. It returns only after the read loop has
// exited, so no event is delivered afterwards.
func (s *hostedSubscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.conn.Close()
		s.wg.Wait()
		close(s.events)
	})
	return err
}

func (s *hostedSubscription) readLoop() {
	defer s.wg.Done()

	for {
		var event SessionEvent
		if err := s.conn.ReadJSON(&event); err != nil {
			select {
			case <-s.done:
			default:
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logrus.WithError(err).Warn("session stream read failed")
				}
			}
			return
		}

		select {
		case s.events <- event:
		case <-s.done:
			return
		}
	}
}
