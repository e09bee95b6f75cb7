package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/AnupBarde45/SEBI-final-sub001/internal/events"
)

func newStreamTestServer(t *testing.T) (*events.Bus, *httptest.Server) {
	t.Helper()

	bus := events.NewBus()
	s := &Server{log: zerolog.Nop(), eventBus: bus}

	srv := httptest.NewServer(http.HandlerFunc(s.handleEventStream))
	t.Cleanup(srv.Close)
	return bus, srv
}

func dialStream(t *testing.T, ctx context.Context, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	return conn
}

func TestEventStreamForwardsBusEvents(t *testing.T) {
	bus, srv := newStreamTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialStream(t, ctx, srv)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.Eventually(t, func() bool { return bus.SubscriberCount() == 1 },
		time.Second, 10*time.Millisecond)

	bus.Publish(events.Event{Type: events.TradeExecuted})

	var evt events.Event
	require.NoError(t, wsjson.Read(ctx, conn, &evt))
	assert.Equal(t, events.TradeExecuted, evt.Type)
}

func TestEventStreamUnsubscribesOnClientClose(t *testing.T) {
	bus, srv := newStreamTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialStream(t, ctx, srv)

	require.Eventually(t, func() bool { return bus.SubscriberCount() == 1 },
		time.Second, 10*time.Millisecond)

	// A client close on a quiet bus must still tear the handler down:
	// no event write ever fails, so only the read side can notice
	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))

	require.Eventually(t, func() bool { return bus.SubscriberCount() == 0 },
		time.Second, 10*time.Millisecond)
}
