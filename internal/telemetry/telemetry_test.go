package telemetry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"helm.klederson.com/internal/audio"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(clock.NewMock(), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(NewServer(hub, zap.NewNop()).Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var m Message
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestHub_WelcomeCarriesLatestState(t *testing.T) {
	hub, srv := startHub(t)
	heading := 212
	hub.PublishState(Snapshot{Heading: &heading, Target: 215, Mode: "steering"})

	conn := dial(t, srv)
	m := read(t, conn)
	require.Equal(t, TypeWelcome, m.Type)
	require.NotEmpty(t, m.ClientID)
	require.NotNil(t, m.State)
	require.NotNil(t, m.State.Heading)
	assert.Equal(t, 212, *m.State.Heading)
	assert.Equal(t, 215, m.State.Target)
}

func TestHub_BroadcastsStateAndEvents(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv)
	require.Equal(t, TypeWelcome, read(t, conn).Type)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 5*time.Second, 10*time.Millisecond)

	hub.PublishState(Snapshot{Target: 90, Urgency: 2, Direction: "port"})
	m := read(t, conn)
	require.Equal(t, TypeState, m.Type)
	assert.Nil(t, m.State.Heading, "unavailable heading is null")
	assert.Equal(t, "port", m.State.Direction)

	hub.PublishEvent(audio.Event{Kind: audio.EventPlay, Sound: "low"})
	m = read(t, conn)
	require.Equal(t, TypeEvent, m.Type)
	require.NotNil(t, m.Event)
	assert.Equal(t, "low", m.Event.Sound)
}

func TestHub_UnregistersOnClose(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv)
	read(t, conn)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	hub := NewHub(clock.NewMock(), zap.NewNop())
	// not running; the buffer fills and the rest are dropped
	done := make(chan struct{})
	go func() {
		for i := 0; i < broadcastBuffer*2; i++ {
			hub.PublishEvent(audio.Event{Kind: audio.EventPlay})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("publish blocked")
	}
}

func TestServer_Health(t *testing.T) {
	_, srv := startHub(t)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Status  string `json:"status"`
		Clients int    `json:"clients"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 0, body.Clients)
}
