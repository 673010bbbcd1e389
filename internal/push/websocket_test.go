package push

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/wordle/apps/go-client/internal/game"
)

// socketServer accepts /ws/room/{roomId} and writes every event sent on feed.
func socketServer(t *testing.T, feed <-chan Event) (*httptest.Server, <-chan string) {
	t.Helper()
	rooms := make(chan string, 4)
	up := websocket.Upgrader{}
	r := chi.NewRouter()
	r.Get("/ws/room/{roomId}", func(w http.ResponseWriter, req *http.Request) {
		conn, err := up.Upgrade(w, req, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		rooms <- chi.URLParam(req, "roomId")
		for ev := range feed {
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, rooms
}

func TestNewWebSocketSchemes(t *testing.T) {
	ws, err := NewWebSocket("http://localhost:8080/")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8080", ws.base)

	ws, err = NewWebSocket("https://wordle.example.com")
	require.NoError(t, err)
	assert.Equal(t, "wss://wordle.example.com", ws.base)

	_, err = NewWebSocket("ftp://nope")
	assert.Error(t, err)
}

func TestWebSocketDeliversEvents(t *testing.T) {
	feed := make(chan Event, 2)
	srv, rooms := socketServer(t, feed)

	ws, err := NewWebSocket(srv.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := ws.Subscribe(ctx, "ABCD1234")
	require.NoError(t, err)
	assert.Equal(t, "ABCD1234", <-rooms)

	feed <- Event{Type: GuessResult, PlayerID: "p1", Guess: "CRANE", Result: []game.GuessResult{
		{Letter: "C", Status: game.StatusHit},
		{Letter: "R", Status: game.StatusMiss},
		{Letter: "A", Status: game.StatusPresent},
		{Letter: "N", Status: game.StatusMiss},
		{Letter: "E", Status: game.StatusHit},
	}}
	close(feed)

	select {
	case ev := <-events:
		assert.Equal(t, GuessResult, ev.Type)
		assert.Equal(t, "ABCD1234", ev.RoomID)
		require.Len(t, ev.Result, 5)
		assert.Equal(t, "A", ev.Result[2].Letter)
		assert.Equal(t, game.StatusPresent, ev.Result[2].Status)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}

	// The server closed the socket after the feed drained.
	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after server hung up")
	}
}

func TestWebSocketKeepsAliveWithPings(t *testing.T) {
	up := websocket.Upgrader{}
	r := chi.NewRouter()
	r.Get("/ws/room/{roomId}", func(w http.ResponseWriter, req *http.Request) {
		conn, err := up.Upgrade(w, req, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		// Reading lets the default ping handler answer with pongs.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	ws, err := NewWebSocket(srv.URL)
	require.NoError(t, err)
	ws.pongWait = 150 * time.Millisecond
	ws.pingPeriod = 30 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	events, err := ws.Subscribe(ctx, "R1")
	require.NoError(t, err)

	select {
	case _, ok := <-events:
		t.Fatalf("subscription ended while the server was answering pings (open=%v)", ok)
	case <-time.After(500 * time.Millisecond):
	}

	cancel()
	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestWebSocketSilentServerTimesOut(t *testing.T) {
	release := make(chan struct{})
	up := websocket.Upgrader{}
	r := chi.NewRouter()
	r.Get("/ws/room/{roomId}", func(w http.ResponseWriter, req *http.Request) {
		conn, err := up.Upgrade(w, req, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		<-release
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	ws, err := NewWebSocket(srv.URL)
	require.NoError(t, err)
	ws.pongWait = 100 * time.Millisecond
	ws.pingPeriod = 30 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := ws.Subscribe(ctx, "R1")
	require.NoError(t, err)

	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription outlived the pong deadline")
	}
}

func TestWebSocketDialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	ws, err := NewWebSocket(srv.URL)
	require.NoError(t, err)
	_, err = ws.Subscribe(context.Background(), "R1")
	assert.Error(t, err)
}

func TestNopNeverDelivers(t *testing.T) {
	events, err := Nop{}.Subscribe(context.Background(), "R1")
	assert.NoError(t, err)
	assert.Nil(t, events)
	assert.NoError(t, Nop{}.Publish(context.Background(), "R1", Event{}))
}
