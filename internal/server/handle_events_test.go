package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"github.com/playperu/hooplink/internal/hooplink"
)

func waitForSubscriber(t *testing.T, b *Broker, gameID string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for b.Subscribers(gameID) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("no subscriber registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestEventsStream(t *testing.T) {
	srv := newTestServer(t, "")
	h := srv.Handler()
	ts := httptest.NewServer(h)
	defer ts.Close()

	org, _ := login(t, h, "Olu", hooplink.RoleOrganizer)
	player, _ := login(t, h, "Ana", hooplink.RolePlayer)
	g := createGame(t, h, org, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/games/"+g.ID+"/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content-type = %q", ct)
	}

	waitForSubscriber(t, srv.broker, g.ID)
	do(t, h, http.MethodPost, "/api/games/"+g.ID+"/join", player, nil)

	sc := bufio.NewScanner(resp.Body)
	var event, data string
	for sc.Scan() {
		line := sc.Text()
		if v, ok := strings.CutPrefix(line, "event: "); ok {
			event = v
		}
		if v, ok := strings.CutPrefix(line, "data: "); ok {
			data = v
			break
		}
	}
	if event != EventGameUpdated {
		t.Fatalf("event = %q, want %q", event, EventGameUpdated)
	}
	var ev RosterEvent
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		t.Fatalf("decoding %q: %v", data, err)
	}
	if ev.GameID != g.ID || ev.Game == nil || len(ev.Game.Players) != 1 {
		t.Errorf("event = %+v", ev)
	}
}

func TestGameFeedWebSocket(t *testing.T) {
	srv := newTestServer(t, "")
	h := srv.Handler()
	ts := httptest.NewServer(h)
	defer ts.Close()

	org, _ := login(t, h, "Olu", hooplink.RoleOrganizer)
	player, _ := login(t, h, "Ana", hooplink.RolePlayer)
	g := createGame(t, h, org, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + ts.URL[len("http"):] + "/ws/games/" + g.ID
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	waitForSubscriber(t, srv.broker, g.ID)

	read := func() RosterEvent {
		t.Helper()
		_, msg, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var ev RosterEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			t.Fatalf("decoding %q: %v", msg, err)
		}
		return ev
	}

	do(t, h, http.MethodPost, "/api/games/"+g.ID+"/join", player, nil)
	if ev := read(); ev.Type != EventGameUpdated || ev.Game == nil || len(ev.Game.Players) != 1 {
		t.Errorf("join event = %+v", ev)
	}

	do(t, h, http.MethodDelete, "/api/games/"+g.ID+"?reason=Rain", org, nil)
	if ev := read(); ev.Type != EventGameDeleted || ev.Reason != "Rain" || ev.Game != nil {
		t.Errorf("delete event = %+v", ev)
	}

	conn.Close(websocket.StatusNormalClosure, "done")
}

func TestBroker(t *testing.T) {
	b := NewBroker()

	a := b.Subscribe("g1")
	other := b.Subscribe("g2")
	b.Publish("g1", RosterEvent{Type: EventGameUpdated, GameID: "g1"})

	select {
	case data := <-a:
		if !strings.Contains(string(data), `"gameId":"g1"`) {
			t.Errorf("payload = %s", data)
		}
	default:
		t.Fatal("g1 subscriber got nothing")
	}
	select {
	case data := <-other:
		t.Fatalf("g2 subscriber got %s", data)
	default:
	}

	b.Unsubscribe("g1", a)
	if n := b.Subscribers("g1"); n != 0 {
		t.Errorf("subscribers after unsubscribe = %d", n)
	}

	b.Close()
	if _, ok := <-other; ok {
		t.Error("channel open after Close")
	}
	if _, ok := <-b.Subscribe("g3"); ok {
		t.Error("subscribe after Close returned an open channel")
	}
	b.Unsubscribe("g2", other)
	b.Close()
}

func TestEventType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"type":"game_deleted"}`, "game_deleted"},
		{`{}`, "message"},
		{`garbage`, "message"},
	}
	for _, tt := range tests {
		if got := eventType([]byte(tt.in)); got != tt.want {
			t.Errorf("eventType(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
