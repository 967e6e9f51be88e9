package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"kanilife/game"
)

func readState(t *testing.T, conn *websocket.Conn, until func(game.Snapshot) bool) game.Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		_ = conn.SetReadDeadline(deadline)
		_, b, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var msg stateMessage
		if err := json.Unmarshal(b, &msg); err != nil {
			t.Fatalf("decode %s: %v", b, err)
		}
		if msg.Type != "state" {
			continue
		}
		if until(msg.State) {
			return msg.State
		}
	}
}

func TestViewerReceivesSnapshots(t *testing.T) {
	p := startProcessor(t, newTestWorld(4), 4)
	s := New(Config{}, p)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.viewers.Run(ctx, p.Updates())

	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// 连接后立即收到当前快照
	first := readState(t, conn, func(game.Snapshot) bool { return true })
	if first.Size != 4 || len(first.Crabs) != 0 {
		t.Fatalf("initial state: %+v", first)
	}

	spawn(t, p, "kani")
	got := readState(t, conn, func(s game.Snapshot) bool { return len(s.Crabs) == 1 })
	if got.Crabs[0].Name != "kani" {
		t.Fatalf("crab: %+v", got.Crabs[0])
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"get"}`)); err != nil {
		t.Fatalf("write get: %v", err)
	}
	again := readState(t, conn, func(s game.Snapshot) bool { return len(s.Crabs) == 1 })
	if again.Size != 4 {
		t.Fatalf("pulled state: %+v", again)
	}
}

func TestClientConnCloseIsIdempotent(t *testing.T) {
	c := &ClientConn{send: make(chan []byte, 1)}
	c.Enqueue([]byte("a"))
	c.Enqueue([]byte("dropped"))
	c.Close()
	c.Close()
	c.Enqueue([]byte("after close"))
	if msg, ok := <-c.send; !ok || string(msg) != "a" {
		t.Fatalf("got %q %v", msg, ok)
	}
	if _, ok := <-c.send; ok {
		t.Fatalf("send channel should be closed")
	}
}
