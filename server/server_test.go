package server

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"

	"kanilife/game"
)

func TestServerRunStopsOnCancel(t *testing.T) {
	p := NewProcessor(newTestWorld(3), 4, nil)
	s := New(Config{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second}, p)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// 游戏循环启动后会生成第一份食物
	select {
	case <-time.After(2 * time.Second):
		t.Fatalf("no food spawned by game cycle")
	case <-waitFor(func() bool { return len(p.Latest().Foods) == 1 }):
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("server did not stop")
	}

	if _, err := p.Submit(context.Background(), game.PingCommand{}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("processor should be stopped, got %v", err)
	}
}

func waitFor(cond func() bool) <-chan struct{} {
	ch := make(chan struct{})
	go func() {
		for !cond() {
			time.Sleep(5 * time.Millisecond)
		}
		close(ch)
	}()
	return ch
}
