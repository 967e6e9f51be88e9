package server

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"

	"kanilife/game"
)

func newTestWorld(size int) *game.World {
	return game.NewWorld(size, game.WithRand(rand.New(rand.NewSource(7))))
}

// startProcessor 启动处理器，测试结束时停止并等待退出
func startProcessor(t *testing.T, world *game.World, inbox int) *Processor {
	t.Helper()
	p := NewProcessor(world, inbox, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go p.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-p.Done()
	})
	return p
}

func submit(t *testing.T, p *Processor, cmd game.Command) game.Response {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := p.Submit(ctx, cmd)
	if err != nil {
		t.Fatalf("submit %s: %v", cmd.Kind(), err)
	}
	return resp
}

func spawn(t *testing.T, p *Processor, name string) game.Token {
	t.Helper()
	resp := submit(t, p, game.SpawnCommand{Name: name})
	sr, ok := resp.Result.(game.SpawnResult)
	if !ok {
		t.Fatalf("spawn %s: %#v", name, resp.Result)
	}
	return sr.Token
}

func TestProcessorPingPong(t *testing.T) {
	p := startProcessor(t, newTestWorld(3), 4)
	resp := submit(t, p, game.PingCommand{})
	if resp.Result != (game.PongResult{}) || resp.Mutated {
		t.Fatalf("got %#v", resp)
	}
	select {
	case snap := <-p.Updates():
		t.Fatalf("ping must not broadcast, got %+v", snap)
	default:
	}
}

func TestProcessorBroadcastsAfterMutation(t *testing.T) {
	p := startProcessor(t, newTestWorld(3), 4)
	spawn(t, p, "kani")

	select {
	case snap := <-p.Updates():
		if _, ok := snap.Crab("kani"); !ok {
			t.Fatalf("snapshot without spawned crab: %+v", snap)
		}
	case <-time.After(time.Second):
		t.Fatalf("no snapshot after spawn")
	}
	if _, ok := p.Latest().Crab("kani"); !ok {
		t.Fatalf("latest snapshot not updated")
	}
}

func TestProcessorKeepsNewestSnapshot(t *testing.T) {
	p := startProcessor(t, newTestWorld(5), 8)
	for _, name := range []string{"a", "b", "c"} {
		spawn(t, p, name)
	}
	// 回复先于广播发出；Ping 返回时上一条指令的快照一定已经发布
	submit(t, p, game.PingCommand{})
	snap := <-p.Updates()
	if len(snap.Crabs) != 3 {
		t.Fatalf("want newest snapshot with 3 crabs, got %d", len(snap.Crabs))
	}
	if got := atomic.LoadInt64(&p.Metrics().SnapshotsCoalesced); got < 1 {
		t.Fatalf("coalesced = %d", got)
	}
}

func TestProcessorSerializesConcurrentProducers(t *testing.T) {
	p := startProcessor(t, newTestWorld(4), 16)
	names := []string{"a", "b", "c", "d", "e", "f"}
	tokens := make([]game.Token, len(names))
	for i, n := range names {
		tokens[i] = spawn(t, p, n)
	}

	var wg sync.WaitGroup
	for i, tok := range tokens {
		wg.Add(1)
		go func(seed int64, tok game.Token) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for j := 0; j < 200; j++ {
				side := game.Right
				if rng.Intn(2) == 0 {
					side = game.Left
				}
				var cmd game.Command = game.MoveCommand{Token: tok, Side: side}
				if rng.Intn(4) == 0 {
					cmd = game.TurnCommand{Token: tok, Side: side}
				}
				if _, err := p.Submit(context.Background(), cmd); err != nil {
					t.Errorf("submit: %v", err)
					return
				}
			}
		}(int64(i), tok)
	}

	// 生产者运行期间反复检查已提交的快照
	stop := make(chan struct{})
	checked := make(chan struct{})
	go func() {
		defer close(checked)
		for {
			select {
			case <-stop:
				return
			case snap := <-p.Updates():
				assertNoOverlap(t, snap)
			}
		}
	}()
	wg.Wait()
	submit(t, p, game.PingCommand{})
	close(stop)
	<-checked
	assertNoOverlap(t, p.Latest())

	if got := atomic.LoadInt64(&p.Metrics().CommandsProcessed); got < int64(len(names)+len(names)*200) {
		t.Fatalf("processed %d commands", got)
	}
}

func assertNoOverlap(t *testing.T, snap game.Snapshot) {
	t.Helper()
	seen := map[game.Position]string{}
	for _, c := range snap.Crabs {
		if !c.Position.InBounds(snap.Size, snap.Size) {
			t.Errorf("crab %s out of bounds at %v", c.Name, c.Position)
		}
		if other, ok := seen[c.Position]; ok {
			t.Errorf("crabs %s and %s share %v", c.Name, other, c.Position)
		}
		seen[c.Position] = c.Name
	}
}

func TestProcessorAbandonedRequestStillApplies(t *testing.T) {
	p := NewProcessor(newTestWorld(3), 4, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := p.Submit(ctx, game.SpawnCommand{Name: "ghost"})
		errCh <- err
	}()
	// 等指令进入收件箱后再放弃
	deadline := time.Now().Add(time.Second)
	for len(p.inbox) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("command never queued")
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}

	runCtx, stop := context.WithCancel(context.Background())
	go p.Run(runCtx)
	defer func() {
		stop()
		<-p.Done()
	}()

	// 收件箱有序：Ping 返回时前面的 Spawn 已经处理完
	submit(t, p, game.PingCommand{})
	if _, ok := p.Latest().Crab("ghost"); !ok {
		t.Fatalf("abandoned spawn should still be applied")
	}
	if got := atomic.LoadInt64(&p.Metrics().AbandonedReplies); got != 1 {
		t.Fatalf("abandoned = %d", got)
	}
}

func TestProcessorBackpressure(t *testing.T) {
	p := NewProcessor(newTestWorld(3), 1, nil)

	first := make(chan error, 1)
	go func() {
		_, err := p.Submit(context.Background(), game.PingCommand{})
		first <- err
	}()
	for len(p.inbox) == 0 {
		time.Sleep(time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := p.Submit(ctx, game.PingCommand{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("full inbox should block until deadline, got %v", err)
	}

	runCtx, stop := context.WithCancel(context.Background())
	go p.Run(runCtx)
	defer func() {
		stop()
		<-p.Done()
	}()
	if err := <-first; err != nil {
		t.Fatalf("queued command: %v", err)
	}
}

func TestSubmitAfterStopIsUnavailable(t *testing.T) {
	p := NewProcessor(newTestWorld(3), 4, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go p.Run(ctx)
	cancel()
	<-p.Done()

	_, err := p.Submit(context.Background(), game.PingCommand{})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("got %v", err)
	}
	if got := atomic.LoadInt64(&p.Metrics().Unavailable); got != 1 {
		t.Fatalf("unavailable = %d", got)
	}
}
