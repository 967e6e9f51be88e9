package server

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"kanilife/game"
)

// ErrUnavailable 处理器已停止，指令无法再提交（不自动重试）
var ErrUnavailable = errors.New("system unavailable")

// Submitter 指令提交入口（HTTP 处理器、游戏循环都只依赖它）
type Submitter interface {
	Submit(ctx context.Context, cmd game.Command) (game.Response, error)
}

// Processor 世界的唯一写者：所有指令经由同一个有序收件箱，
// 逐条执行到底后才处理下一条，因此 World 内部无需加锁。
type Processor struct {
	world   *game.World
	inbox   chan Input
	updates chan game.Snapshot
	latest  atomic.Pointer[game.Snapshot]
	metrics *Metrics
	tracer  trace.Tracer

	done chan struct{}
}

// NewProcessor 接管 world 的所有权，之后调用方不得再直接访问 world
func NewProcessor(world *game.World, inboxSize int, metrics *Metrics) *Processor {
	if inboxSize < 1 {
		inboxSize = 1
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	p := &Processor{
		world:   world,
		inbox:   make(chan Input, inboxSize),
		updates: make(chan game.Snapshot, 1),
		metrics: metrics,
		tracer:  otel.Tracer("kanilife/server"),
		done:    make(chan struct{}),
	}
	snap := world.Snapshot()
	p.latest.Store(&snap)
	return p
}

// Run 消费收件箱直到 ctx 结束。只能调用一次。
func (p *Processor) Run(ctx context.Context) {
	defer close(p.done)
	Log.Infof("processor started: grid=%d inbox=%d", p.world.Size(), cap(p.inbox))
	for {
		select {
		case <-ctx.Done():
			Log.Infof("processor stopped: %v (pending=%d)", ctx.Err(), len(p.inbox))
			return
		case in := <-p.inbox:
			p.handle(in)
		}
	}
}

// Done 处理器退出后关闭
func (p *Processor) Done() <-chan struct{} { return p.done }

// Submit 把指令放入收件箱并等待它自己的回复。
// 收件箱满时阻塞（背压），处理器停止后返回 ErrUnavailable。
func (p *Processor) Submit(ctx context.Context, cmd game.Command) (game.Response, error) {
	select {
	case <-p.done:
		p.metrics.IncUnavailable()
		return game.Response{}, ErrUnavailable
	default:
	}

	in := newInput(ctx, cmd)
	select {
	case p.inbox <- in:
	case <-p.done:
		p.metrics.IncUnavailable()
		return game.Response{}, ErrUnavailable
	case <-ctx.Done():
		return game.Response{}, ctx.Err()
	}

	select {
	case resp := <-in.Reply:
		return resp, nil
	case <-p.done:
		// 停止前可能刚好处理完
		select {
		case resp := <-in.Reply:
			return resp, nil
		default:
		}
		p.metrics.IncUnavailable()
		return game.Response{}, ErrUnavailable
	case <-ctx.Done():
		return game.Response{}, ctx.Err()
	}
}

// Updates 每次世界被修改后的快照；只保留最新一份未消费的
func (p *Processor) Updates() <-chan game.Snapshot { return p.updates }

// Latest 最近一次提交后的快照，供新观察端按需拉取
func (p *Processor) Latest() game.Snapshot { return *p.latest.Load() }

// Metrics 运行指标
func (p *Processor) Metrics() *Metrics { return p.metrics }

func (p *Processor) handle(in Input) {
	kind := in.Command.Kind()
	ctx := in.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	_, span := p.tracer.Start(ctx, "command "+kind, trace.WithAttributes(
		attribute.String("kanilife.command", kind),
	))
	start := time.Now()

	resp := p.world.Apply(in.Command)

	elapsed := time.Since(start)
	span.SetAttributes(
		attribute.String("kanilife.result", resp.Result.Type()),
		attribute.Bool("kanilife.mutated", resp.Mutated),
		attribute.Int64("kanilife.wait_ms", resp.Wait.Milliseconds()),
	)
	span.End()

	if in.abandoned() {
		// 指令已经生效，不回滚；只是没人再等这个回复
		p.metrics.IncAbandoned()
		Log.Warnf("reply abandoned: command=%s result=%s err=%v", kind, resp.Result.Type(), in.Ctx.Err())
	}
	in.Reply <- resp

	if resp.Mutated {
		p.publish(p.world.Snapshot())
	}
	p.metrics.ObserveCommand(kind, elapsed.Nanoseconds(), resp.Mutated)
	Log.Debugf("command=%s result=%s mutated=%v wait=%s took=%s", kind, resp.Result.Type(), resp.Mutated, resp.Wait, elapsed)
}

// publish 不阻塞：广播端积压时丢掉旧快照，只留最新
func (p *Processor) publish(snap game.Snapshot) {
	p.latest.Store(&snap)
	p.metrics.IncSnapshotsPublished()
	select {
	case p.updates <- snap:
		return
	default:
	}
	select {
	case <-p.updates:
		p.metrics.IncSnapshotsCoalesced()
	default:
	}
	select {
	case p.updates <- snap:
	default:
	}
}
