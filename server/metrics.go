package server

import (
	"sync/atomic"

	"kanilife/game"
)

// Metrics 记录处理器运行期的关键指标（用于监控与调试）
type Metrics struct {
	CommandsProcessed  int64 // 已处理的指令数
	Mutations          int64 // 修改了世界的指令数
	SnapshotsPublished int64 // 推送给广播通道的快照数
	SnapshotsCoalesced int64 // 广播端来不及消费而被新快照覆盖的数量
	AbandonedReplies   int64 // 发起方已放弃等待的回复数
	Unavailable        int64 // 因处理器停止而失败的提交数
	TotalHandleNs      int64 // 指令处理累计耗时（纳秒）

	byKind map[string]*int64
}

// NewMetrics 预先登记所有指令类型，之后 byKind 只读，计数走原子操作
func NewMetrics() *Metrics {
	m := &Metrics{byKind: make(map[string]*int64)}
	for _, k := range []string{
		game.KindPing, game.KindSpawn, game.KindScan, game.KindTurn,
		game.KindMove, game.KindPaint, game.KindSpawnFood,
	} {
		m.byKind[k] = new(int64)
	}
	return m
}

func (m *Metrics) IncSnapshotsPublished() { atomic.AddInt64(&m.SnapshotsPublished, 1) }
func (m *Metrics) IncSnapshotsCoalesced() { atomic.AddInt64(&m.SnapshotsCoalesced, 1) }
func (m *Metrics) IncAbandoned()          { atomic.AddInt64(&m.AbandonedReplies, 1) }
func (m *Metrics) IncUnavailable()        { atomic.AddInt64(&m.Unavailable, 1) }

// ObserveCommand 记录一条已处理的指令
func (m *Metrics) ObserveCommand(kind string, ns int64, mutated bool) {
	atomic.AddInt64(&m.CommandsProcessed, 1)
	atomic.AddInt64(&m.TotalHandleNs, ns)
	if mutated {
		atomic.AddInt64(&m.Mutations, 1)
	}
	if c, ok := m.byKind[kind]; ok {
		atomic.AddInt64(c, 1)
	}
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *Metrics) Snapshot() map[string]any {
	processed := atomic.LoadInt64(&m.CommandsProcessed)
	total := atomic.LoadInt64(&m.TotalHandleNs)
	var avgUs float64
	if processed > 0 {
		avgUs = float64(total) / float64(processed) / 1e3
	}
	kinds := make(map[string]int64, len(m.byKind))
	for k, c := range m.byKind {
		kinds[k] = atomic.LoadInt64(c)
	}
	return map[string]any{
		"commands_processed":  processed,
		"mutations":           atomic.LoadInt64(&m.Mutations),
		"snapshots_published": atomic.LoadInt64(&m.SnapshotsPublished),
		"snapshots_coalesced": atomic.LoadInt64(&m.SnapshotsCoalesced),
		"abandoned_replies":   atomic.LoadInt64(&m.AbandonedReplies),
		"unavailable":         atomic.LoadInt64(&m.Unavailable),
		"avg_handle_us":       avgUs,
		"by_kind":             kinds,
	}
}
