package server

import (
	"context"
	"time"

	"kanilife/game"
)

const (
	// TicksPerSecond 游戏循环的最高频率（20 TPS），防止等待为 0 时空转
	TicksPerSecond = 20
)

var tickInterval = time.Duration(1000/TicksPerSecond) * time.Millisecond // 50ms

// RunGameCycle 游戏循环：与玩家指令共用同一个收件箱，
// 每次提交 SpawnFood 后按返回的等待时间休眠。提交失败即退出。
func RunGameCycle(ctx context.Context, sub Submitter) error {
	Log.Info("game cycle started")
	for {
		resp, err := sub.Submit(ctx, game.SpawnFoodCommand{})
		if err != nil {
			if ctx.Err() != nil {
				Log.Info("game cycle stopped")
				return nil
			}
			Log.Errorf("game cycle submit: %v", err)
			return err
		}
		wait := resp.Wait
		if wait < tickInterval {
			wait = tickInterval
		}
		if err := sleepCtx(ctx, wait); err != nil {
			Log.Info("game cycle stopped")
			return nil
		}
	}
}

// sleepCtx 等待 d，ctx 结束时提前返回其错误
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
