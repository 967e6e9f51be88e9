package server

import (
	"context"

	"kanilife/game"
)

// Input 入站指令：指令本身 + 发起方的单次回复通道。
// Reply 容量为 1，处理器写入永不阻塞；发起方可能已经放弃等待。
type Input struct {
	Ctx     context.Context
	Command game.Command
	Reply   chan game.Response
}

func newInput(ctx context.Context, cmd game.Command) Input {
	return Input{Ctx: ctx, Command: cmd, Reply: make(chan game.Response, 1)}
}

// abandoned 发起方已取消或超时
func (in Input) abandoned() bool {
	return in.Ctx != nil && in.Ctx.Err() != nil
}
