package game

import "time"

// 结果类型标签
const (
	ResultOk                = "Ok"
	ResultPong              = "Pong"
	ResultCrabNotFound      = "CrabNotFound"
	ResultCrabAlreadyExists = "CrabAlreadyExists"
	ResultGridFull          = "GridFull"
	ResultSpawn             = "Spawn"
	ResultScan              = "Scan"
	ResultTurn              = "Turn"
	ResultMove              = "Move"
	ResultPaint             = "Paint"
)

// 各指令的节流等待
const (
	TurnWait          = 100 * time.Millisecond
	MoveWait          = 500 * time.Millisecond
	PaintWait         = 100 * time.Millisecond
	SpawnFoodWait     = 5000 * time.Millisecond
	SpawnFoodIdleWait = 100 * time.Millisecond
)

// Result 返回给指令发起方的结果（序列化为带 "type" 标签的 JSON）
type Result interface {
	Type() string
}

type OkResult struct{}
type PongResult struct{}
type CrabNotFoundResult struct{}
type CrabAlreadyExistsResult struct{}

// GridFullResult 网格已无空位，无法出生
type GridFullResult struct{}

type SpawnResult struct {
	Token Token `json:"token"`
}

// Sight 扫描看到的第一样东西
type Sight string

const (
	SightFood Sight = "Food"
	SightCrab Sight = "Crab"
	SightWall Sight = "Wall"
)

type ScanResult struct {
	WhatYouCanSee Sight `json:"whatYouCanSee"`
}

type TurnResult struct{}

type MoveResult struct {
	Success    bool `json:"success"`
	Point      int  `json:"point"`      // 本次吃到的食物分
	TotalPoint int  `json:"totalPoint"` // 当前总分
}

type PaintResult struct {
	Success    bool       `json:"success"`
	YourPaints []Position `json:"yourPaints"`
	TotalPoint int        `json:"totalPoint"`
}

func (OkResult) Type() string                { return ResultOk }
func (PongResult) Type() string              { return ResultPong }
func (CrabNotFoundResult) Type() string      { return ResultCrabNotFound }
func (CrabAlreadyExistsResult) Type() string { return ResultCrabAlreadyExists }
func (GridFullResult) Type() string          { return ResultGridFull }
func (SpawnResult) Type() string             { return ResultSpawn }
func (ScanResult) Type() string              { return ResultScan }
func (TurnResult) Type() string              { return ResultTurn }
func (MoveResult) Type() string              { return ResultMove }
func (PaintResult) Type() string             { return ResultPaint }

func (r OkResult) MarshalJSON() ([]byte, error)   { return marshalTagged(r.Type(), struct{}{}) }
func (r PongResult) MarshalJSON() ([]byte, error) { return marshalTagged(r.Type(), struct{}{}) }
func (r CrabNotFoundResult) MarshalJSON() ([]byte, error) {
	return marshalTagged(r.Type(), struct{}{})
}
func (r CrabAlreadyExistsResult) MarshalJSON() ([]byte, error) {
	return marshalTagged(r.Type(), struct{}{})
}
func (r GridFullResult) MarshalJSON() ([]byte, error) { return marshalTagged(r.Type(), struct{}{}) }
func (r TurnResult) MarshalJSON() ([]byte, error)     { return marshalTagged(r.Type(), struct{}{}) }

func (r SpawnResult) MarshalJSON() ([]byte, error) {
	type plain SpawnResult
	return marshalTagged(r.Type(), plain(r))
}

func (r ScanResult) MarshalJSON() ([]byte, error) {
	type plain ScanResult
	return marshalTagged(r.Type(), plain(r))
}

func (r MoveResult) MarshalJSON() ([]byte, error) {
	type plain MoveResult
	return marshalTagged(r.Type(), plain(r))
}

func (r PaintResult) MarshalJSON() ([]byte, error) {
	type plain PaintResult
	if r.YourPaints == nil {
		r.YourPaints = []Position{}
	}
	return marshalTagged(r.Type(), plain(r))
}

// Response 是 World.Apply 的完整输出。Wait 与 Mutated 只给处理器和传输层使用，
// 不会序列化给发起方。
type Response struct {
	Result  Result
	Wait    time.Duration
	Mutated bool
}

func okResponse(wait time.Duration, mutated bool) Response {
	return Response{Result: OkResult{}, Wait: wait, Mutated: mutated}
}

func pongResponse() Response {
	return Response{Result: PongResult{}}
}

func crabNotFound() Response {
	return Response{Result: CrabNotFoundResult{}}
}

func crabAlreadyExists() Response {
	return Response{Result: CrabAlreadyExistsResult{}}
}

func gridFull() Response {
	return Response{Result: GridFullResult{}}
}

func spawnResponse(r SpawnResult) Response {
	return Response{Result: r, Mutated: true}
}

func scanResponse(r ScanResult) Response {
	return Response{Result: r}
}

func turnResponse() Response {
	return Response{Result: TurnResult{}, Wait: TurnWait, Mutated: true}
}

func moveResponse(r MoveResult) Response {
	return Response{Result: r, Wait: MoveWait, Mutated: true}
}

func paintResponse(r PaintResult) Response {
	return Response{Result: r, Wait: PaintWait, Mutated: true}
}
