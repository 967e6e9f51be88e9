package game

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/pkg/errors"
)

// SpawnPolicy 同名螃蟹再次出生时的处理方式
type SpawnPolicy string

const (
	// SpawnReplace 移除旧螃蟹及其涂色，用新 Token 重新出生
	SpawnReplace SpawnPolicy = "replace"
	// SpawnReject 名字被占用时返回 CrabAlreadyExists
	SpawnReject SpawnPolicy = "reject"
)

// Valid 是否为已知策略
func (p SpawnPolicy) Valid() bool {
	return p == SpawnReplace || p == SpawnReject
}

const (
	DefaultFoodCap     = 5
	DefaultFoodMaxSize = 3
)

// World 一局游戏的全部实体。只允许单一写者（见 server.Processor），
// 自身不加锁；每条指令在 Apply 内完整提交后才处理下一条。
type World struct {
	size   int
	crabs  []Crab
	foods  []Food
	paints []Paint

	rng         *rand.Rand
	policy      SpawnPolicy
	foodCap     int
	foodMaxSize int
}

// Option 配置 World
type Option func(*World)

// WithRand 注入随机源（测试用固定种子）
func WithRand(rng *rand.Rand) Option {
	return func(w *World) { w.rng = rng }
}

func WithSpawnPolicy(p SpawnPolicy) Option {
	return func(w *World) { w.policy = p }
}

// WithFoodCap 场上食物上限
func WithFoodCap(n int) Option {
	return func(w *World) { w.foodCap = n }
}

// WithFoodMaxSize 单个食物的最大分值
func WithFoodMaxSize(n int) Option {
	return func(w *World) { w.foodMaxSize = n }
}

// NewWorld 创建边长为 size 的空世界，size 在运行期不可修改
func NewWorld(size int, opts ...Option) *World {
	if size < 1 {
		panic(fmt.Sprintf("game: grid size must be positive, got %d", size))
	}
	w := &World{
		size:        size,
		policy:      SpawnReplace,
		foodCap:     DefaultFoodCap,
		foodMaxSize: DefaultFoodMaxSize,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.rng == nil {
		w.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return w
}

// Size 网格边长
func (w *World) Size() int { return w.size }

// PutCrab 直接放置一只螃蟹（初始化/测试用，必须在交给处理器之前调用）
func (w *World) PutCrab(c Crab) error {
	if !c.Position.InBounds(w.size, w.size) {
		return errors.Errorf("crab %q out of bounds at %v", c.Name, c.Position)
	}
	if !c.Direction.Valid() {
		return errors.Errorf("crab %q has invalid direction %q", c.Name, c.Direction)
	}
	if w.crabIndexAt(c.Position) >= 0 {
		return errors.Errorf("crab %q collides at %v", c.Name, c.Position)
	}
	if w.crabIndexByName(c.Name) >= 0 {
		return errors.Errorf("crab %q already exists", c.Name)
	}
	if c.Token.IsZero() {
		c.Token = NewToken()
	}
	w.crabs = append(w.crabs, c)
	return nil
}

// PutFood 直接放置食物（初始化/测试用）
func (w *World) PutFood(f Food) error {
	if !f.Position.InBounds(w.size, w.size) {
		return errors.Errorf("food out of bounds at %v", f.Position)
	}
	if f.Size < 1 {
		return errors.Errorf("food size %d < 1", f.Size)
	}
	if f.ID.IsZero() {
		f.ID = NewToken()
	}
	w.foods = append(w.foods, f)
	return nil
}

// Apply 解释一条指令并原子提交
func (w *World) Apply(cmd Command) Response {
	switch c := cmd.(type) {
	case PingCommand:
		return pongResponse()
	case SpawnCommand:
		return w.spawn(c)
	case TurnCommand:
		return w.turn(c)
	case MoveCommand:
		return w.move(c)
	case ScanCommand:
		return w.scan(c)
	case PaintCommand:
		return w.paint(c)
	case SpawnFoodCommand:
		return w.spawnFood()
	}
	// Command 是封闭接口，走到这里说明新增了指令却没有处理
	panic(fmt.Sprintf("game: unhandled command %T", cmd))
}

func (w *World) spawn(c SpawnCommand) Response {
	var replaced *Token
	if i := w.crabIndexByName(c.Name); i >= 0 {
		if w.policy == SpawnReject {
			return crabAlreadyExists()
		}
		tok := w.crabs[i].Token
		replaced = &tok
	}
	keepOut := w.keepOut(replaced)
	if len(keepOut) >= w.size*w.size {
		return gridFull()
	}
	if replaced != nil {
		w.removeCrab(*replaced)
	}
	crab := SpawnCrab(w.rng, c.Name, c.Hue, w.size, keepOut)
	w.crabs = append(w.crabs, crab)
	return spawnResponse(SpawnResult{Token: crab.Token})
}

// removeCrab 移除螃蟹并级联删除它的涂色
func (w *World) removeCrab(tok Token) {
	i := w.crabIndexByToken(tok)
	if i < 0 {
		return
	}
	w.crabs = append(w.crabs[:i:i], w.crabs[i+1:]...)
	kept := make([]Paint, 0, len(w.paints))
	for _, p := range w.paints {
		if p.Owner != tok {
			kept = append(kept, p)
		}
	}
	w.paints = kept
}

func (w *World) turn(c TurnCommand) Response {
	i := w.crabIndexByToken(c.Token)
	if i < 0 {
		return crabNotFound()
	}
	w.crabs[i].Turn(c.Side)
	return turnResponse()
}

func (w *World) move(c MoveCommand) Response {
	i := w.crabIndexByToken(c.Token)
	if i < 0 {
		return crabNotFound()
	}
	crab := &w.crabs[i]
	next := crab.NextPosition(c.Side)
	if !next.InBounds(w.size, w.size) || w.crabIndexAt(next) >= 0 {
		return moveResponse(MoveResult{Success: false, TotalPoint: crab.Point})
	}
	gained := 0
	if food, ok := w.takeFoodAt(next); ok {
		gained = food.Size
	}
	crab.Position = next
	crab.Point += gained
	return moveResponse(MoveResult{Success: true, Point: gained, TotalPoint: crab.Point})
}

// scan 沿朝向逐格检查：先前进再判界，因此相邻格先被检查，
// 每个界内格恰好检查一次，越界即为 Wall。同一格内螃蟹优先于食物。
func (w *World) scan(c ScanCommand) Response {
	i := w.crabIndexByToken(c.Token)
	if i < 0 {
		return crabNotFound()
	}
	crab := w.crabs[i]
	for p := crab.Position.Forward(crab.Direction); p.InBounds(w.size, w.size); p = p.Forward(crab.Direction) {
		if w.crabIndexAt(p) >= 0 {
			return scanResponse(ScanResult{WhatYouCanSee: SightCrab})
		}
		if w.foodIndexAt(p) >= 0 {
			return scanResponse(ScanResult{WhatYouCanSee: SightFood})
		}
	}
	return scanResponse(ScanResult{WhatYouCanSee: SightWall})
}

func (w *World) paint(c PaintCommand) Response {
	i := w.crabIndexByToken(c.Token)
	if i < 0 {
		return crabNotFound()
	}
	crab := &w.crabs[i]
	if crab.Point <= 0 {
		return paintResponse(PaintResult{
			Success:    false,
			YourPaints: w.paintPositionsOf(crab.Token),
			TotalPoint: crab.Point,
		})
	}
	// 同一格只保留最新的一条涂色，不论原主人是谁
	if j := w.paintIndexAt(crab.Position); j >= 0 {
		w.paints = append(w.paints[:j:j], w.paints[j+1:]...)
	}
	w.paints = append(w.paints, Paint{Position: crab.Position, Owner: crab.Token, Hue: crab.Hue})
	crab.Point--
	return paintResponse(PaintResult{
		Success:    true,
		YourPaints: w.paintPositionsOf(crab.Token),
		TotalPoint: crab.Point,
	})
}

func (w *World) spawnFood() Response {
	if len(w.foods) >= w.foodCap {
		return okResponse(SpawnFoodIdleWait, false)
	}
	keepOut := w.keepOut(nil)
	if len(keepOut) >= w.size*w.size {
		return okResponse(SpawnFoodIdleWait, false)
	}
	w.foods = append(w.foods, PlaceFood(w.rng, w.foodMaxSize, w.size, keepOut))
	return okResponse(SpawnFoodWait, true)
}

// keepOut 出生点禁区：所有螃蟹与食物的位置；skip 指定的螃蟹不计入
func (w *World) keepOut(skip *Token) map[Position]struct{} {
	out := make(map[Position]struct{}, len(w.crabs)+len(w.foods))
	for _, c := range w.crabs {
		if skip != nil && c.Token == *skip {
			continue
		}
		out[c.Position] = struct{}{}
	}
	for _, f := range w.foods {
		out[f.Position] = struct{}{}
	}
	return out
}

func (w *World) takeFoodAt(p Position) (Food, bool) {
	i := w.foodIndexAt(p)
	if i < 0 {
		return Food{}, false
	}
	f := w.foods[i]
	w.foods = append(w.foods[:i:i], w.foods[i+1:]...)
	return f, true
}

func (w *World) paintPositionsOf(tok Token) []Position {
	out := []Position{}
	for _, p := range w.paints {
		if p.Owner == tok {
			out = append(out, p.Position)
		}
	}
	return out
}

func (w *World) crabIndexByToken(tok Token) int {
	for i := range w.crabs {
		if w.crabs[i].Token == tok {
			return i
		}
	}
	return -1
}

func (w *World) crabIndexByName(name string) int {
	for i := range w.crabs {
		if w.crabs[i].Name == name {
			return i
		}
	}
	return -1
}

func (w *World) crabIndexAt(p Position) int {
	for i := range w.crabs {
		if w.crabs[i].Position == p {
			return i
		}
	}
	return -1
}

func (w *World) foodIndexAt(p Position) int {
	for i := range w.foods {
		if w.foods[i].Position == p {
			return i
		}
	}
	return -1
}

func (w *World) paintIndexAt(p Position) int {
	for i := range w.paints {
		if w.paints[i].Position == p {
			return i
		}
	}
	return -1
}
