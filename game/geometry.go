package game

import (
	"fmt"
	"math/rand"
)

// Side 左右：Turn 的旋转方向，也是 Move 的横移方向
type Side string

const (
	Right Side = "Right"
	Left  Side = "Left"
)

// Valid 只接受 Right / Left
func (s Side) Valid() bool {
	return s == Right || s == Left
}

// Direction 螃蟹朝向（JSON 中为 "N"/"E"/"S"/"W"）
type Direction string

const (
	North Direction = "N"
	East  Direction = "E"
	South Direction = "S"
	West  Direction = "W"
)

// Valid 是否为四个方向之一
func (d Direction) Valid() bool {
	return d == North || d == East || d == South || d == West
}

// 顺时针顺序，Turn 按此下标 ±1
var clockwise = [4]Direction{North, East, South, West}

func (d Direction) index() int {
	for i, c := range clockwise {
		if c == d {
			return i
		}
	}
	panic(fmt.Sprintf("game: invalid direction %q", string(d)))
}

// Turn 原地旋转 90°：Right 顺时针，Left 逆时针
func (d Direction) Turn(side Side) Direction {
	i := d.index()
	if side == Right {
		return clockwise[(i+1)%4]
	}
	return clockwise[(i+3)%4]
}

// delta 朝向的单位前进向量（y 轴向下）
func (d Direction) delta() (dx, dy int) {
	switch d {
	case North:
		return 0, -1
	case East:
		return 1, 0
	case South:
		return 0, 1
	case West:
		return -1, 0
	}
	panic(fmt.Sprintf("game: invalid direction %q", string(d)))
}

// RandomDirection 均匀随机朝向
func RandomDirection(rng *rand.Rand) Direction {
	return clockwise[rng.Intn(len(clockwise))]
}

// Position 网格坐标，按值传递
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Pos 便捷构造
func Pos(x, y int) Position {
	return Position{X: x, Y: y}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Forward 沿朝向前进一格
func (p Position) Forward(d Direction) Position {
	dx, dy := d.delta()
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// Strafe 相对朝向横移一格：右移 = 前进向量顺时针转 90°，左移相反。
// 朝向不变。
func (p Position) Strafe(d Direction, side Side) Position {
	return p.Forward(d.Turn(side))
}

// InBounds 左闭右开：0 <= x < width && 0 <= y < height
func (p Position) InBounds(width, height int) bool {
	return p.X >= 0 && p.X < width && p.Y >= 0 && p.Y < height
}

// RandomPosition 在整张网格上均匀取点，仅用于出生点
func RandomPosition(rng *rand.Rand, width, height int) Position {
	return Position{X: rng.Intn(width), Y: rng.Intn(height)}
}

// randomFreePosition 拒绝采样：重复取点直到不在 keepOut 中。
// 调用方需保证至少有一个空格，否则循环不会结束。
func randomFreePosition(rng *rand.Rand, size int, keepOut map[Position]struct{}) Position {
	for {
		p := RandomPosition(rng, size, size)
		if _, taken := keepOut[p]; !taken {
			return p
		}
	}
}
