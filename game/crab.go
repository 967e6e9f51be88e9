package game

import "math/rand"

// Crab 玩家控制的螃蟹。Token 是玩家的凭证，不出现在快照里。
type Crab struct {
	Name      string    `json:"name"`
	Token     Token     `json:"-"`
	Hue       float64   `json:"hue"`
	Point     int       `json:"point"`
	Direction Direction `json:"direction"`
	Position  Position  `json:"position"`
}

// SpawnCrab 在 keepOut 之外随机出生：新 Token、随机朝向、0 分
func SpawnCrab(rng *rand.Rand, name string, hue float64, size int, keepOut map[Position]struct{}) Crab {
	return Crab{
		Name:      name,
		Token:     NewToken(),
		Hue:       hue,
		Direction: RandomDirection(rng),
		Position:  randomFreePosition(rng, size, keepOut),
	}
}

// Turn 只改朝向
func (c *Crab) Turn(side Side) {
	c.Direction = c.Direction.Turn(side)
}

// NextPosition 横移后的候选位置（不修改自身）
func (c Crab) NextPosition(side Side) Position {
	return c.Position.Strafe(c.Direction, side)
}
