package game

import "math/rand"

// Food 世界生成的食物，被螃蟹踩到即消失，Size 计入螃蟹积分
type Food struct {
	ID       Token    `json:"id"`
	Position Position `json:"position"`
	Size     int      `json:"size"`
}

// PlaceFood 在 keepOut 之外生成，Size 均匀取 [1, maxSize]
func PlaceFood(rng *rand.Rand, maxSize, size int, keepOut map[Position]struct{}) Food {
	if maxSize < 1 {
		maxSize = 1
	}
	return Food{
		ID:       NewToken(),
		Position: randomFreePosition(rng, size, keepOut),
		Size:     1 + rng.Intn(maxSize),
	}
}
