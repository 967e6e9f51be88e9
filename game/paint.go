package game

// Paint 螃蟹留下的涂色。同一格最多一条，后涂覆盖先涂。
type Paint struct {
	Position Position `json:"position"`
	Owner    Token    `json:"-"`
	Hue      float64  `json:"hue"`
}
