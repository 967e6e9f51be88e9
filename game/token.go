package game

import "github.com/google/uuid"

// Token 螃蟹/食物的不透明身份标识（UUID v4），生命周期内不变，永不复用
type Token uuid.UUID

// NewToken 生成新的随机 Token
func NewToken() Token {
	return Token(uuid.New())
}

// ParseToken 解析标准 UUID 文本
func ParseToken(s string) (Token, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return Token{}, err
	}
	return Token(u), nil
}

func (t Token) String() string {
	return uuid.UUID(t).String()
}

// IsZero 未设置的 Token
func (t Token) IsZero() bool {
	return uuid.UUID(t) == uuid.Nil
}

func (t Token) MarshalText() ([]byte, error) {
	return uuid.UUID(t).MarshalText()
}

func (t *Token) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(t).UnmarshalText(b)
}
