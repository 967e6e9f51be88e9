package game

import (
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
)

// 指令类型标签（JSON 中的 "type" 字段）
const (
	KindPing      = "Ping"
	KindSpawn     = "Spawn"
	KindScan      = "Scan"
	KindTurn      = "Turn"
	KindMove      = "Move"
	KindPaint     = "Paint"
	KindSpawnFood = "SpawnFood"
)

var (
	// ErrUnknownCommand 未知的 "type" 标签
	ErrUnknownCommand = errors.New("unknown command")
	// ErrInvalidCommand 标签合法但参数不合法
	ErrInvalidCommand = errors.New("invalid command")
)

// Command 世界唯一的修改入口：玩家指令与游戏循环指令的闭集
type Command interface {
	Kind() string
	isCommand()
}

// PlayerCommand 可由客户端提交的指令
type PlayerCommand interface {
	Command
	isPlayerCommand()
}

// GameCycleCommand 仅由服务端周期任务提交
type GameCycleCommand interface {
	Command
	isGameCycleCommand()
}

type PingCommand struct{}

type SpawnCommand struct {
	Name string  `json:"name"`
	Hue  float64 `json:"hue"`
}

type ScanCommand struct {
	Token Token `json:"token"`
}

type TurnCommand struct {
	Token Token `json:"token"`
	Side  Side  `json:"side"`
}

type MoveCommand struct {
	Token Token `json:"token"`
	Side  Side  `json:"side"`
}

type PaintCommand struct {
	Token Token `json:"token"`
}

// SpawnFoodCommand 周期生成食物
type SpawnFoodCommand struct{}

func (PingCommand) Kind() string      { return KindPing }
func (SpawnCommand) Kind() string     { return KindSpawn }
func (ScanCommand) Kind() string      { return KindScan }
func (TurnCommand) Kind() string      { return KindTurn }
func (MoveCommand) Kind() string      { return KindMove }
func (PaintCommand) Kind() string     { return KindPaint }
func (SpawnFoodCommand) Kind() string { return KindSpawnFood }

func (PingCommand) isCommand()      {}
func (SpawnCommand) isCommand()     {}
func (ScanCommand) isCommand()      {}
func (TurnCommand) isCommand()      {}
func (MoveCommand) isCommand()      {}
func (PaintCommand) isCommand()     {}
func (SpawnFoodCommand) isCommand() {}

func (PingCommand) isPlayerCommand()  {}
func (SpawnCommand) isPlayerCommand() {}
func (ScanCommand) isPlayerCommand()  {}
func (TurnCommand) isPlayerCommand()  {}
func (MoveCommand) isPlayerCommand()  {}
func (PaintCommand) isPlayerCommand() {}

func (SpawnFoodCommand) isGameCycleCommand() {}

func (c PingCommand) MarshalJSON() ([]byte, error) {
	type plain PingCommand
	return marshalTagged(c.Kind(), plain(c))
}

func (c SpawnCommand) MarshalJSON() ([]byte, error) {
	type plain SpawnCommand
	return marshalTagged(c.Kind(), plain(c))
}

func (c ScanCommand) MarshalJSON() ([]byte, error) {
	type plain ScanCommand
	return marshalTagged(c.Kind(), plain(c))
}

func (c TurnCommand) MarshalJSON() ([]byte, error) {
	type plain TurnCommand
	return marshalTagged(c.Kind(), plain(c))
}

func (c MoveCommand) MarshalJSON() ([]byte, error) {
	type plain MoveCommand
	return marshalTagged(c.Kind(), plain(c))
}

func (c PaintCommand) MarshalJSON() ([]byte, error) {
	type plain PaintCommand
	return marshalTagged(c.Kind(), plain(c))
}

func (c SpawnFoodCommand) MarshalJSON() ([]byte, error) {
	type plain SpawnFoodCommand
	return marshalTagged(c.Kind(), plain(c))
}

// DecodePlayerCommand 解析客户端提交的带标签 JSON，例如
// {"type":"Move","token":"…","side":"Right"}
func DecodePlayerCommand(b []byte) (PlayerCommand, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, errors.Wrap(err, "decode command envelope")
	}
	switch env.Type {
	case KindPing:
		return PingCommand{}, nil
	case KindSpawn:
		c, err := decodeAs[SpawnCommand](b)
		if err != nil {
			return nil, err
		}
		if c.Name == "" {
			return nil, errors.Wrap(ErrInvalidCommand, "spawn: empty name")
		}
		return c, nil
	case KindScan:
		c, err := decodeAs[ScanCommand](b)
		if err != nil {
			return nil, err
		}
		return c, nil
	case KindTurn:
		c, err := decodeAs[TurnCommand](b)
		if err != nil {
			return nil, err
		}
		if !c.Side.Valid() {
			return nil, errors.Wrapf(ErrInvalidCommand, "turn: side %q", c.Side)
		}
		return c, nil
	case KindMove:
		c, err := decodeAs[MoveCommand](b)
		if err != nil {
			return nil, err
		}
		if !c.Side.Valid() {
			return nil, errors.Wrapf(ErrInvalidCommand, "move: side %q", c.Side)
		}
		return c, nil
	case KindPaint:
		c, err := decodeAs[PaintCommand](b)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, errors.Wrapf(ErrUnknownCommand, "type %q", env.Type)
	}
}

func decodeAs[T any](b []byte) (T, error) {
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		return out, errors.Wrap(ErrInvalidCommand, err.Error())
	}
	return out, nil
}

// marshalTagged 把 "type" 标签拼到对象最前面
func marshalTagged(tag string, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	head := `{"type":` + strconv.Quote(tag)
	if len(body) <= 2 {
		return []byte(head + "}"), nil
	}
	out := make([]byte, 0, len(head)+len(body))
	out = append(out, head...)
	out = append(out, ',')
	return append(out, body[1:]...), nil
}
