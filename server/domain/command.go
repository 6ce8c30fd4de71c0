package domain

import "fmt"

// CommandType はコマンドの種別タグ (u8)
// 数値はワイヤ上の定数。宣言順ではなくこの値を使うこと (ATTACK=2, CAPTURE=3)
type CommandType uint8

const (
	CommandTypeNone    CommandType = 0
	CommandTypeMove    CommandType = 1
	CommandTypeAttack  CommandType = 2
	CommandTypeCapture CommandType = 3
	CommandTypeBuild   CommandType = 4
)

func (t CommandType) String() string {
	switch t {
	case CommandTypeNone:
		return "none"
	case CommandTypeMove:
		return "move"
	case CommandTypeAttack:
		return "attack"
	case CommandTypeCapture:
		return "capture"
	case CommandTypeBuild:
		return "build"
	default:
		return fmt.Sprintf("command(%d)", uint8(t))
	}
}

// MaxWeaponCount はBuildコマンドの武器スロット数
const MaxWeaponCount = 5

// サイズ定数（タグを除くペイロード）
const (
	TagSize           = U8Size
	MovePayloadSize   = U32Size + Vector3Size                                 // 16
	TargetPayloadSize = 2 * U32Size                                           // 8
	BuildPayloadSize  = 3*U32Size + U8Size + U32Size + MaxWeaponCount*U32Size // 37
	MinCommandSize    = TagSize + TargetPayloadSize                           // 9
)

// Command はシミュレーションへの1つの命令
// MoveCommand, AttackCommand, CaptureCommand, BuildCommand のいずれか
type Command interface {
	CommandType() CommandType
	// SerializedSize はタグ1バイトを含むシリアライズ後のサイズを返す
	SerializedSize() uint32

	encodePayload(w *Writer) error
}

// MoveCommand はユニットをワールド座標へ移動させる
//
//	robotNID   u32     (4)
//	targetPos  Vector3 (12)
type MoveCommand struct {
	RobotNID  uint32
	TargetPos Vector3
}

// AttackCommand はユニットに対象を攻撃させる
//
//	robotNID  u32 (4)
//	targetNID u32 (4)
type AttackCommand struct {
	RobotNID  uint32
	TargetNID uint32
}

// CaptureCommand はユニットに対象を占領させる
//
//	robotNID  u32 (4)
//	targetNID u32 (4)
type CaptureCommand struct {
	RobotNID  uint32
	TargetNID uint32
}

// BuildCommand は基地でのロボット生産を予約する
// ワイヤ上の順序は chassis, hull, head, robotCount, targetBaseNID, weapons[5]
//
//	chassis        u32    (4)
//	hull           u32    (4)
//	head           u32    (4)
//	robotCount     u8     (1)
//	targetBaseNID  u32    (4)
//	weapons        u32[5] (20)
type BuildCommand struct {
	Chassis       RobotUnitKind
	Hull          RobotUnitKind
	Head          RobotUnitKind
	Weapons       [MaxWeaponCount]RobotUnitKind
	RobotCount    uint8
	TargetBaseNID uint32
}

var (
	_ Command = MoveCommand{}
	_ Command = AttackCommand{}
	_ Command = CaptureCommand{}
	_ Command = BuildCommand{}
)

// NormalizeCommand はポインタで渡されたコマンドを値に揃える。
// nilやnilポインタはErrUnknownCommandTagになる
func NormalizeCommand(cmd Command) (Command, error) {
	switch c := cmd.(type) {
	case MoveCommand, AttackCommand, CaptureCommand, BuildCommand:
		return c, nil
	case *MoveCommand:
		if c != nil {
			return *c, nil
		}
	case *AttackCommand:
		if c != nil {
			return *c, nil
		}
	case *CaptureCommand:
		if c != nil {
			return *c, nil
		}
	case *BuildCommand:
		if c != nil {
			return *c, nil
		}
	}
	return nil, fmt.Errorf("%w: %T", ErrUnknownCommandTag, cmd)
}

func (MoveCommand) CommandType() CommandType    { return CommandTypeMove }
func (AttackCommand) CommandType() CommandType  { return CommandTypeAttack }
func (CaptureCommand) CommandType() CommandType { return CommandTypeCapture }
func (BuildCommand) CommandType() CommandType   { return CommandTypeBuild }

func (MoveCommand) SerializedSize() uint32    { return TagSize + MovePayloadSize }
func (AttackCommand) SerializedSize() uint32  { return TagSize + TargetPayloadSize }
func (CaptureCommand) SerializedSize() uint32 { return TagSize + TargetPayloadSize }
func (BuildCommand) SerializedSize() uint32   { return TagSize + BuildPayloadSize }

func (c MoveCommand) encodePayload(w *Writer) error {
	if err := w.PutU32(c.RobotNID); err != nil {
		return err
	}
	return w.PutVector3(c.TargetPos)
}

func (c AttackCommand) encodePayload(w *Writer) error {
	return putTargetPayload(w, c.RobotNID, c.TargetNID)
}

func (c CaptureCommand) encodePayload(w *Writer) error {
	return putTargetPayload(w, c.RobotNID, c.TargetNID)
}

func (c BuildCommand) encodePayload(w *Writer) error {
	for _, v := range []RobotUnitKind{c.Chassis, c.Hull, c.Head} {
		if err := w.PutU32(uint32(v)); err != nil {
			return err
		}
	}
	if err := w.PutU8(c.RobotCount); err != nil {
		return err
	}
	if err := w.PutU32(c.TargetBaseNID); err != nil {
		return err
	}
	for _, wp := range c.Weapons {
		if err := w.PutU32(uint32(wp)); err != nil {
			return err
		}
	}
	return nil
}

func putTargetPayload(w *Writer, robotNID, targetNID uint32) error {
	if err := w.PutU32(robotNID); err != nil {
		return err
	}
	return w.PutU32(targetNID)
}

// EncodeCommand はタグとペイロードをWriterへ書き込む
func EncodeCommand(w *Writer, cmd Command) error {
	cmd, err := NormalizeCommand(cmd)
	if err != nil {
		return err
	}
	if w.Remaining() < int(cmd.SerializedSize()) {
		return fmt.Errorf("%w: %s command needs %d bytes, %d remaining", ErrBufferTooShort, cmd.CommandType(), cmd.SerializedSize(), w.Remaining())
	}
	if err := w.PutU8(uint8(cmd.CommandType())); err != nil {
		return err
	}
	return cmd.encodePayload(w)
}

// SerializeCommand はbufの先頭にコマンドを書き込み、書き込んだバイト数を返す
func SerializeCommand(cmd Command, buf []byte) (int, error) {
	w := NewWriter(buf)
	if err := EncodeCommand(w, cmd); err != nil {
		return 0, err
	}
	return w.Len(), nil
}

// DecodeCommand はタグを読み、対応する種別のペイロードをデコードする
func DecodeCommand(r *Reader) (Command, error) {
	tag, err := r.U8()
	if err != nil {
		return nil, err
	}
	switch CommandType(tag) {
	case CommandTypeMove:
		return decodeMove(r)
	case CommandTypeAttack:
		robotNID, targetNID, err := readTargetPayload(r)
		if err != nil {
			return nil, err
		}
		return AttackCommand{RobotNID: robotNID, TargetNID: targetNID}, nil
	case CommandTypeCapture:
		robotNID, targetNID, err := readTargetPayload(r)
		if err != nil {
			return nil, err
		}
		return CaptureCommand{RobotNID: robotNID, TargetNID: targetNID}, nil
	case CommandTypeBuild:
		return decodeBuild(r)
	default:
		return nil, fmt.Errorf("%w: %d at offset %d", ErrUnknownCommandTag, tag, r.Offset()-TagSize)
	}
}

// DeserializeCommand はbufの先頭からコマンドを1つデコードし、消費したバイト数を返す
func DeserializeCommand(buf []byte) (Command, int, error) {
	r := NewReader(buf)
	cmd, err := DecodeCommand(r)
	if err != nil {
		return nil, 0, err
	}
	return cmd, r.Offset(), nil
}

func decodeMove(r *Reader) (Command, error) {
	robotNID, err := r.U32()
	if err != nil {
		return nil, err
	}
	pos, err := r.Vector3()
	if err != nil {
		return nil, err
	}
	return MoveCommand{RobotNID: robotNID, TargetPos: pos}, nil
}

func readTargetPayload(r *Reader) (uint32, uint32, error) {
	robotNID, err := r.U32()
	if err != nil {
		return 0, 0, err
	}
	targetNID, err := r.U32()
	if err != nil {
		return 0, 0, err
	}
	return robotNID, targetNID, nil
}

func decodeBuild(r *Reader) (Command, error) {
	var parts [3]uint32
	for i := range parts {
		v, err := r.U32()
		if err != nil {
			return nil, err
		}
		parts[i] = v
	}
	count, err := r.U8()
	if err != nil {
		return nil, err
	}
	baseNID, err := r.U32()
	if err != nil {
		return nil, err
	}
	var weapons [MaxWeaponCount]RobotUnitKind
	for i := range weapons {
		v, err := r.U32()
		if err != nil {
			return nil, err
		}
		weapons[i] = RobotUnitKind(v)
	}
	return BuildCommand{
		Chassis:       RobotUnitKind(parts[0]),
		Hull:          RobotUnitKind(parts[1]),
		Head:          RobotUnitKind(parts[2]),
		Weapons:       weapons,
		RobotCount:    count,
		TargetBaseNID: baseNID,
	}, nil
}
