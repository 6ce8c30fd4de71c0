package domain

import (
	"encoding"
	"fmt"
	"math"
)

// MessageType はメッセージの種別タグ (u8)
type MessageType uint8

const (
	MessageTypeNone         MessageType = 0
	MessageTypeCommandBatch MessageType = 1
	MessageTypeReady        MessageType = 2 // 予約: ペイロード未定義
	MessageTypeInfo         MessageType = 3 // 予約: ペイロード未定義
	MessageTypeSay          MessageType = 4 // 予約: ペイロード未定義
	MessageTypeJoin         MessageType = 5
	MessageTypePing         MessageType = 6 // 予約: ペイロード未定義
	MessageTypePong         MessageType = 7 // 予約: ペイロード未定義
)

func (t MessageType) String() string {
	switch t {
	case MessageTypeNone:
		return "none"
	case MessageTypeCommandBatch:
		return "command_batch"
	case MessageTypeReady:
		return "ready"
	case MessageTypeInfo:
		return "info"
	case MessageTypeSay:
		return "say"
	case MessageTypeJoin:
		return "join"
	case MessageTypePing:
		return "ping"
	case MessageTypePong:
		return "pong"
	default:
		return fmt.Sprintf("message(%d)", uint8(t))
	}
}

// IsImplemented はペイロードとシリアライズが定義されている種別かを返す
func (t MessageType) IsImplemented() bool {
	return t == MessageTypeCommandBatch || t == MessageTypeJoin
}

// サイズ定数（タグを除く）
const (
	CommandBatchHeaderSize = U32Size + U8Size + U32Size // frame + side + count
	JoinHeaderSize         = U8Size
)

// Message はトランスポート層のエンベロープ
// *CommandBatch または *Join のいずれか
type Message interface {
	MessageType() MessageType
	// SerializedSize はタグ1バイトを含むシリアライズ後のサイズを返す
	SerializedSize() uint32

	encodePayload(w *Writer) error
}

// CommandBatch は指定フレームで指定勢力に適用するコマンド列
// コマンドの順序はそのフレーム内での適用順序
//
//	targetFrame  u32       (4)
//	targetSide   u8        (1)
//	commandCount u32       (4)
//	commands     Command[] (可変長)
type CommandBatch struct {
	TargetFrame uint32
	TargetSide  SideID
	Commands    []Command
}

// Join はクライアントの勢力と表示名の通知
//
//	playerSide u8     (1)
//	username   string (4 + 可変長)
type Join struct {
	PlayerSide SideID
	Username   string
}

var (
	_ Message = (*CommandBatch)(nil)
	_ Message = (*Join)(nil)

	_ encoding.BinaryMarshaler   = (*CommandBatch)(nil)
	_ encoding.BinaryUnmarshaler = (*CommandBatch)(nil)
	_ encoding.BinaryMarshaler   = (*Join)(nil)
	_ encoding.BinaryUnmarshaler = (*Join)(nil)
)

func (*CommandBatch) MessageType() MessageType { return MessageTypeCommandBatch }
func (*Join) MessageType() MessageType         { return MessageTypeJoin }

func (b *CommandBatch) SerializedSize() uint32 {
	size := uint32(TagSize + CommandBatchHeaderSize)
	for _, cmd := range b.Commands {
		cmd, err := NormalizeCommand(cmd)
		if err != nil {
			continue
		}
		size += cmd.SerializedSize()
	}
	return size
}

func (j *Join) SerializedSize() uint32 {
	return TagSize + JoinHeaderSize + StringSize(j.Username)
}

func (b *CommandBatch) encodePayload(w *Writer) error {
	if uint64(len(b.Commands)) > math.MaxUint32 {
		return fmt.Errorf("%w: %d commands exceed u32 count", ErrInvalidFieldValue, len(b.Commands))
	}
	if err := w.PutU32(b.TargetFrame); err != nil {
		return err
	}
	if err := w.PutU8(uint8(b.TargetSide)); err != nil {
		return err
	}
	if err := w.PutU32(uint32(len(b.Commands))); err != nil {
		return err
	}
	for i, cmd := range b.Commands {
		if err := EncodeCommand(w, cmd); err != nil {
			return fmt.Errorf("command %d: %w", i, err)
		}
	}
	return nil
}

func (j *Join) encodePayload(w *Writer) error {
	if err := w.PutU8(uint8(j.PlayerSide)); err != nil {
		return err
	}
	return w.PutString(j.Username)
}

// EncodeMessage はタグとペイロードをWriterへ書き込む
func EncodeMessage(w *Writer, msg Message) error {
	if msg == nil {
		return fmt.Errorf("%w: nil message", ErrUnsupportedMessageType)
	}
	if w.Remaining() < int(msg.SerializedSize()) {
		return fmt.Errorf("%w: %s message needs %d bytes, %d remaining", ErrBufferTooShort, msg.MessageType(), msg.SerializedSize(), w.Remaining())
	}
	if err := w.PutU8(uint8(msg.MessageType())); err != nil {
		return err
	}
	return msg.encodePayload(w)
}

// SerializeMessage はbufの先頭にメッセージを書き込み、書き込んだバイト数を返す
func SerializeMessage(msg Message, buf []byte) (int, error) {
	w := NewWriter(buf)
	if err := EncodeMessage(w, msg); err != nil {
		return 0, err
	}
	return w.Len(), nil
}

// MarshalMessage はSerializedSizeちょうどのバッファを確保して1パスで書き込む
func MarshalMessage(msg Message) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("%w: nil message", ErrUnsupportedMessageType)
	}
	buf := make([]byte, msg.SerializedSize())
	n, err := SerializeMessage(msg, buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// DecodeMessage はタグを読み、対応する種別のペイロードをデコードする
// 予約済みの種別 (READY, INFO, SAY, PING, PONG) は ErrUnsupportedMessageType を返す
func DecodeMessage(r *Reader) (Message, error) {
	tag, err := r.U8()
	if err != nil {
		return nil, err
	}
	switch MessageType(tag) {
	case MessageTypeCommandBatch:
		return decodeCommandBatch(r)
	case MessageTypeJoin:
		return decodeJoin(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMessageType, MessageType(tag))
	}
}

// DeserializeMessage はbufの先頭からメッセージを1つデコードし、消費したバイト数を返す
// 末尾の余剰バイトは読まずに残す
func DeserializeMessage(buf []byte) (Message, int, error) {
	r := NewReader(buf)
	msg, err := DecodeMessage(r)
	if err != nil {
		return nil, 0, err
	}
	return msg, r.Offset(), nil
}

func decodeCommandBatch(r *Reader) (*CommandBatch, error) {
	frame, err := r.U32()
	if err != nil {
		return nil, err
	}
	side, err := r.U8()
	if err != nil {
		return nil, err
	}
	count, err := r.U32()
	if err != nil {
		return nil, err
	}
	// 宣言数ぶんの最小サイズすら残っていなければ確保前に失敗させる
	if uint64(count)*MinCommandSize > uint64(r.Remaining()) {
		return nil, fmt.Errorf("%w: %d commands declared, %d bytes remaining", ErrBufferTooShort, count, r.Remaining())
	}

	commands := make([]Command, 0, count)
	for i := uint32(0); i < count; i++ {
		cmd, err := DecodeCommand(r)
		if err != nil {
			return nil, fmt.Errorf("command %d: %w", i, err)
		}
		commands = append(commands, cmd)
	}

	return &CommandBatch{
		TargetFrame: frame,
		TargetSide:  SideID(side),
		Commands:    commands,
	}, nil
}

func decodeJoin(r *Reader) (*Join, error) {
	side, err := r.U8()
	if err != nil {
		return nil, err
	}
	username, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	return &Join{
		PlayerSide: SideID(side),
		Username:   username,
	}, nil
}

func (b *CommandBatch) MarshalBinary() ([]byte, error) { return MarshalMessage(b) }
func (j *Join) MarshalBinary() ([]byte, error)         { return MarshalMessage(j) }

// UnmarshalBinary はタグを含むバイト列からCommandBatchを復元する
func (b *CommandBatch) UnmarshalBinary(data []byte) error {
	msg, _, err := DeserializeMessage(data)
	if err != nil {
		return err
	}
	batch, ok := msg.(*CommandBatch)
	if !ok {
		return fmt.Errorf("%w: %s is not a command batch", ErrUnsupportedMessageType, msg.MessageType())
	}
	*b = *batch
	return nil
}

// UnmarshalBinary はタグを含むバイト列からJoinを復元する
func (j *Join) UnmarshalBinary(data []byte) error {
	msg, _, err := DeserializeMessage(data)
	if err != nil {
		return err
	}
	join, ok := msg.(*Join)
	if !ok {
		return fmt.Errorf("%w: %s is not a join", ErrUnsupportedMessageType, msg.MessageType())
	}
	*j = *join
	return nil
}
