package domain

import (
	"encoding/binary"
	"fmt"
	"math"
)

// バイトオーダー: ビッグエンディアン（ネットワークバイトオーダー）
var byteOrder = binary.BigEndian

// 固定長フィールドのサイズ
const (
	U8Size      = 1
	U32Size     = 4
	F32Size     = 4
	Vector3Size = 3 * F32Size
)

// Vector3 はワールド座標 (12バイト)
//
//	x, y, z float32 (12)
type Vector3 struct {
	X, Y, Z float32
}

// StringSize は長さプレフィックス付き文字列のシリアライズ後サイズを返す
func StringSize(s string) uint32 {
	return U32Size + uint32(len(s))
}

// Writer は呼び出し側が確保したバッファへ先頭から順に書き込む
// 容量は len(buf) で判定し、append による拡張は行わない
type Writer struct {
	buf []byte
	off int
}

func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf}
}

// Len は書き込み済みのバイト数を返す
func (w *Writer) Len() int { return w.off }

// Remaining は書き込み可能な残りバイト数を返す
func (w *Writer) Remaining() int { return len(w.buf) - w.off }

// Bytes は書き込み済みの範囲を返す
func (w *Writer) Bytes() []byte { return w.buf[:w.off] }

func (w *Writer) reserve(n int) ([]byte, error) {
	if w.Remaining() < n {
		return nil, fmt.Errorf("%w: write %d bytes at offset %d, %d remaining", ErrBufferTooShort, n, w.off, w.Remaining())
	}
	b := w.buf[w.off : w.off+n]
	w.off += n
	return b, nil
}

func (w *Writer) PutU8(v uint8) error {
	b, err := w.reserve(U8Size)
	if err != nil {
		return err
	}
	b[0] = v
	return nil
}

func (w *Writer) PutU32(v uint32) error {
	b, err := w.reserve(U32Size)
	if err != nil {
		return err
	}
	byteOrder.PutUint32(b, v)
	return nil
}

// PutF32 はfloat32のビットパターンをそのままu32として書き込む
// NaNのペイロードや-0も保持される
func (w *Writer) PutF32(v float32) error {
	return w.PutU32(math.Float32bits(v))
}

func (w *Writer) PutVector3(v Vector3) error {
	b, err := w.reserve(Vector3Size)
	if err != nil {
		return err
	}
	byteOrder.PutUint32(b[0:4], math.Float32bits(v.X))
	byteOrder.PutUint32(b[4:8], math.Float32bits(v.Y))
	byteOrder.PutUint32(b[8:12], math.Float32bits(v.Z))
	return nil
}

// PutBytes はu32の長さに続けて生のバイト列を書き込む
func (w *Writer) PutBytes(p []byte) error {
	if uint64(len(p)) > math.MaxUint32 {
		return fmt.Errorf("%w: byte string of %d bytes exceeds u32 length", ErrInvalidFieldValue, len(p))
	}
	b, err := w.reserve(U32Size + len(p))
	if err != nil {
		return err
	}
	byteOrder.PutUint32(b[0:4], uint32(len(p)))
	copy(b[4:], p)
	return nil
}

// PutString は文字列を長さプレフィックス付きで書き込む
// 終端文字やエンコーディング変換は行わない
func (w *Writer) PutString(s string) error {
	if uint64(len(s)) > math.MaxUint32 {
		return fmt.Errorf("%w: string of %d bytes exceeds u32 length", ErrInvalidFieldValue, len(s))
	}
	b, err := w.reserve(U32Size + len(s))
	if err != nil {
		return err
	}
	byteOrder.PutUint32(b[0:4], uint32(len(s)))
	copy(b[4:], s)
	return nil
}

// Reader は呼び出し側のバッファを先頭から順に読み出す
// 読み出し前に必ず残りバイト数を検証する
type Reader struct {
	buf []byte
	off int
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Offset は読み出し済みのバイト数を返す
func (r *Reader) Offset() int { return r.off }

// Remaining は未読のバイト数を返す
func (r *Reader) Remaining() int { return len(r.buf) - r.off }

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, fmt.Errorf("%w: read %d bytes at offset %d, %d remaining", ErrBufferTooShort, n, r.off, r.Remaining())
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *Reader) U8() (uint8, error) {
	b, err := r.take(U8Size)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) U32() (uint32, error) {
	b, err := r.take(U32Size)
	if err != nil {
		return 0, err
	}
	return byteOrder.Uint32(b), nil
}

func (r *Reader) F32() (float32, error) {
	v, err := r.U32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (r *Reader) Vector3() (Vector3, error) {
	b, err := r.take(Vector3Size)
	if err != nil {
		return Vector3{}, err
	}
	return Vector3{
		X: math.Float32frombits(byteOrder.Uint32(b[0:4])),
		Y: math.Float32frombits(byteOrder.Uint32(b[4:8])),
		Z: math.Float32frombits(byteOrder.Uint32(b[8:12])),
	}, nil
}

// ReadBytes は長さプレフィックス付きバイト列を読み出す
// 宣言長が残りバイト数を超える場合はカーソルを進めずに失敗する
// 戻り値はバッファのコピー
func (r *Reader) ReadBytes() ([]byte, error) {
	start := r.off
	n, err := r.U32()
	if err != nil {
		return nil, err
	}
	if uint64(n) > uint64(r.Remaining()) {
		r.off = start
		return nil, fmt.Errorf("%w: declared length %d at offset %d, %d remaining", ErrBufferTooShort, n, start, r.Remaining())
	}
	b, _ := r.take(int(n))
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// ReadString は長さプレフィックス付き文字列を読み出す
func (r *Reader) ReadString() (string, error) {
	b, err := r.ReadBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}
