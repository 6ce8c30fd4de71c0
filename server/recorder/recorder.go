package recorder

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"lockstep/server/domain"
)

// FileSuffix は記録ファイルの拡張子
const FileSuffix = ".lsr.zst"

// MaxRecordSize はReaderが受け付ける1レコードの上限
const MaxRecordSize = 16 << 20

const lengthSize = domain.U32Size

// Writer は受信メッセージをzstd圧縮したレコード列として書き出します。
// レコードは u32(big endian) の長さとメッセージのバイト列
type Writer struct {
	mu   sync.Mutex
	path string
	f    *os.File
	enc  *zstd.Encoder
	w    *bufio.Writer
}

// NewWriter はdstへ書き込むWriterを作成します。dstのCloseは呼び出し側の責任です。
func NewWriter(dst io.Writer) (*Writer, error) {
	enc, err := zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, err
	}
	return &Writer{
		enc: enc,
		w:   bufio.NewWriterSize(enc, 64*1024),
	}, nil
}

// NewFileWriter はdir配下に <prefix>-<UTC時刻>.lsr.zst を作成して書き込むWriterを返します。
func NewFileWriter(dir, prefix string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	name := fmt.Sprintf("%s-%s%s", prefix, time.Now().UTC().Format("20060102-150405.000"), FileSuffix)
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w.f = f
	w.path = path
	return w, nil
}

// Path は書き込み先のファイルパスを返します。NewWriterで作成した場合は空です。
func (w *Writer) Path() string {
	return w.path
}

// Append は1メッセージ分のバイト列をレコードとして追記します。
func (w *Writer) Append(data []byte) error {
	if uint64(len(data)) > math.MaxUint32 {
		return fmt.Errorf("%w: record of %d bytes", domain.ErrInvalidFieldValue, len(data))
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return errors.New("recorder: writer closed")
	}

	var header [lengthSize]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(data)))
	if _, err := w.w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.w.Write(data)
	return err
}

// Flush はバッファ済みのレコードを圧縮ストリームへ書き出します。
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return nil
	}
	if err := w.w.Flush(); err != nil {
		return err
	}
	return w.enc.Flush()
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return nil
	}
	err := w.w.Flush()
	if cerr := w.enc.Close(); err == nil {
		err = cerr
	}
	if w.f != nil {
		if cerr := w.f.Close(); err == nil {
			err = cerr
		}
		w.f = nil
	}
	w.w = nil
	w.enc = nil
	return err
}

// Reader はWriterが書き出したレコード列を順に読みます。
type Reader struct {
	dec *zstd.Decoder
	r   *bufio.Reader
}

func NewReader(src io.Reader) (*Reader, error) {
	dec, err := zstd.NewReader(src)
	if err != nil {
		return nil, err
	}
	return &Reader{dec: dec, r: bufio.NewReader(dec)}, nil
}

// Next は次のレコードを返します。終端では io.EOF を返します。
// レコードの途中で途切れている場合は domain.ErrBufferTooShort を包んだエラーを返します。
func (r *Reader) Next() ([]byte, error) {
	var header [lengthSize]byte
	if _, err := io.ReadFull(r.r, header[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, tornRecord(err)
	}
	n := binary.BigEndian.Uint32(header[:])
	if n > MaxRecordSize {
		return nil, fmt.Errorf("%w: record of %d bytes exceeds %d", domain.ErrInvalidFieldValue, n, MaxRecordSize)
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(r.r, data); err != nil {
		return nil, tornRecord(err)
	}
	return data, nil
}

func (r *Reader) Close() {
	r.dec.Close()
}

func tornRecord(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: torn record", domain.ErrBufferTooShort)
	}
	return err
}

// OpenFile は記録ファイルを開いてReaderを返します。戻り値のcloseで両方を閉じます。
func OpenFile(path string) (*Reader, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	r, err := NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	return r, func() error {
		r.Close()
		return f.Close()
	}, nil
}
