package recorder

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"

	"lockstep/server/domain"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	join, err := domain.MarshalMessage(&domain.Join{PlayerSide: domain.SideRed, Username: "Greph"})
	if err != nil {
		t.Fatalf("MarshalMessage failed: %v", err)
	}
	batch, err := domain.MarshalMessage(&domain.CommandBatch{
		TargetFrame: 3,
		TargetSide:  domain.SideRed,
		Commands:    []domain.Command{domain.CaptureCommand{RobotNID: 1, TargetNID: 2}},
	})
	if err != nil {
		t.Fatalf("MarshalMessage failed: %v", err)
	}
	records := [][]byte{join, {}, batch}

	for _, r := range records {
		if err := w.Append(r); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := w.Append(join); err == nil {
		t.Error("Append after Close should fail")
	}

	r, err := NewReader(&buf)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer r.Close()

	for i, want := range records {
		got, err := r.Next()
		if err != nil {
			t.Fatalf("Next %d failed: %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("record %d = % x, want % x", i, got, want)
		}
	}
	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestReaderTornRecord(t *testing.T) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		t.Fatalf("zstd.NewWriter failed: %v", err)
	}
	// 10バイトと宣言して3バイトだけ書く
	if _, err := enc.Write([]byte{0, 0, 0, 10, 1, 2, 3}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	r, err := NewReader(&buf)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer r.Close()
	if _, err := r.Next(); !errors.Is(err, domain.ErrBufferTooShort) {
		t.Fatalf("expected ErrBufferTooShort, got %v", err)
	}
}

func TestReaderOversizedRecord(t *testing.T) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		t.Fatalf("zstd.NewWriter failed: %v", err)
	}
	if _, err := enc.Write([]byte{0xff, 0xff, 0xff, 0xff}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	r, err := NewReader(&buf)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer r.Close()
	if _, err := r.Next(); !errors.Is(err, domain.ErrInvalidFieldValue) {
		t.Fatalf("expected ErrInvalidFieldValue, got %v", err)
	}
}

func TestFileWriter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "records")
	w, err := NewFileWriter(dir, "match")
	if err != nil {
		t.Fatalf("NewFileWriter failed: %v", err)
	}
	name := filepath.Base(w.Path())
	if !strings.HasPrefix(name, "match-") || !strings.HasSuffix(name, FileSuffix) {
		t.Errorf("file name = %q", name)
	}

	if err := w.Append([]byte{1, 2, 3}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := os.Stat(w.Path()); err != nil {
		t.Fatalf("Stat failed: %v", err)
	}

	r, closeFn, err := OpenFile(w.Path())
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	defer closeFn()
	got, err := r.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Errorf("record = % x", got)
	}
}
