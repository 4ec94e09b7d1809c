package logging

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSizeLimitedWriterRotates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.log")
	w, err := newSizeLimitedWriter(path, 1)
	if err != nil {
		t.Fatalf("create writer: %v", err)
	}
	defer w.Close()

	chunk := make([]byte, 400*1024)
	for i := 0; i < 3; i++ {
		if _, err := w.Write(chunk); err != nil {
			t.Fatalf("write chunk %d: %v", i, err)
		}
	}

	cur, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat log: %v", err)
	}
	if cur.Size() != int64(len(chunk)) {
		t.Fatalf("current log = %d bytes, want one chunk", cur.Size())
	}
	old, err := os.Stat(path + ".1")
	if err != nil {
		t.Fatalf("stat rotated log: %v", err)
	}
	if old.Size() != int64(2*len(chunk)) {
		t.Fatalf("rotated log = %d bytes, want two chunks", old.Size())
	}
}

func TestSizeLimitedWriterReopensAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.log")
	w, err := newSizeLimitedWriter(path, 1)
	if err != nil {
		t.Fatalf("create writer: %v", err)
	}
	_ = w.Close()
	if _, err := w.Write([]byte("late line\n")); err != nil {
		t.Fatalf("write after close: %v", err)
	}
	_ = w.Close()
	b, _ := os.ReadFile(path)
	if string(b) != "late line\n" {
		t.Fatalf("log = %q", b)
	}
}
