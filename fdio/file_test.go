//go:build unix

package fdio

import (
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"testing"

	"github.com/wippyai/wasm-embed/errors"
)

func TestDupOriginalSurvivesClose(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	dup, err := Dup(int(w.Fd()), "stdout")
	if err != nil {
		t.Fatalf("Dup: %v", err)
	}

	if _, err := dup.Write([]byte("via dup\n")); err != nil {
		t.Fatalf("write through duplicate: %v", err)
	}
	if err := dup.Close(); err != nil {
		t.Fatalf("close duplicate: %v", err)
	}

	// The original must still be writable after the duplicate is closed.
	if _, err := w.Write([]byte("via original\n")); err != nil {
		t.Fatalf("original descriptor unusable after duplicate closed: %v", err)
	}

	w.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "via dup\nvia original\n" {
		t.Errorf("pipe contents = %q", got)
	}
}

func TestDupReads(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer r.Close()

	dup, err := Dup(int(r.Fd()), "stdin")
	if err != nil {
		t.Fatalf("Dup: %v", err)
	}
	defer dup.Close()

	if _, err := w.Write([]byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}
	w.Close()

	got, err := io.ReadAll(dup)
	if err != nil {
		t.Fatalf("read through duplicate: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("read %q, want %q", got, "hello")
	}
}

func TestDupInvalidDescriptor(t *testing.T) {
	// Deliberately invalid descriptor number.
	if _, err := Dup(1<<20, "bogus"); err == nil {
		t.Fatal("expected error for invalid descriptor")
	} else if !stderrors.Is(err, errors.DupFailed(0, nil)) {
		t.Errorf("expected dup_failed error, got %v", err)
	}
}

func TestDupNegativeDescriptor(t *testing.T) {
	if _, err := Dup(-1, "unbound"); err == nil {
		t.Fatal("expected error for negative descriptor")
	}
}

func TestCloseIdempotent(t *testing.T) {
	r, _, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer r.Close()

	dup, err := Dup(int(r.Fd()), "stdin")
	if err != nil {
		t.Fatalf("Dup: %v", err)
	}

	if err := dup.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := dup.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestStreamMetadataContract(t *testing.T) {
	r, _, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer r.Close()

	dup, err := Dup(int(r.Fd()), "stdin")
	if err != nil {
		t.Fatalf("Dup: %v", err)
	}
	defer dup.Close()

	if got := dup.Size(); got != 0 {
		t.Errorf("Size() = %d, want 0", got)
	}
	if dup.AccessTime() != 0 || dup.ModTime() != 0 || dup.CreateTime() != 0 {
		t.Error("timestamps must report 0 for bare descriptors")
	}
	if err := dup.Truncate(128); !stderrors.Is(err, fs.ErrPermission) {
		t.Errorf("Truncate = %v, want fs.ErrPermission", err)
	}
	if err := dup.Unlink(); err != nil {
		t.Errorf("Unlink = %v, want nil no-op", err)
	}
	if !dup.ReadReady() || !dup.WriteReady() {
		t.Error("readiness must always report ready")
	}
	if dup.Name() != "stdin" {
		t.Errorf("Name() = %q", dup.Name())
	}
}
