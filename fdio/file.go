//go:build unix

package fdio

import (
	"io/fs"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/wippyai/wasm-embed/errors"
)

// File is an owned duplicate of a host file descriptor. It satisfies
// io.Reader, io.Writer, io.Seeker, and io.Closer, so it plugs directly into
// the engine's stdio hooks. Closing a File releases only the duplicate.
type File struct {
	f         *os.File
	closeOnce sync.Once
	closeErr  error
}

// Dup duplicates fd and returns an owned File over the duplicate. The
// original descriptor is not mutated, not closed, and remains usable by the
// host. The duplicate is marked close-on-exec so it never leaks into child
// processes.
func Dup(fd int, name string) (*File, error) {
	if fd < 0 {
		return nil, errors.InvalidInput(errors.PhaseDescriptor, "negative descriptor")
	}

	dupFD, err := unix.Dup(fd)
	if err != nil {
		return nil, errors.DupFailed(fd, err)
	}
	unix.CloseOnExec(dupFD)

	return &File{f: os.NewFile(uintptr(dupFD), name)}, nil
}

func (f *File) Read(p []byte) (int, error) {
	return f.f.Read(p)
}

func (f *File) Write(p []byte) (int, error) {
	return f.f.Write(p)
}

func (f *File) Seek(offset int64, whence int) (int64, error) {
	return f.f.Seek(offset, whence)
}

// Close releases the duplicated descriptor. It is safe to call more than
// once; only the first call closes, later calls return the first result.
func (f *File) Close() error {
	f.closeOnce.Do(func() {
		f.closeErr = f.f.Close()
	})
	return f.closeErr
}

// Size reports 0: arbitrary descriptors do not reliably answer stat queries.
func (f *File) Size() uint64 { return 0 }

// AccessTime reports 0 (unknown) for bare descriptors.
func (f *File) AccessTime() uint64 { return 0 }

// ModTime reports 0 (unknown) for bare descriptors.
func (f *File) ModTime() uint64 { return 0 }

// CreateTime reports 0 (unknown) for bare descriptors.
func (f *File) CreateTime() uint64 { return 0 }

// Truncate rejects resizing: a live stream has no meaningful length.
func (f *File) Truncate(int64) error { return fs.ErrPermission }

// Unlink succeeds as a no-op: a bare descriptor has no path to remove.
func (f *File) Unlink() error { return nil }

// ReadReady always reports ready. Bound descriptors are blocking-capable, so
// the read itself parks the loop goroutine instead of a poller.
func (f *File) ReadReady() bool { return true }

// WriteReady always reports ready, matching ReadReady.
func (f *File) WriteReady() bool { return true }

// Name returns the label the binding was created with.
func (f *File) Name() string { return f.f.Name() }
