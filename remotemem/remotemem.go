// Package remotemem provides read-only random-access to another process's
// virtual memory. Every other component reads the target exclusively
// through this package.
package remotemem

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/stackprobe/stackprobe/frame"
)

// MaxReadLength caps any single Read, defending against corrupted length
// fields decoded out of the target.
const MaxReadLength = 4 << 20

// Reader is the capability the rest of the core needs: read a span of
// foreign memory, or read one pointer-sized value from it. LayoutEntry
// functions that need to chase further pointers (decoding an iseq, decoding
// a VM string) take a Reader, never a *Remote directly, so they can be
// exercised against a fake in unit tests.
type Reader interface {
	Read(addr frame.Address, n int) ([]byte, error)
	ReadPointer(addr frame.Address) (frame.Address, error)
}

// Remote reads the address space of one foreign process by pid. It caches a
// snapshot of /proc/<pid>/maps to answer "is this mapped" without a syscall
// per read, and to classify failures before they happen.
//
// A Remote is not safe for concurrent use by multiple goroutines against
// the same underlying file descriptors; callers that snapshot the same
// Target from multiple goroutines should use separate Remote values.
type Remote struct {
	pid     int
	ptrSize int

	mapFile *os.File // /proc/<pid>/mem, opened lazily, used as the readv fallback
	maps    []Mapping
}

// New opens a reader against pid. It does not attach as a debugger and does
// not stop the target; it only snapshots /proc/<pid>/maps once, up front.
func New(pid int) (*Remote, error) {
	r := &Remote{pid: pid, ptrSize: 8}

	if err := r.Refresh(); err != nil {
		return nil, err
	}

	return r, nil
}

// Close releases any open file descriptors. It has no effect on the target.
func (r *Remote) Close() error {
	if r.mapFile != nil {
		return r.mapFile.Close()
	}

	return nil
}

// PtrSize returns the pointer width of the target, in bytes.
func (r *Remote) PtrSize() int { return r.ptrSize }

// Refresh re-reads /proc/<pid>/maps. Callers do this between samples; within
// one Snapshot call the cached mapping list is treated as a point-in-time
// view - there is no ordering guarantee between one sample and the next.
func (r *Remote) Refresh() error {
	maps, err := readMaps(r.pid)
	if err != nil {
		return err
	}

	r.maps = maps

	return nil
}

// Mappings returns the most recent /proc/<pid>/maps snapshot.
func (r *Remote) Mappings() []Mapping {
	return r.maps
}

// LoadedObjects returns the distinct backing files of the most recent
// mapping snapshot.
func (r *Remote) LoadedObjects() []LoadedObject {
	return LoadedObjects(r.maps)
}

// Alive reports whether the target still exists, using signal 0. Signal 0
// performs existence/permission checks only and is never delivered, so this
// never disturbs the target.
func (r *Remote) Alive() bool {
	return unix.Kill(r.pid, 0) == nil
}

func (r *Remote) classify(addr frame.Address, n int, err error) error {
	if err == nil {
		return nil
	}

	if !r.Alive() {
		return fmt.Errorf("pid %d: %w", r.pid, ErrGone)
	}

	switch {
	case errors.Is(err, syscall.ESRCH):
		return fmt.Errorf("pid %d: %w", r.pid, ErrGone)
	case errors.Is(err, syscall.EPERM), errors.Is(err, syscall.EACCES):
		return fmt.Errorf("pid %d: %w", r.pid, ErrPermission)
	case errors.Is(err, syscall.EIO), errors.Is(err, syscall.EFAULT):
		if !r.mapped(addr, n) {
			return fmt.Errorf("addr %#x len %d: %w", addr, n, ErrUnmapped)
		}

		return fmt.Errorf("addr %#x len %d: %w", addr, n, ErrTransient)
	default:
		return fmt.Errorf("addr %#x len %d: %w", addr, n, ErrTransient)
	}
}

func (r *Remote) mapped(addr frame.Address, n int) bool {
	end := addr.Add(int64(n))

	for _, m := range r.maps {
		if !m.Readable() {
			continue
		}

		if addr >= m.Start && end <= m.End {
			return true
		}
	}

	return false
}

// Read copies n bytes starting at addr out of the target. It rejects n==0
// as a logic error and caps n at MaxReadLength. It never stops the target
// and never writes to it.
func (r *Remote) Read(addr frame.Address, n int) ([]byte, error) {
	if n == 0 {
		return nil, ErrZeroLength
	}

	if n > MaxReadLength {
		return nil, fmt.Errorf("%w: %d > %d", ErrLengthTooLarge, n, MaxReadLength)
	}

	if !r.mapped(addr, n) {
		return nil, fmt.Errorf("addr %#x len %d: %w", addr, n, ErrUnmapped)
	}

	buf := make([]byte, n)

	if err := r.bulkRead(addr, buf); err != nil {
		if fbErr := r.fallbackRead(addr, buf); fbErr == nil {
			return buf, nil
		}

		return nil, r.classify(addr, n, err)
	}

	return buf, nil
}

// bulkRead uses process_vm_readv, the preferred cross-process bulk-copy
// primitive when it's available. It is a single syscall regardless of n,
// unlike a ptrace-PEEKDATA-per-word approach.
func (r *Remote) bulkRead(addr frame.Address, buf []byte) error {
	local := []unix.Iovec{{Base: &buf[0], Len: uint64(len(buf))}}
	remote := []unix.RemoteIovec{{Base: uintptr(addr), Len: len(buf)}}

	n, err := unix.ProcessVMReadv(r.pid, local, remote, 0)
	if err != nil {
		return err
	}

	if n != len(buf) {
		return ErrTransient
	}

	return nil
}

// fallbackRead reads via /proc/<pid>/mem, used when the bulk primitive is
// unavailable (e.g. the process_vm_readv syscall is denied by seccomp).
func (r *Remote) fallbackRead(addr frame.Address, buf []byte) error {
	if r.mapFile == nil {
		f, err := os.OpenFile(fmt.Sprintf("/proc/%d/mem", r.pid), os.O_RDONLY, 0)
		if err != nil {
			return err
		}

		r.mapFile = f
	}

	n, err := r.mapFile.ReadAt(buf, int64(addr))
	if err != nil {
		return err
	}

	if n != len(buf) {
		return ErrTransient
	}

	return nil
}

// ReadPointer reads one pointer-sized little-endian value at addr.
func (r *Remote) ReadPointer(addr frame.Address) (frame.Address, error) {
	buf, err := r.Read(addr, r.ptrSize)
	if err != nil {
		return 0, err
	}

	return frame.Address(decodeUint(buf)), nil
}

func decodeUint(b []byte) uint64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}

	return v
}
