package layout_test

import (
	"github.com/stackprobe/stackprobe/frame"
)

// fakeReader is a flat byte-addressed in-memory Reader used across this
// package's tests, standing in for a captured core dump so each LayoutEntry
// can be unit tested with no live target.
type fakeReader struct {
	mem map[frame.Address][]byte
}

func newFakeReader() *fakeReader {
	return &fakeReader{mem: map[frame.Address][]byte{}}
}

func (f *fakeReader) put(addr frame.Address, b []byte) {
	f.mem[addr] = b
}

func (f *fakeReader) Read(addr frame.Address, n int) ([]byte, error) {
	for base, b := range f.mem {
		if addr >= base && int(addr.Sub(base))+n <= len(b) {
			off := int(addr.Sub(base))

			return b[off : off+n], nil
		}
	}

	return nil, errUnmapped
}

func (f *fakeReader) ReadPointer(addr frame.Address) (frame.Address, error) {
	b, err := f.Read(addr, 8)
	if err != nil {
		return 0, err
	}

	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}

	return frame.Address(v), nil
}

func putU64(b []byte, off int, v uint64) {
	for i := 0; i < 8; i++ {
		b[off+i] = byte(v >> (8 * i))
	}
}

func putU32(b []byte, off int, v uint32) {
	for i := 0; i < 4; i++ {
		b[off+i] = byte(v >> (8 * i))
	}
}

type fakeErr string

func (e fakeErr) Error() string { return string(e) }

const errUnmapped = fakeErr("layout_test: address not mapped")
