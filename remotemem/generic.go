package remotemem

import (
	"fmt"
	"unsafe"

	"github.com/stackprobe/stackprobe/frame"
)

// ReadStruct reads sizeof(T) bytes at addr and reinterprets them as T. T
// must be a fixed-size, pointer-free struct (the mirror of
// machine/state.go's copyStruct, adapted to read from a foreign process
// instead of a migration-state byte slice). Use this only for plain
// fixed-layout records; LayoutEntry capability functions operate on raw
// []byte instead, since VM struct layouts vary per release and are not
// expressible as a single Go type.
func ReadStruct[T any](r Reader, addr frame.Address) (T, error) {
	var v T

	size := int(unsafe.Sizeof(v))

	buf, err := r.Read(addr, size)
	if err != nil {
		return v, fmt.Errorf("reading struct at %#x: %w", addr, err)
	}

	copy(unsafe.Slice((*byte)(unsafe.Pointer(&v)), size), buf)

	return v, nil
}
