package layout

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/stackprobe/stackprobe/frame"
	"github.com/stackprobe/stackprobe/remotemem"
)

// ErrStringTooLong is returned by decodeVMString when a heap string's
// decoded length exceeds MaxStringLength - almost always a sign the header
// was read mid-mutation or the anchor/offsets guess is wrong.
var ErrStringTooLong = errors.New("layout: string length exceeds sanity cap")

// MaxStringLength caps decodeVMString's heap-string length, defending
// against a corrupted length field in a header read from a racing target.
const MaxStringLength = 64 << 10

const (
	stringHeaderSize    = 24
	stringFlagsOffset   = 0
	stringHeapFlag      = 1 << 0
	stringEmbedLenOff   = 1
	stringEmbedDataOff  = 2
	stringEmbedCapacity = stringHeaderSize - stringEmbedDataOff
	stringHeapPtrOff    = 8
	stringHeapLenOff    = 16
)

// decodeVMString decodes a VM string against the generic header layout
// shared by every offsetEntry in this package's registry: read the header,
// branch on the embedded/heap flag, validate length, and always return
// valid UTF-8 (substituting replacement characters) rather than failing on
// bad bytes.
func decodeVMString(addr frame.Address, r remotemem.Reader) (string, error) {
	header, err := r.Read(addr, stringHeaderSize)
	if err != nil {
		return "", fmt.Errorf("reading string header at %#x: %w", addr, err)
	}

	if header[stringFlagsOffset]&stringHeapFlag == 0 {
		n := int(header[stringEmbedLenOff])
		if n > stringEmbedCapacity {
			n = stringEmbedCapacity
		}

		data := header[stringEmbedDataOff : stringEmbedDataOff+n]
		if nul := bytes.IndexByte(data, 0); nul >= 0 {
			data = data[:nul]
		}

		return toValidUTF8(data), nil
	}

	ptr := frame.Address(binary.LittleEndian.Uint64(header[stringHeapPtrOff : stringHeapPtrOff+8]))
	length := binary.LittleEndian.Uint64(header[stringHeapLenOff : stringHeapLenOff+8])

	if length > MaxStringLength {
		return "", fmt.Errorf("%w: heap string length %d at %#x exceeds cap %d",
			ErrStringTooLong, length, addr, uint64(MaxStringLength))
	}

	if length == 0 {
		return "", nil
	}

	data, err := r.Read(ptr, int(length))
	if err != nil {
		return "", fmt.Errorf("reading heap string body at %#x: %w", ptr, err)
	}

	return toValidUTF8(data), nil
}

// toValidUTF8 returns s decoded as UTF-8, substituting the replacement
// character for invalid sequences rather than failing.
func toValidUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}

	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}
