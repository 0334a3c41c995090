package remotemem

import "errors"

// Error kinds a caller can discriminate with errors.Is. Wrap one of these
// with fmt.Errorf("...: %w", ...) at call sites that need more context.
var (
	// ErrUnmapped means the address is not covered by any mapping in the
	// target's address space (per the last /proc/<pid>/maps snapshot).
	ErrUnmapped = errors.New("remotemem: address not mapped")

	// ErrPermission means the mapping exists but is not readable, or the
	// underlying syscall was denied (EPERM/EACCES).
	ErrPermission = errors.New("remotemem: permission denied")

	// ErrGone means the target process has exited.
	ErrGone = errors.New("remotemem: target exited")

	// ErrTransient means a single read failed in a way a caller may retry
	// at its own cadence (short read, EIO, a race with the mutator). The
	// reader never retries internally.
	ErrTransient = errors.New("remotemem: transient read failure")

	// ErrZeroLength is returned by Read when asked to read zero bytes; this
	// is a caller logic error, not a target condition.
	ErrZeroLength = errors.New("remotemem: read length must be > 0")

	// ErrLengthTooLarge is returned when a requested length exceeds
	// MaxReadLength, defending against corrupted length fields read out of
	// the target (e.g. a bogus heap-string length).
	ErrLengthTooLarge = errors.New("remotemem: read length exceeds sanity cap")
)
