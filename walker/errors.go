package walker

import "errors"

// ErrCorruptedThreadList is returned when the thread list visited more than
// MaxThreads records without terminating - a defensive cap against a cyclic
// or unbounded list caused by a torn read.
var ErrCorruptedThreadList = errors.New("walker: thread list exceeds MaxThreads, assuming corruption")

// ErrCorruptedFrame is returned when layout interpretation produced a value
// that cannot belong to a well-formed frame or iseq record: a caller/iseq
// pointer landing outside any mapping, or a decoded length past an
// implementation sanity cap. Distinct from a plain remotemem/layout error so
// a caller can tell "this frame chain is corrupt" apart from a generic
// transient read failure.
var ErrCorruptedFrame = errors.New("walker: corrupted frame or iseq record")
