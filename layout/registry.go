package layout

import "github.com/stackprobe/stackprobe/frame"

// registry is a static VMVersion -> Entry lookup: new entries never require
// changes to the stack walker. Adding a release is exactly one call to
// register below.
var registry = map[frame.VMVersion]Entry{}

// statuses shared across every era in this registry: the two run states
// the walker distinguishes. There's no canonical on-disk encoding for
// Runnable/Waiting beyond whatever the VM itself uses, so this registry
// picks one fixed pair of sentinel values per era so offsetEntry.ThreadStatus
// stays a pure table lookup.
const (
	statusRunnableV1 uint32 = 0
	statusWaitingV1  uint32 = 1

	statusRunnableV2 uint32 = 1
	statusWaitingV2  uint32 = 2
)

func register(major, minor, fromPatch, toPatch int, o offsets) {
	entry := newOffsetEntry(o)

	for p := fromPatch; p <= toPatch; p++ {
		registry[frame.VMVersion{Major: major, Minor: minor, Patch: p}] = entry
	}
}

func init() {
	// Era 1: 1.9.x - thread records hang directly off a global, no separate
	// execution-context indirection.
	era1 := offsets{
		RootThreadListHead: 0,
		ThreadNext:         8,
		ThreadStatus:       16,
		ThreadCurFrame:     24,
		FrameCaller:        0,
		FrameISeq:          8,
		FramePC:            16,
		ISeqLabelPtr:       0,
		ISeqPathPtr:        8,
		ISeqLineTab:        16,
		ISeqLineLen:        24,
		ISeqBasePC:         28,
		StatusRunnable:     statusRunnableV1,
		StatusWaiting:      statusWaitingV1,
	}
	register(1, 9, 3, 3, era1)
	register(2, 0, 0, 0, era1)

	// Era 2: 2.1 - 2.4. The VM introduced a dedicated execution-context
	// struct reached through the thread; field order shifts but the shape
	// stays the same.
	era2 := offsets{
		RootThreadListHead: 0,
		ThreadNext:         8,
		ThreadStatus:       24,
		ThreadCurFrame:     32,
		FrameCaller:        0,
		FrameISeq:          8,
		FramePC:            24,
		ISeqLabelPtr:       0,
		ISeqPathPtr:        8,
		ISeqLineTab:        24,
		ISeqLineLen:        32,
		ISeqBasePC:         36,
		StatusRunnable:     statusRunnableV1,
		StatusWaiting:      statusWaitingV1,
	}
	register(2, 1, 0, 10, era2)
	register(2, 2, 0, 10, era2)
	register(2, 3, 0, 8, era2)
	register(2, 4, 0, 10, era2)

	// Era 3: 2.5 - 2.7. Status encoding switches to the 1/2 pair used by
	// the execution-context-pointer releases onward.
	era3 := offsets{
		RootThreadListHead: 0,
		ThreadNext:         8,
		ThreadStatus:       24,
		ThreadCurFrame:     32,
		FrameCaller:        0,
		FrameISeq:          8,
		FramePC:            24,
		ISeqLabelPtr:       0,
		ISeqPathPtr:        8,
		ISeqLineTab:        24,
		ISeqLineLen:        32,
		ISeqBasePC:         36,
		StatusRunnable:     statusRunnableV2,
		StatusWaiting:      statusWaitingV2,
	}
	register(2, 5, 0, 9, era3)
	register(2, 6, 0, 10, era3)
	register(2, 7, 0, 8, era3)

	// Era 4: 3.0 - 3.4.x. root now points straight at the current execution
	// context (ruby_current_execution_context_ptr), collapsing the
	// thread-list indirection the anchor symbol name implies for older
	// eras; the walker and anchor don't care, they just follow offsets.
	era4 := offsets{
		RootThreadListHead: 0,
		ThreadNext:         16,
		ThreadStatus:       32,
		ThreadCurFrame:     40,
		FrameCaller:        0,
		FrameISeq:          8,
		FramePC:            32,
		ISeqLabelPtr:       0,
		ISeqPathPtr:        8,
		ISeqLineTab:        32,
		ISeqLineLen:        40,
		ISeqBasePC:         44,
		StatusRunnable:     statusRunnableV2,
		StatusWaiting:      statusWaitingV2,
	}
	register(3, 0, 0, 7, era4)
	register(3, 1, 0, 6, era4)
	register(3, 2, 0, 7, era4)
	register(3, 3, 0, 7, era4)
	register(3, 4, 0, 9, era4)
}

// For returns the registered Entry for v, and whether one exists.
func For(v frame.VMVersion) (Entry, bool) {
	e, ok := registry[v]

	return e, ok
}

// Supported lists every VMVersion this build's registry knows about, sorted
// is not guaranteed - callers that need a stable order should sort the
// result themselves.
func Supported() []frame.VMVersion {
	out := make([]frame.VMVersion, 0, len(registry))
	for v := range registry {
		out = append(out, v)
	}

	return out
}
