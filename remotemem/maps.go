package remotemem

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/stackprobe/stackprobe/frame"
)

// Mapping is one line of /proc/<pid>/maps.
type Mapping struct {
	Start, End frame.Address
	Perm       string // e.g. "r-xp"
	Path       string // may be empty (anonymous mapping)
}

// Readable reports whether the mapping's permission bits allow reading.
func (m Mapping) Readable() bool {
	return len(m.Perm) > 0 && m.Perm[0] == 'r'
}

// Writable reports whether the mapping's permission bits allow writing.
// This reader never writes, but the anchor locator's data-segment scan
// needs this to find candidate segments.
func (m Mapping) Writable() bool {
	return len(m.Perm) > 1 && m.Perm[1] == 'w'
}

// Contains reports whether addr falls within [Start, End).
func (m Mapping) Contains(addr frame.Address) bool {
	return addr >= m.Start && addr < m.End
}

// readMaps parses /proc/<pid>/maps the way
// ja7ad-consumption/pkg/system/proc parses other /proc files: a bufio.Scanner
// over whitespace-delimited fields, tolerant of the trailing pathname being
// absent.
func readMaps(pid int) ([]Mapping, error) {
	f, err := os.Open(fmt.Sprintf("/proc/%d/maps", pid))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("reading maps for pid %d: %w", pid, ErrGone)
		}

		if os.IsPermission(err) {
			return nil, fmt.Errorf("reading maps for pid %d: %w", pid, ErrPermission)
		}

		return nil, err
	}
	defer f.Close()

	var out []Mapping

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		lohi := strings.SplitN(fields[0], "-", 2)
		if len(lohi) != 2 {
			continue
		}

		lo, err := strconv.ParseUint(lohi[0], 16, 64)
		if err != nil {
			continue
		}

		hi, err := strconv.ParseUint(lohi[1], 16, 64)
		if err != nil {
			continue
		}

		m := Mapping{
			Start: frame.Address(lo),
			End:   frame.Address(hi),
			Perm:  fields[1],
		}

		if len(fields) >= 6 {
			m.Path = fields[5]
		}

		out = append(out, m)
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning maps for pid %d: %w", pid, err)
	}

	return out, nil
}

// LoadedObject describes one mapped file backing the target, as seen by
// Target / version / anchor.
type LoadedObject struct {
	Path       string
	Base       frame.Address
	HasRuntime bool // not set by LoadedObjects, version or anchor; always false as built here
}

// LoadedObjects collapses the maps snapshot down to one entry per distinct
// backing file, recording the lowest mapped address as its base.
func LoadedObjects(mappings []Mapping) []LoadedObject {
	seen := map[string]int{}

	var objs []LoadedObject

	for _, m := range mappings {
		if m.Path == "" || strings.HasPrefix(m.Path, "[") {
			continue
		}

		if idx, ok := seen[m.Path]; ok {
			if m.Start < objs[idx].Base {
				objs[idx].Base = m.Start
			}

			continue
		}

		seen[m.Path] = len(objs)
		objs = append(objs, LoadedObject{Path: m.Path, Base: m.Start})
	}

	return objs
}
