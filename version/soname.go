package version

import (
	"regexp"
	"strconv"

	"github.com/stackprobe/stackprobe/frame"
)

// sonameRe matches the VM's own release tooling path shapes: a versioned
// shared object ("libruby.so.3.2", with ".so." separating the name from the
// version), a dashed interpreter binary path segment ("ruby-3.2.0"), or a
// bare version suffix ("ruby3.2"). \D* skips whatever non-digit separator
// sits between "ruby" and the first version digit instead of requiring
// immediate adjacency.
var sonameRe = regexp.MustCompile(`ruby\D*(\d+)\.(\d+)(?:\.(\d+))?`)

// sonameMatch is the first identification strategy: a substring match
// against the loaded object's path, with no process interaction at all.
func sonameMatch(path string) (frame.VMVersion, bool) {
	m := sonameRe.FindStringSubmatch(path)
	if m == nil {
		return frame.VMVersion{}, false
	}

	major, err := strconv.Atoi(m[1])
	if err != nil {
		return frame.VMVersion{}, false
	}

	minor, err := strconv.Atoi(m[2])
	if err != nil {
		return frame.VMVersion{}, false
	}

	patch := 0
	if m[3] != "" {
		patch, _ = strconv.Atoi(m[3])
	}

	return frame.VMVersion{Major: major, Minor: minor, Patch: patch}, true
}
