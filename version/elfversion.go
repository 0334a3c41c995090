package version

import (
	"debug/elf"
	"regexp"
	"strconv"

	"github.com/stackprobe/stackprobe/frame"
)

// versionStringRe looks for a bare semver triple, the shape the VM embeds as
// a C string literal (its RUBY_VERSION constant) inside .rodata.
var versionStringRe = regexp.MustCompile(`\b(\d+)\.(\d+)\.(\d+)\b`)

// versionStringMatch is the second identification strategy: open the ELF
// file backing a loaded object and search its read-only data section for a
// version string, the same debug/elf usage anchor.lookupSymbolOffset makes
// for symbol lookups.
func versionStringMatch(path string) (frame.VMVersion, bool) {
	f, err := elf.Open(path)
	if err != nil {
		return frame.VMVersion{}, false
	}
	defer f.Close()

	sect := f.Section(".rodata")
	if sect == nil {
		return frame.VMVersion{}, false
	}

	data, err := sect.Data()
	if err != nil {
		return frame.VMVersion{}, false
	}

	m := versionStringRe.FindSubmatch(data)
	if m == nil {
		return frame.VMVersion{}, false
	}

	major, err1 := strconv.Atoi(string(m[1]))
	minor, err2 := strconv.Atoi(string(m[2]))
	patch, err3 := strconv.Atoi(string(m[3]))

	if err1 != nil || err2 != nil || err3 != nil {
		return frame.VMVersion{}, false
	}

	return frame.VMVersion{Major: major, Minor: minor, Patch: patch}, true
}
