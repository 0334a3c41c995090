package anchor

import "debug/elf"

// lookupSymbolOffset opens the ELF file at path and returns the
// link-time value (offset from the object's load base) of the first
// matching name, trying the static symbol table and then the dynamic one.
func lookupSymbolOffset(path string, names []string) (uint64, bool) {
	f, err := elf.Open(path)
	if err != nil {
		return 0, false
	}
	defer f.Close()

	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}

	if off, ok := scanSymbols(f, want); ok {
		return off, true
	}

	return 0, false
}

func scanSymbols(f *elf.File, want map[string]bool) (uint64, bool) {
	if syms, err := f.Symbols(); err == nil {
		if off, ok := matchSymbols(syms, want); ok {
			return off, true
		}
	}

	if syms, err := f.DynamicSymbols(); err == nil {
		if off, ok := matchSymbols(syms, want); ok {
			return off, true
		}
	}

	return 0, false
}

func matchSymbols(syms []elf.Symbol, want map[string]bool) (uint64, bool) {
	for _, s := range syms {
		if want[s.Name] {
			return s.Value, true
		}
	}

	return 0, false
}
