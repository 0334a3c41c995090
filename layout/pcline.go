package layout

import "sort"

// pcLineEntry is one row of an iseq's sorted PC-offset→line table.
type pcLineEntry struct {
	StartOffset uint32
	Line        uint32
}

// lineForPC finds the largest entry whose start <= pcOffset via binary
// search. table must be sorted ascending by StartOffset. If pcOffset falls
// before every entry, 0 (unknown) is returned rather than erring.
func lineForPC(table []pcLineEntry, pcOffset uint32) uint32 {
	// sort.Search finds the first index for which the predicate is true;
	// we want the last index whose StartOffset <= pcOffset, so search for
	// the first index whose StartOffset > pcOffset and step back one.
	i := sort.Search(len(table), func(i int) bool {
		return table[i].StartOffset > pcOffset
	})

	if i == 0 {
		return 0
	}

	return table[i-1].Line
}
