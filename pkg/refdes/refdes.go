// Package refdes provides the canonical ordering for reference designators
// such as "R1", "C10" or "U3A". Designators sort by letter prefix, then by
// numeric body, then by the remaining suffix, so "R2" comes before "R10".
package refdes

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var refPattern = regexp.MustCompile(`^([A-Z]+)\s*0*([0-9]+)(.*)$`)

// unparsableNum pushes designators without a numeric body behind every
// parsable designator sharing the comparison path.
const unparsableNum = int64(1e12)

// Key is the decomposed sort key of one reference designator.
type Key struct {
	Prefix string
	Num    int64
	Suffix string
}

// KeyOf splits a designator into its sort key. Comparison is
// case-insensitive; leading zeros in the numeric body are ignored.
// Strings that do not match the prefix+number shape sort after all
// parsable ones, lexically by their uppercased form.
func KeyOf(ref string) Key {
	s := strings.ToUpper(strings.TrimSpace(ref))
	m := refPattern.FindStringSubmatch(s)
	if m == nil {
		return Key{Prefix: s, Num: unparsableNum}
	}
	n, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		// Numeric body too large for int64; fall back to lexical ordering.
		return Key{Prefix: s, Num: unparsableNum}
	}
	return Key{Prefix: m[1], Num: n, Suffix: strings.TrimSpace(m[3])}
}

// Less reports whether key a orders before key b.
func Less(a, b Key) bool {
	if a.Prefix != b.Prefix {
		return a.Prefix < b.Prefix
	}
	if a.Num != b.Num {
		return a.Num < b.Num
	}
	return a.Suffix < b.Suffix
}

// Compare returns -1, 0 or 1 ordering a relative to b.
func Compare(a, b string) int {
	ka, kb := KeyOf(a), KeyOf(b)
	switch {
	case Less(ka, kb):
		return -1
	case Less(kb, ka):
		return 1
	default:
		return 0
	}
}

// SortStrings sorts designators in place using the canonical ordering.
// The sort is stable so equal designators keep their input order.
func SortStrings(refs []string) {
	sort.SliceStable(refs, func(i, j int) bool {
		return Less(KeyOf(refs[i]), KeyOf(refs[j]))
	})
}
