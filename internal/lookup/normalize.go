package lookup

import (
	"regexp"
	"strings"

	"github.com/locvowork/bom_derating/internal/rules"
)

var (
	wsPattern       = regexp.MustCompile(`\s+`)
	nonFieldPattern = regexp.MustCompile(`[^A-Z0-9_]+`)
	underscoreRuns  = regexp.MustCompile(`_+`)
)

// NormalizeText trims a raw cell value and removes the invisible whitespace
// Excel exports tend to smuggle in (NBSP, zero-width space, BOM).
func NormalizeText(v string) string {
	s := strings.NewReplacer("\u00a0", " ", "\u200b", "", "\ufeff", "").Replace(v)
	return strings.TrimSpace(s)
}

// NormalizeCategory uppercases a category and strips all whitespace.
func NormalizeCategory(v string) string {
	return wsPattern.ReplaceAllString(strings.ToUpper(NormalizeText(v)), "")
}

// NormalizePart trims a part name without changing its case.
func NormalizePart(v string) string {
	return NormalizeText(v)
}

// NormalizeSubcategory trims a subcategory; the usual "no subcategory"
// placeholders collapse to the empty string.
func NormalizeSubcategory(v string) string {
	s := NormalizeText(v)
	switch strings.ToUpper(s) {
	case "", "(BLANK)", "BLANK", "NONE", "N/A":
		return ""
	}
	return s
}

// NormalizeField maps a raw rating-field spelling to its canonical name:
// uppercase, non-alphanumeric runs collapsed to a single underscore,
// leading/trailing underscores stripped, then a synonym lookup keyed by the
// underscore-free form. Unknown fields pass through in normalized form, so
// the mapping is total and idempotent.
func NormalizeField(raw string) string {
	s := strings.ToUpper(NormalizeText(raw))
	if s == "" {
		return ""
	}
	s = nonFieldPattern.ReplaceAllString(s, "_")
	s = strings.Trim(underscoreRuns.ReplaceAllString(s, "_"), "_")

	key := strings.ReplaceAll(s, "_", "")
	if canonical, ok := rules.Default().Synonyms[key]; ok {
		return canonical
	}
	return s
}

// FormatValueUnit renders a rating as value immediately followed by unit
// ("250" + "V" -> "250V"). An empty value yields an empty rating regardless
// of unit.
func FormatValueUnit(value, unit string) string {
	v := NormalizeText(value)
	if v == "" {
		return ""
	}
	return v + NormalizeText(unit)
}

// SplitRefs splits a reference-designator list on commas, trimming each
// token. Duplicates are preserved: detecting them is the report's job.
func SplitRefs(list string) []string {
	s := NormalizeText(list)
	if s == "" {
		return nil
	}
	var refs []string
	for _, tok := range strings.Split(s, ",") {
		if t := strings.TrimSpace(tok); t != "" {
			refs = append(refs, t)
		}
	}
	return refs
}
