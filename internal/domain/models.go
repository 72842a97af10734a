package domain

// ==================== LOOKUP DATA ====================

// PartKey identifies one part within one normalized BOM category.
type PartKey struct {
	Category string
	Part     string
}

// RouteKey identifies one routing rule. Subcategory is "" for the
// category-level default rule.
type RouteKey struct {
	Category    string
	Subcategory string
}

// RatingRecord is one raw (field, value, unit, priority) tuple read from the
// lookup rating table, after field-name normalization.
type RatingRecord struct {
	Field    string
	Value    string
	Unit     string
	Priority int
}

// PrefixRule is one resistor part-name-prefix override candidate.
type PrefixRule struct {
	Vendor    string
	Priority  int
	ValueUnit string
}

// ==================== CLASSIFICATION ====================

// ClassifiedItem is one reference designator produced by exploding a BOM
// row's reference list. Immutable after classification.
type ClassifiedItem struct {
	BOMRow      int
	Category    string
	Subcategory string
	Ref         string
	Part        string
	Detail      string
	Sheet       string
	BaseSheet   string
}

// RefOccurrence records one appearance of a reference designator, kept for
// duplicate-reference reporting.
type RefOccurrence struct {
	BOMRow      int
	Category    string
	Subcategory string
	Part        string
	Sheet       string
}

// UnclassifiedRow is a BOM row that could not be routed to a managed sheet.
// Values carries the row verbatim for the catch-all sheet.
type UnclassifiedRow struct {
	BOMRow int
	Values []string
}

// ==================== ISSUES ====================

// MissingRating is one missing-rating issue: a required slot that no lookup
// value could fill, with the fields that were available and the configured
// alternates worth suggesting.
type MissingRating struct {
	Sheet              string
	Ref                string
	Part               string
	Category           string
	Subcategory        string
	BOMRow             int
	MissingFields      []string
	LookupHasAny       bool
	AvailableFields    []string
	AvailableRawFields []string
	Suggestions        map[string][]string
}

// ==================== RUN RESULT ====================

// RunResult summarizes one completed parser run.
type RunResult struct {
	WorkbookPath  string
	ReportPath    string
	WrittenCounts map[string]int
	Unclassified  int
	DuplicateRefs int
	MissingCount  int
}
