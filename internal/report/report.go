// Package report renders the issue report: routing hits, duplicate
// references and missing ratings, as one deterministic plain-text document
// for human review.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/locvowork/bom_derating/internal/domain"
	"github.com/locvowork/bom_derating/pkg/refdes"
)

// Build renders the report. Routing hits and duplicate references are
// ordered by the reference-designator sort key; missing ratings keep the
// order they were encountered in during block filling.
func Build(
	reportName string,
	createdAt time.Time,
	hits []domain.ClassifiedItem,
	duplicates map[string][]domain.RefOccurrence,
	missing []domain.MissingRating,
) string {
	var b strings.Builder

	fmt.Fprintf(&b, "=== BOM Parsing Issues Report ===\n")
	fmt.Fprintf(&b, "- Created: %s\n", createdAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "- Report file: %s\n", reportName)
	b.WriteString("\n")

	writeRoutingHits(&b, hits)
	b.WriteString("\n")
	writeDuplicates(&b, duplicates)
	b.WriteString("\n")
	writeMissing(&b, missing)

	return b.String()
}

func writeRoutingHits(b *strings.Builder, hits []domain.ClassifiedItem) {
	b.WriteString("[0] Routing Hits (items routed away from their base sheet)\n")
	if len(hits) == 0 {
		b.WriteString("  - None\n")
		return
	}
	sorted := make([]domain.ClassifiedItem, len(hits))
	copy(sorted, hits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return refdes.Compare(sorted[i].Ref, sorted[j].Ref) < 0
	})
	for _, it := range sorted {
		fmt.Fprintf(b, "  - Ref=%s, Part=%s, Category=%s, Subcategory=%s\n",
			it.Ref, it.Part, it.Category, orBlank(it.Subcategory))
		fmt.Fprintf(b, "      BOM_row=%d, BaseSheet=%s -> TargetSheet=%s\n",
			it.BOMRow, it.BaseSheet, it.Sheet)
	}
}

func writeDuplicates(b *strings.Builder, duplicates map[string][]domain.RefOccurrence) {
	b.WriteString("[1] Duplicate References\n")
	if len(duplicates) == 0 {
		b.WriteString("  - None\n")
		return
	}
	refs := make([]string, 0, len(duplicates))
	for ref := range duplicates {
		refs = append(refs, ref)
	}
	sort.SliceStable(refs, func(i, j int) bool {
		return refdes.Compare(refs[i], refs[j]) < 0
	})
	for _, ref := range refs {
		occs := duplicates[ref]
		fmt.Fprintf(b, "  - %s (count=%d)\n", ref, len(occs))
		for _, o := range occs {
			fmt.Fprintf(b, "      * BOM_row=%d, Category=%s, Subcategory=%s, Part=%s, TargetSheet=%s\n",
				o.BOMRow, o.Category, orBlank(o.Subcategory), o.Part, o.Sheet)
		}
	}
}

func writeMissing(b *strings.Builder, missing []domain.MissingRating) {
	b.WriteString("[2] Missing Ratings + Suggestions\n")
	if len(missing) == 0 {
		b.WriteString("  - None\n")
		return
	}
	for _, it := range missing {
		fields := "(unknown)"
		if len(it.MissingFields) > 0 {
			fields = strings.Join(it.MissingFields, ", ")
		}
		fmt.Fprintf(b, "  - Sheet=%s, Ref=%s, Part=%s, Category=%s, Subcategory=%s, BOM_row=%d\n",
			it.Sheet, it.Ref, it.Part, it.Category, orBlank(it.Subcategory), it.BOMRow)
		fmt.Fprintf(b, "      MissingFields: %s\n", fields)
		fmt.Fprintf(b, "      LookupHasAnyRatingForPart: %t\n", it.LookupHasAny)
		if it.LookupHasAny {
			fmt.Fprintf(b, "      AvailableCanonicalFields: %s\n", orNone(it.AvailableFields))
			if len(it.AvailableRawFields) > 0 {
				fmt.Fprintf(b, "      AvailableRawFields: %s\n", strings.Join(it.AvailableRawFields, ", "))
			}
			for _, mf := range it.MissingFields {
				if alts := it.Suggestions[mf]; len(alts) > 0 {
					fmt.Fprintf(b, "      SuggestFor[%s]: use %s (if acceptable)\n", mf, strings.Join(alts, ", "))
				}
			}
		}
		b.WriteString("\n")
	}
}

func orBlank(s string) string {
	if s == "" {
		return "(blank)"
	}
	return s
}

func orNone(fields []string) string {
	if len(fields) == 0 {
		return "(none)"
	}
	return strings.Join(fields, ", ")
}
