// Package rating selects the rating value(s) written into each record
// block: resistor prefix overrides, capacitor voltage extraction from the
// detail text, connector current-only checks, multi-slot sheets, and the
// generic per-category field order — with missing-field suggestions for
// the issue report.
package rating

import (
	"regexp"
	"sort"
	"strings"

	"github.com/locvowork/bom_derating/internal/domain"
	"github.com/locvowork/bom_derating/internal/lookup"
	"github.com/locvowork/bom_derating/internal/rules"
)

// Sentinel missing-field markers used in the issue report for sheets whose
// requirement is not a single canonical field.
const (
	missingCapVoltage = "(CAP_VOLTAGE)"
	missingAnyField   = "(NO_MATCHED_FIELD)"
	missingConnector  = "I_RATED/I_MAX"
)

var voltagePattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*V\b`)

// Resolution is the outcome of resolving one item's rating slots.
// Values[i] belongs to row offset i of the record block; an empty string
// means the slot is cleared. Issue is nil when every slot was filled.
type Resolution struct {
	Values []string
	Issue  *domain.MissingRating
}

// Resolver applies the per-sheet value selection policy against one
// loaded lookup table.
type Resolver struct {
	tbl *lookup.Table
	cfg *rules.Rules
}

func NewResolver(tbl *lookup.Table, cfg *rules.Rules) *Resolver {
	return &Resolver{tbl: tbl, cfg: cfg}
}

// Resolve picks the rating value(s) for one classified item on its target
// sheet. step bounds how many slot rows a multi-slot sheet may fill.
func (r *Resolver) Resolve(item domain.ClassifiedItem, step int) Resolution {
	ratings := r.tbl.RatingsFor(item.Category, item.Part)

	switch {
	case item.Sheet == "Capacitor":
		return r.resolveCapacitor(item, ratings)
	case item.Sheet == "Connector":
		return r.resolveConnector(item, ratings)
	case item.Sheet == "Resistor":
		return r.resolveResistor(item, ratings)
	default:
		if slots, ok := r.cfg.RatingSlots[item.Sheet]; ok {
			return r.resolveSlots(item, ratings, slots, step)
		}
		return r.resolveGeneric(item, ratings)
	}
}

// ExtractVoltage pulls the rated voltage out of free-text detail specs
// like "X5R 16V 10%". The last voltage token wins; no token yields "".
func ExtractVoltage(detail string) string {
	matches := voltagePattern.FindAllStringSubmatch(detail, -1)
	if len(matches) == 0 {
		return ""
	}
	return matches[len(matches)-1][1] + "V"
}

func (r *Resolver) resolveCapacitor(item domain.ClassifiedItem, ratings map[string]string) Resolution {
	if v := ExtractVoltage(item.Detail); v != "" {
		return Resolution{Values: []string{v}}
	}
	if v := firstByOrder(ratings, r.cfg.FieldOrder["CAPACITOR"]); v != "" {
		return Resolution{Values: []string{v}}
	}
	// No suggestions: the capacitor policy wants a voltage, not a field swap.
	return Resolution{
		Values: []string{""},
		Issue:  r.newIssue(item, ratings, []string{missingCapVoltage}, nil),
	}
}

func (r *Resolver) resolveConnector(item domain.ClassifiedItem, ratings map[string]string) Resolution {
	v := firstByOrder(ratings, r.cfg.FieldOrder["CONNECTOR"])
	if v != "" {
		return Resolution{Values: []string{v}}
	}
	// Voltage fields are never checked or reported for connectors.
	return Resolution{
		Values: []string{""},
		Issue:  r.newIssue(item, ratings, []string{missingConnector}, nil),
	}
}

func (r *Resolver) resolveResistor(item domain.ClassifiedItem, ratings map[string]string) Resolution {
	if v := r.prefixOverride(item.Part); v != "" {
		return Resolution{Values: []string{v}}
	}
	if v := firstByOrder(ratings, r.cfg.FieldOrder[item.Category]); v != "" {
		return Resolution{Values: []string{v}}
	}
	return Resolution{
		Values: []string{""},
		Issue:  r.newIssue(item, ratings, []string{missingAnyField}, r.targetSuggestions(ratings)),
	}
}

// prefixOverride resolves the resistor prefix rule table: the prefix is the
// first ResistorPrefixLen characters of the part name, candidates from the
// preferred vendor beat all others regardless of priority, and the rest
// order by (priority, formatted value).
func (r *Resolver) prefixOverride(part string) string {
	if len(r.tbl.ResistorPrefix) == 0 {
		return ""
	}
	s := strings.ToUpper(lookup.NormalizeText(part))
	if s == "" {
		return ""
	}
	if len(s) > r.cfg.ResistorPrefixLen {
		s = s[:r.cfg.ResistorPrefixLen]
	}
	candidates := r.tbl.ResistorPrefix[s]
	if len(candidates) == 0 {
		return ""
	}

	pool := make([]domain.PrefixRule, 0, len(candidates))
	for _, c := range candidates {
		if c.Vendor == r.cfg.PreferredVendor {
			pool = append(pool, c)
		}
	}
	if len(pool) == 0 {
		pool = append(pool, candidates...)
	}
	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].Priority != pool[j].Priority {
			return pool[i].Priority < pool[j].Priority
		}
		return pool[i].ValueUnit < pool[j].ValueUnit
	})
	return pool[0].ValueUnit
}

func (r *Resolver) resolveSlots(item domain.ClassifiedItem, ratings map[string]string, slots []string, step int) Resolution {
	n := len(slots)
	if step < n {
		n = step
	}
	// Slots beyond the configured count but inside the block stay cleared.
	values := make([]string, step)
	var missing []string
	suggestions := make(map[string][]string)

	for i := 0; i < n; i++ {
		field := slots[i]
		values[i] = ratings[field]
		if values[i] == "" {
			missing = append(missing, field)
			if alts := r.cfg.Suggest(field, availableSet(ratings)); len(alts) > 0 {
				suggestions[field] = alts
			}
		}
	}
	if len(missing) == 0 {
		return Resolution{Values: values}
	}
	return Resolution{
		Values: values,
		Issue:  r.newIssue(item, ratings, missing, suggestions),
	}
}

func (r *Resolver) resolveGeneric(item domain.ClassifiedItem, ratings map[string]string) Resolution {
	if v := firstByOrder(ratings, r.cfg.FieldOrder[item.Category]); v != "" {
		return Resolution{Values: []string{v}}
	}
	return Resolution{
		Values: []string{""},
		Issue:  r.newIssue(item, ratings, []string{missingAnyField}, r.targetSuggestions(ratings)),
	}
}

// targetSuggestions probes the configured suggestion targets when no field
// matched at all, offering whatever alternates the part does have.
func (r *Resolver) targetSuggestions(ratings map[string]string) map[string][]string {
	if len(ratings) == 0 {
		return nil
	}
	available := availableSet(ratings)
	suggestions := make(map[string][]string)
	for _, target := range r.cfg.SuggestionTargets {
		if alts := r.cfg.Suggest(target, available); len(alts) > 0 {
			suggestions[target] = alts
		}
	}
	return suggestions
}

func (r *Resolver) newIssue(item domain.ClassifiedItem, ratings map[string]string, missing []string, suggestions map[string][]string) *domain.MissingRating {
	key := domain.PartKey{Category: item.Category, Part: item.Part}
	return &domain.MissingRating{
		Sheet:              item.Sheet,
		Ref:                item.Ref,
		Part:               item.Part,
		Category:           item.Category,
		Subcategory:        item.Subcategory,
		BOMRow:             item.BOMRow,
		MissingFields:      missing,
		LookupHasAny:       len(ratings) > 0,
		AvailableFields:    sortedKeys(ratings),
		AvailableRawFields: sortedSet(r.tbl.RawFields[key]),
		Suggestions:        suggestions,
	}
}

func firstByOrder(ratings map[string]string, order []string) string {
	for _, field := range order {
		if v := ratings[field]; v != "" {
			return v
		}
	}
	return ""
}

func availableSet(ratings map[string]string) map[string]bool {
	set := make(map[string]bool, len(ratings))
	for field := range ratings {
		set[field] = true
	}
	return set
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedSet(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
