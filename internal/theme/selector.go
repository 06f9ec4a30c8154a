package theme

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/samber/lo"
)

// ErrValidation is returned when selection input is unusable. It is raised
// before any subprocess is started.
var ErrValidation = errors.New("invalid selection")

// SortByRecency returns a copy of records ordered newest first. The sort is
// stable, so records with equal keys keep their input order.
func SortByRecency(records []Record) []Record {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return RecencyKey(sorted[i]).After(RecencyKey(sorted[j]))
	})
	return sorted
}

// isLive reports whether r is the live theme, either by its role or by
// matching the separately discovered live id.
func isLive(r Record, liveID string) bool {
	if r.IsLive() {
		return true
	}
	return liveID != "" && r.NormalizedID() == liveID
}

// SelectByRecency orders catalog newest first, drops the live theme unless
// includeLive is set and keeps at most count records. A nil count keeps every
// eligible record.
func SelectByRecency(catalog []Record, count *int, includeLive bool, liveID string) ([]Record, error) {
	if count != nil && *count <= 0 {
		return nil, fmt.Errorf("%w: count must be positive, got %d", ErrValidation, *count)
	}

	eligible := lo.Filter(SortByRecency(catalog), func(r Record, _ int) bool {
		return includeLive || !isLive(r, liveID)
	})
	if count != nil && len(eligible) > *count {
		eligible = eligible[:*count]
	}
	return eligible, nil
}

// NameSelection is the outcome of SelectByNames.
type NameSelection struct {
	// Themes holds the matched records, each at most once, in token order.
	Themes []Record `json:"themes"`
	// Unmatched lists name tokens that matched nothing.
	Unmatched []string `json:"unmatched,omitempty"`
	// IDOnly lists numeric tokens that matched nothing in the catalog. They
	// may still be pulled directly by id.
	IDOnly []string `json:"id_only,omitempty"`
	// LiveRequested is set when a token referred to the live theme while the
	// live theme was excluded.
	LiveRequested bool `json:"live_requested"`
}

// SelectByNames matches each token against the catalog. A token matches a
// record when it equals the display name ignoring case, or, for numeric
// tokens, when it equals the normalized id.
func SelectByNames(catalog []Record, tokens []string, includeLive bool, liveID string) (NameSelection, error) {
	var sel NameSelection

	cleaned := lo.Filter(lo.Map(tokens, func(t string, _ int) string {
		return strings.TrimSpace(t)
	}), func(t string, _ int) bool { return t != "" })
	if len(cleaned) == 0 {
		return sel, fmt.Errorf("%w: at least one theme name or id is required", ErrValidation)
	}

	picked := make(map[int]bool)
	for _, tok := range cleaned {
		digits, numeric := IsNumericToken(tok)

		if numeric && !includeLive && liveID != "" && digits == liveID {
			sel.LiveRequested = true
			continue
		}

		matched := false
		for i, r := range catalog {
			byName := strings.EqualFold(r.DisplayName(), tok)
			byID := numeric && r.NormalizedID() == digits
			if !byName && !byID {
				continue
			}
			matched = true
			if !includeLive && isLive(r, liveID) {
				sel.LiveRequested = true
				continue
			}
			if !picked[i] {
				picked[i] = true
				sel.Themes = append(sel.Themes, r)
			}
		}

		if matched {
			continue
		}
		if numeric {
			sel.IDOnly = append(sel.IDOnly, digits)
		} else {
			sel.Unmatched = append(sel.Unmatched, tok)
		}
	}

	sel.IDOnly = lo.Uniq(sel.IDOnly)
	return sel, nil
}

// Suggest returns display names from catalog that are close to token, for
// "did you mean" hints on unmatched names.
func Suggest(token string, catalog []Record, maxDistance int) []string {
	needle := strings.ToLower(strings.TrimSpace(token))
	if needle == "" {
		return nil
	}
	var out []string
	for _, r := range catalog {
		name := r.DisplayName()
		hay := strings.ToLower(name)
		if hay == "" {
			continue
		}
		if strings.Contains(hay, needle) || levenshtein.ComputeDistance(needle, hay) <= maxDistance {
			out = append(out, name)
		}
	}
	return lo.Uniq(out)
}
