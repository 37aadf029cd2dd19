package search

import (
	"cmp"
	"context"
	"slices"

	"github.com/poiesic/careersearch/core"
)

// Search matches suggestions against an optional free-text query, a
// suggestion type and institute facets, all AND-combined. Without Q results
// are ordered institute, program, course and then by name. Total counts all
// matches before pagination.
func (e *Engine) Search(ctx context.Context, q SearchQuery) (*Page[*core.Suggestion], error) {
	ix, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	page, limit := normalizePaging(q.Page, q.Limit)

	values := q.Facets.values()
	delete(values, facetType)
	delete(values, facetAccreditation)
	positions, all := ix.filterInstitutes(values)
	var allowed map[string]struct{}
	if !all {
		allowed = make(map[string]struct{}, len(positions))
		for _, pos := range positions {
			allowed[ix.institutes[pos].inst.PublicID] = struct{}{}
		}
	}

	keep := func(s *core.Suggestion) bool {
		if q.SuggestionType != "" && s.Type != q.SuggestionType {
			return false
		}
		if allowed != nil {
			if _, ok := allowed[s.PublicID]; !ok {
				return false
			}
		}
		return true
	}

	var matched []*core.Suggestion
	if core.NormalizeText(q.Q) != "" {
		for _, h := range ix.match(q.Q) {
			if s := ix.suggestions[h.pos]; keep(s) {
				matched = append(matched, s)
			}
		}
	} else {
		for _, s := range ix.suggestions {
			if keep(s) {
				matched = append(matched, s)
			}
		}
		// Index order is by name, so a stable sort by type keeps names ordered
		slices.SortStableFunc(matched, func(a, b *core.Suggestion) int {
			return cmp.Compare(a.Type.Rank(), b.Type.Rank())
		})
	}

	return paginate(matched, page, limit), nil
}
