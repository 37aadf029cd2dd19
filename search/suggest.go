package search

import (
	"context"

	"github.com/poiesic/careersearch/core"
)

// SuggestResult is the autocomplete answer for one query.
// Counts covers every match, not only the returned ones.
type SuggestResult struct {
	Suggestions []*core.Suggestion          `json:"suggestions" msgpack:"suggestions"`
	Counts      map[core.SuggestionType]int `json:"counts" msgpack:"counts"`
	Locations   []Location                  `json:"locations" msgpack:"locations"`
}

func emptySuggestResult() *SuggestResult {
	return &SuggestResult{
		Suggestions: []*core.Suggestion{},
		Counts:      map[core.SuggestionType]int{},
		Locations:   []Location{},
	}
}

// Suggest returns up to limit suggestions ranked by match tier then name.
// A blank query returns an empty result. Returned values are shared with the
// cache and must not be modified.
func (e *Engine) Suggest(ctx context.Context, query string, limit int) (*SuggestResult, error) {
	ix, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if core.NormalizeText(query) == "" {
		return emptySuggestResult(), nil
	}
	if limit < 1 {
		limit = DefaultSuggestLimit
	}
	limit = min(limit, MaxSuggestLimit)

	if res, ok := e.cache.get(ctx, ix.generation, query, limit); ok {
		return res, nil
	}

	res := emptySuggestResult()
	for _, h := range ix.match(query) {
		s := ix.suggestions[h.pos]
		res.Counts[s.Type]++
		if len(res.Suggestions) < limit {
			res.Suggestions = append(res.Suggestions, s)
		}
	}
	res.Locations = ix.matchLocations(query, limit)

	e.cache.set(ctx, ix.generation, query, limit, res)
	return res, nil
}
