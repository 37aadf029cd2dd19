package search

import (
	"time"

	"github.com/poiesic/careersearch/core"
)

// CacheStats counts suggest cache lookups.
type CacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// Stats is a read-only summary of the loaded index.
type Stats struct {
	State             State                       `json:"state"`
	Generation        string                      `json:"generation,omitempty"`
	Institutes        int                         `json:"institutes"`
	Programmes        int                         `json:"programmes"`
	Courses           int                         `json:"courses"`
	Suggestions       int                         `json:"suggestions"`
	SuggestionsByType map[core.SuggestionType]int `json:"suggestionsByType"`
	Cities            int                         `json:"cities"`
	States            int                         `json:"states"`
	LoadedAt          *time.Time                  `json:"loadedAt,omitempty"`
	LastRebuild       *core.RebuildRun            `json:"lastRebuild,omitempty"`
	Cache             CacheStats                  `json:"cache"`
}

// Stats describes the current index without loading it.
func (e *Engine) Stats() Stats {
	stats := Stats{
		State:             StateUninitialized,
		SuggestionsByType: map[core.SuggestionType]int{},
		Cache: CacheStats{
			Hits:   e.cache.hits.Load(),
			Misses: e.cache.misses.Load(),
		},
	}

	ix := e.current.Load()
	if ix == nil {
		return stats
	}

	loadedAt := ix.loadedAt
	stats.State = StateReady
	stats.Generation = ix.generation
	stats.Institutes = len(ix.institutes)
	stats.Programmes = ix.programmes
	stats.Courses = ix.courses
	stats.Suggestions = len(ix.suggestions)
	for t, n := range ix.typeCounts {
		stats.SuggestionsByType[t] = n
	}
	stats.Cities = len(ix.cities)
	stats.States = len(ix.states)
	stats.LoadedAt = &loadedAt
	stats.LastRebuild = ix.lastRun
	return stats
}
