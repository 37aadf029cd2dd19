package search

import (
	"strings"

	"github.com/poiesic/careersearch/core"
)

const (
	// DefaultPage is the first page.
	DefaultPage = 1
	// DefaultLimit is the page size used when none is given.
	DefaultLimit = 20
	// MaxLimit caps the page size.
	MaxLimit = 100
	// DefaultSuggestLimit is the number of suggestions returned when none is given.
	DefaultSuggestLimit = 8
	// MaxSuggestLimit caps the number of suggestions.
	MaxSuggestLimit = 50
)

// SortBy names an explore sort key.
type SortBy string

const (
	SortByName        SortBy = "name"
	SortByCourses     SortBy = "courses"
	SortByEstablished SortBy = "established"
)

// ParseSortBy returns the sort key for s, or SortByName when s is not one.
func ParseSortBy(s string) SortBy {
	switch SortBy(strings.ToLower(strings.TrimSpace(s))) {
	case SortByCourses:
		return SortByCourses
	case SortByEstablished:
		return SortByEstablished
	default:
		return SortByName
	}
}

// SortOrder is ascending or descending.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortOrder returns the order for s, or SortAsc when s is not one.
func ParseSortOrder(s string) SortOrder {
	if SortOrder(strings.ToLower(strings.TrimSpace(s))) == SortDesc {
		return SortDesc
	}
	return SortAsc
}

// Facets are structured filters evaluated against an institute.
// Empty fields do not filter. Matching is case-insensitive equality after
// whitespace normalization.
type Facets struct {
	City          string `json:"city,omitempty"`
	State         string `json:"state,omitempty"`
	Type          string `json:"type,omitempty"`
	Level         string `json:"level,omitempty"`
	Programme     string `json:"programme,omitempty"`
	Exam          string `json:"exam,omitempty"`
	Course        string `json:"course,omitempty"`
	Accreditation string `json:"accreditation,omitempty"`
}

func (f Facets) values() map[facet]string {
	out := make(map[facet]string, 8)
	add := func(k facet, v string) {
		if v = core.NormalizeText(v); v != "" {
			out[k] = v
		}
	}
	add(facetCity, f.City)
	add(facetState, f.State)
	add(facetType, f.Type)
	add(facetLevel, f.Level)
	add(facetProgramme, f.Programme)
	add(facetExam, f.Exam)
	add(facetCourse, f.Course)
	add(facetAccreditation, f.Accreditation)
	return out
}

// SearchQuery combines free text with facets over suggestions.
// Facets are evaluated on the suggestion's parent institute; Type and
// Accreditation in Facets are ignored, use SuggestionType instead.
type SearchQuery struct {
	Q              string
	SuggestionType core.SuggestionType
	Facets         Facets
	Page           int
	Limit          int
}

// ExploreQuery browses institutes by facet.
type ExploreQuery struct {
	Facets    Facets
	SortBy    SortBy
	SortOrder SortOrder
	Page      int
	Limit     int
}

// Page is one page of results with the unpaginated total.
type Page[T any] struct {
	Results []T `json:"results"`
	Total   int `json:"total"`
	Page    int `json:"page"`
	Limit   int `json:"limit"`
}

// normalizePaging applies defaults and caps.
func normalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	return page, min(limit, MaxLimit)
}

// paginate slices items for page and limit, which must already be normalized.
func paginate[T any](items []T, page, limit int) *Page[T] {
	start := (page - 1) * limit
	results := make([]T, 0)
	if start < len(items) {
		end := min(start+limit, len(items))
		results = append(results, items[start:end]...)
	}
	return &Page[T]{Results: results, Total: len(items), Page: page, Limit: limit}
}
