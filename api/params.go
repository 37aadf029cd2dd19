package api

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/poiesic/careersearch/core"
	"github.com/poiesic/careersearch/search"
)

type searchParams struct {
	Q    string
	Type string `validate:"omitempty,oneof=institute programme program course"`
	search.Facets
	Page  int `validate:"gte=1"`
	Limit int `validate:"gte=1,lte=100"`
}

type exploreParams struct {
	search.Facets
	SortBy    string `validate:"oneof=courses established name"`
	SortOrder string `validate:"oneof=asc desc"`
	Page      int    `validate:"gte=1"`
	Limit     int    `validate:"gte=1,lte=100"`
}

type suggestParams struct {
	Q     string `validate:"required"`
	Limit int    `validate:"gte=1,lte=50"`
}

// positiveInt parses v, returning def for anything that is not a positive integer.
func positiveInt(v string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return def
	}
	return n
}

func facetsFrom(q url.Values) search.Facets {
	get := func(key string) string { return strings.TrimSpace(q.Get(key)) }
	return search.Facets{
		City:          get("city"),
		State:         get("state"),
		Type:          get("type"),
		Level:         get("level"),
		Programme:     get("programme"),
		Exam:          get("exam"),
		Course:        get("course"),
		Accreditation: get("accreditation"),
	}
}

func (h *Handler) parseSearch(q url.Values) (search.SearchQuery, error) {
	p := searchParams{
		Q:      strings.TrimSpace(q.Get("q")),
		Type:   strings.ToLower(strings.TrimSpace(q.Get("type"))),
		Facets: facetsFrom(q),
		Page:   positiveInt(q.Get("page"), search.DefaultPage),
		Limit:  min(positiveInt(q.Get("limit"), search.DefaultLimit), search.MaxLimit),
	}
	if err := h.validate.Struct(p); err != nil {
		return search.SearchQuery{}, describe(err)
	}

	query := search.SearchQuery{Q: p.Q, Facets: p.Facets, Page: p.Page, Limit: p.Limit}
	// type selects suggestion granularity on search, not institute category
	query.Facets.Type = ""
	if p.Type != "" {
		t, err := core.ParseSuggestionType(p.Type)
		if err != nil {
			return search.SearchQuery{}, err
		}
		query.SuggestionType = t
	}
	return query, nil
}

func (h *Handler) parseExplore(q url.Values) (search.ExploreQuery, error) {
	p := exploreParams{
		Facets:    facetsFrom(q),
		SortBy:    string(search.ParseSortBy(q.Get("sortBy"))),
		SortOrder: string(search.ParseSortOrder(q.Get("sortOrder"))),
		Page:      positiveInt(q.Get("page"), search.DefaultPage),
		Limit:     min(positiveInt(q.Get("limit"), search.DefaultLimit), search.MaxLimit),
	}
	if err := h.validate.Struct(p); err != nil {
		return search.ExploreQuery{}, describe(err)
	}
	return search.ExploreQuery{
		Facets:    p.Facets,
		SortBy:    search.SortBy(p.SortBy),
		SortOrder: search.SortOrder(p.SortOrder),
		Page:      p.Page,
		Limit:     p.Limit,
	}, nil
}

func (h *Handler) parseSuggest(q url.Values) (string, int, error) {
	p := suggestParams{
		Q:     strings.TrimSpace(q.Get("q")),
		Limit: min(positiveInt(q.Get("limit"), search.DefaultSuggestLimit), search.MaxSuggestLimit),
	}
	if err := h.validate.Struct(p); err != nil {
		return "", 0, describe(err)
	}
	return p.Q, p.Limit, nil
}

// describe turns validator errors into a client-facing message.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	e := verrs[0]
	field := strings.ToLower(e.Field())
	switch e.Tag() {
	case "required":
		return fmt.Errorf("query parameter %q is required", field)
	case "oneof":
		return fmt.Errorf("query parameter %q must be one of: %s", field, strings.ReplaceAll(e.Param(), " ", ", "))
	default:
		return fmt.Errorf("query parameter %q is invalid", field)
	}
}
