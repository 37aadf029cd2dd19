package search

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/careersearch/core"
)

// facet identifies a structured filter dimension.
type facet uint8

const (
	facetCity facet = iota
	facetState
	facetType
	facetLevel
	facetProgramme
	facetExam
	facetCourse
	facetAccreditation
)

// LocationKind tells cities from states.
type LocationKind string

const (
	LocationCity  LocationKind = "city"
	LocationState LocationKind = "state"
)

// Location is a city or state with the number of institutes in it.
type Location struct {
	Name       string       `json:"name" msgpack:"name"`
	Kind       LocationKind `json:"kind" msgpack:"kind"`
	Institutes int          `json:"institutes" msgpack:"institutes"`

	norm string
}

type instituteEntry struct {
	inst    *core.Institute
	name    string
	courses int
}

// hit is a matched suggestion position and its match tier.
// Lower tiers rank first: 0 name prefix, 1 token prefix, 2 substring.
type hit struct {
	pos  int32
	tier uint8
}

// index is an immutable view of both stores. Positions in suggestions are
// in name order, so sorting hits by position sorts them by name.
type index struct {
	generation string
	loadedAt   time.Time
	lastRun    *core.RebuildRun

	// seq orders loads by when they began reading the stores.
	seq uint64

	suggestions []*core.Suggestion
	names       []string
	texts       []string
	trie        *tokenTrie
	typeCounts  map[core.SuggestionType]int

	institutes []*instituteEntry
	byPublicID map[string]int
	postings   map[facet]map[string][]int
	cities     []Location
	states     []Location
	programmes int
	courses    int
}

func buildIndex(institutes []*core.Institute, suggestions []*core.Suggestion, lastRun *core.RebuildRun, generation string) *index {
	ix := &index{
		generation: generation,
		loadedAt:   time.Now().UTC(),
		lastRun:    lastRun,
		trie:       newTokenTrie(),
		typeCounts: make(map[core.SuggestionType]int, len(core.SuggestionTypes)),
		byPublicID: make(map[string]int, len(institutes)),
		postings:   make(map[facet]map[string][]int),
	}
	ix.indexSuggestions(suggestions)
	ix.indexInstitutes(institutes)
	return ix
}

func (ix *index) indexSuggestions(suggestions []*core.Suggestion) {
	type entry struct {
		s    *core.Suggestion
		name string
	}
	entries := make([]entry, 0, len(suggestions))
	for _, s := range suggestions {
		if s == nil {
			continue
		}
		entries = append(entries, entry{s: s, name: core.NormalizeText(s.Name)})
	}
	slices.SortFunc(entries, func(a, b entry) int {
		return cmp.Or(cmp.Compare(a.name, b.name), cmp.Compare(a.s.ID, b.s.ID))
	})

	ix.suggestions = make([]*core.Suggestion, len(entries))
	ix.names = make([]string, len(entries))
	ix.texts = make([]string, len(entries))
	for i, e := range entries {
		text := core.NormalizeText(e.s.SearchText)
		if text == "" {
			text = e.name
		}
		ix.suggestions[i] = e.s
		ix.names[i] = e.name
		ix.texts[i] = text
		ix.typeCounts[e.s.Type]++
		for _, tok := range core.Tokens(text) {
			ix.trie.insert(tok, int32(i))
		}
	}
}

func (ix *index) indexInstitutes(institutes []*core.Institute) {
	entries := make([]*instituteEntry, 0, len(institutes))
	for _, inst := range institutes {
		if inst == nil || inst.PublicID == "" {
			continue
		}
		entries = append(entries, &instituteEntry{
			inst:    inst,
			name:    core.NormalizeText(inst.Name),
			courses: inst.CourseCount(),
		})
	}
	slices.SortFunc(entries, func(a, b *instituteEntry) int {
		return cmp.Or(cmp.Compare(a.name, b.name), cmp.Compare(a.inst.PublicID, b.inst.PublicID))
	})

	cities := make(map[string]*Location)
	states := make(map[string]*Location)
	countLocation := func(m map[string]*Location, kind LocationKind, name string) {
		norm := core.NormalizeText(name)
		if norm == "" {
			return
		}
		loc, ok := m[norm]
		if !ok {
			loc = &Location{Name: strings.TrimSpace(name), Kind: kind, norm: norm}
			m[norm] = loc
		}
		loc.Institutes++
	}

	ix.institutes = entries
	for pos, e := range entries {
		inst := e.inst
		ix.byPublicID[inst.PublicID] = pos
		ix.programmes += len(inst.Programmes)
		ix.courses += e.courses

		countLocation(cities, LocationCity, inst.Location.City)
		countLocation(states, LocationState, inst.Location.State)

		ix.post(facetCity, inst.Location.City, pos)
		ix.post(facetState, inst.Location.State, pos)
		ix.post(facetType, inst.Type, pos)
		ix.post(facetAccreditation, inst.Accreditation.NAAC.Grade, pos)
		for _, tag := range inst.Accreditation.Tags {
			ix.post(facetAccreditation, tag, pos)
		}
		for _, p := range inst.Programmes {
			ix.post(facetProgramme, p.Name, pos)
			ix.post(facetLevel, p.Level, pos)
			for _, c := range p.Courses {
				ix.post(facetCourse, c.Name, pos)
				ix.post(facetCourse, c.Category, pos)
				ix.post(facetLevel, c.Level, pos)
				for _, exam := range c.Exams {
					ix.post(facetExam, exam, pos)
				}
				for _, r := range c.Recognition {
					ix.post(facetAccreditation, r, pos)
				}
			}
		}
	}

	ix.cities = sortedLocations(cities)
	ix.states = sortedLocations(states)
}

// post adds institute pos to the posting list of value under f.
// Institutes are posted in ascending position order.
func (ix *index) post(f facet, value string, pos int) {
	value = core.NormalizeText(value)
	if value == "" {
		return
	}
	byValue, ok := ix.postings[f]
	if !ok {
		byValue = make(map[string][]int)
		ix.postings[f] = byValue
	}
	list := byValue[value]
	if n := len(list); n > 0 && list[n-1] == pos {
		return
	}
	byValue[value] = append(list, pos)
}

func sortedLocations(m map[string]*Location) []Location {
	out := make([]Location, 0, len(m))
	for _, loc := range m {
		out = append(out, *loc)
	}
	slices.SortFunc(out, func(a, b Location) int { return cmp.Compare(a.norm, b.norm) })
	return out
}

// filterInstitutes returns the ascending positions of institutes matching
// every facet value. all is true when no facet was given.
func (ix *index) filterInstitutes(values map[facet]string) (positions []int, all bool) {
	if len(values) == 0 {
		return nil, true
	}

	lists := make([][]int, 0, len(values))
	for f, v := range values {
		list := ix.postings[f][v]
		if len(list) == 0 {
			return []int{}, false
		}
		lists = append(lists, list)
	}
	slices.SortFunc(lists, func(a, b []int) int { return cmp.Compare(len(a), len(b)) })

	result := slices.Clone(lists[0])
	for _, list := range lists[1:] {
		result = intersectSorted(result, list)
		if len(result) == 0 {
			break
		}
	}
	return result, false
}

func intersectSorted(a, b []int) []int {
	out := a[:0]
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return out
}

// match ranks suggestions against query. An empty query matches nothing.
func (ix *index) match(query string) []hit {
	q := core.NormalizeText(query)
	if q == "" {
		return nil
	}

	tiers := make(map[int32]uint8)
	if tokens := core.Tokens(q); len(tokens) > 0 {
		for pos := range ix.trie.allPrefixed(tokens) {
			tiers[pos] = 1
		}
	}
	for i := range ix.suggestions {
		pos := int32(i)
		if strings.HasPrefix(ix.names[i], q) {
			tiers[pos] = 0
			continue
		}
		if _, ok := tiers[pos]; ok {
			continue
		}
		if strings.Contains(ix.texts[i], q) {
			tiers[pos] = 2
		}
	}

	hits := make([]hit, 0, len(tiers))
	for pos, tier := range tiers {
		hits = append(hits, hit{pos: pos, tier: tier})
	}
	slices.SortFunc(hits, func(a, b hit) int {
		return cmp.Or(cmp.Compare(a.tier, b.tier), cmp.Compare(a.pos, b.pos))
	})
	return hits
}

// matchLocations returns cities then states whose name starts with query,
// busiest first.
func (ix *index) matchLocations(query string, limit int) []Location {
	q := core.NormalizeText(query)
	out := make([]Location, 0)
	if q == "" {
		return out
	}
	for _, group := range [][]Location{ix.cities, ix.states} {
		for _, loc := range group {
			if strings.HasPrefix(loc.norm, q) {
				out = append(out, loc)
			}
		}
	}
	slices.SortStableFunc(out, func(a, b Location) int {
		return cmp.Compare(b.Institutes, a.Institutes)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
