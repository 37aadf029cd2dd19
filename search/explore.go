package search

import (
	"cmp"
	"context"
	"slices"

	"github.com/poiesic/careersearch/core"
)

// InstituteSummary is the explore view of an institute.
type InstituteSummary struct {
	PublicID      string             `json:"publicId"`
	Name          string             `json:"name"`
	Slug          string             `json:"slug"`
	Type          string             `json:"type,omitempty"`
	Established   int                `json:"established,omitempty"`
	Location      core.Location      `json:"location"`
	Logo          string             `json:"logo,omitempty"`
	Programmes    int                `json:"programmes"`
	Courses       int                `json:"courses"`
	Accreditation core.Accreditation `json:"accreditation"`
}

func summarize(e *instituteEntry) InstituteSummary {
	return InstituteSummary{
		PublicID:      e.inst.PublicID,
		Name:          e.inst.Name,
		Slug:          e.inst.Slug,
		Type:          e.inst.Type,
		Established:   e.inst.Established,
		Location:      e.inst.Location,
		Logo:          e.inst.Logo,
		Programmes:    len(e.inst.Programmes),
		Courses:       e.courses,
		Accreditation: e.inst.Accreditation,
	}
}

// Explore lists institutes matching every given facet, sorted by SortBy in
// SortOrder. Ties are always broken by name then publicId ascending.
func (e *Engine) Explore(ctx context.Context, q ExploreQuery) (*Page[InstituteSummary], error) {
	ix, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	page, limit := normalizePaging(q.Page, q.Limit)

	var entries []*instituteEntry
	positions, all := ix.filterInstitutes(q.Facets.values())
	if all {
		entries = slices.Clone(ix.institutes)
	} else {
		entries = make([]*instituteEntry, 0, len(positions))
		for _, pos := range positions {
			entries = append(entries, ix.institutes[pos])
		}
	}

	sortBy := ParseSortBy(string(q.SortBy))
	desc := ParseSortOrder(string(q.SortOrder)) == SortDesc
	if sortBy != SortByName || desc {
		slices.SortStableFunc(entries, func(a, b *instituteEntry) int {
			var c int
			switch sortBy {
			case SortByCourses:
				c = cmp.Compare(a.courses, b.courses)
			case SortByEstablished:
				c = cmp.Compare(a.inst.Established, b.inst.Established)
			default:
				c = cmp.Compare(a.name, b.name)
			}
			if desc {
				c = -c
			}
			return c
		})
	}

	summaries := make([]InstituteSummary, len(entries))
	for i, entry := range entries {
		summaries[i] = summarize(entry)
	}
	return paginate(summaries, page, limit), nil
}
