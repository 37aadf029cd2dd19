package populate

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/poiesic/careersearch/core"
)

// Populator turns institutes into suggestions. It has no side effects beyond logging.
type Populator struct {
	logger *slog.Logger
}

// Option configures a Populator.
type Option func(*Populator)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Populator) {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
	}
}

// NewPopulator creates a new Populator.
func NewPopulator(opts ...Option) *Populator {
	p := &Populator{logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Populate returns the suggestions contributed by inst, in the order
// institute, then each programme followed by its courses.
// An institute without a name or public ID yields no suggestions.
func (p *Populator) Populate(inst *core.Institute) []*core.Suggestion {
	if inst == nil {
		p.logger.Warn("skipping nil institute")
		return nil
	}

	name := strings.TrimSpace(inst.Name)
	publicID := strings.TrimSpace(inst.PublicID)
	if name == "" || publicID == "" {
		p.logger.Warn("skipping institute without name or public id",
			"publicId", inst.PublicID, "slug", inst.Slug)
		return nil
	}

	base := core.SuggestionMetadata{
		InstituteName: name,
		InstituteSlug: inst.Slug,
		Logo:          inst.Logo,
		City:          strings.TrimSpace(inst.Location.City),
		State:         strings.TrimSpace(inst.Location.State),
		Description:   inst.Description,
	}

	suggestions := make([]*core.Suggestion, 0, 1+len(inst.Programmes)+inst.CourseCount())
	suggestions = append(suggestions, p.newSuggestion(name, core.SuggestionTypeInstitute, publicID, inst.Slug, "", base))

	for i, programme := range inst.Programmes {
		programmeName := strings.TrimSpace(programme.Name)
		position := strconv.Itoa(i)
		if programmeName != "" {
			suggestions = append(suggestions, p.newSuggestion(programmeName, core.SuggestionTypeProgram, publicID, inst.Slug, position, base))
		}

		for j, course := range programme.Courses {
			courseName := strings.TrimSpace(course.Name)
			if courseName == "" {
				continue
			}
			meta := base
			meta.ProgramName = programmeName
			suggestions = append(suggestions, p.newSuggestion(courseName, core.SuggestionTypeCourse, publicID, inst.Slug, position+"."+strconv.Itoa(j), meta))
		}
	}

	p.logger.Debug("populated institute", "publicId", publicID, "suggestions", len(suggestions))
	return suggestions
}

// PopulateAll populates every institute in order and reports how many were skipped.
func (p *Populator) PopulateAll(institutes []*core.Institute) ([]*core.Suggestion, int) {
	var all []*core.Suggestion
	skipped := 0
	for _, inst := range institutes {
		s := p.Populate(inst)
		if len(s) == 0 {
			skipped++
			continue
		}
		all = append(all, s...)
	}
	return all, skipped
}

func (p *Populator) newSuggestion(name string, typ core.SuggestionType, publicID, slug, position string, meta core.SuggestionMetadata) *core.Suggestion {
	s := &core.Suggestion{
		Name:       name,
		Type:       typ,
		PublicID:   publicID,
		Slug:       slug,
		Metadata:   meta,
		SearchText: core.BuildSearchText(name, meta.InstituteName),
		Position:   position,
	}
	s.ID = core.IDFromContent(s.Key())
	return s
}
