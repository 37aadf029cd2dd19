package storage

import (
	"testing"
	"time"

	"github.com/poiesic/careersearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstituteSerializationPreservesNestedData(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	inst := &core.Institute{
		PublicID:    "inst-1",
		Name:        "Delhi Tech",
		Slug:        "delhi-tech",
		Type:        "engineering",
		Established: 1941,
		Location:    core.Location{City: "Delhi", State: "Delhi"},
		Programmes: []core.Programme{
			{
				Name:  "B.Tech",
				Level: "UG",
				Courses: []core.Course{
					{Name: "Computer Science", Exams: []string{"JEE Main"}, Recognition: []string{"AICTE"}},
				},
			},
		},
		Accreditation: core.Accreditation{NAAC: core.NAAC{Grade: "A+"}, NIRFRank: 27},
		InsertedAt:    now,
	}

	data, err := MarshalInstitute(inst)
	require.NoError(t, err)

	decoded, err := UnmarshalInstitute(data)
	require.NoError(t, err)

	assert.Equal(t, inst.Name, decoded.Name)
	assert.Equal(t, inst.Location, decoded.Location)
	assert.Equal(t, inst.Programmes, decoded.Programmes)
	assert.Equal(t, inst.Accreditation, decoded.Accreditation)
	assert.True(t, inst.InsertedAt.Equal(decoded.InsertedAt), "timestamps should survive encoding")
}

func TestSuggestionSerializationKeepsID(t *testing.T) {
	s := &core.Suggestion{
		ID:         core.ID(^uint64(0)),
		Name:       "Computer Science",
		Type:       core.SuggestionTypeCourse,
		PublicID:   "inst-1",
		Slug:       "delhi-tech",
		Metadata:   core.SuggestionMetadata{InstituteName: "Delhi Tech", ProgramName: "B.Tech"},
		SearchText: "computer science delhi tech",
	}

	data, err := MarshalSuggestion(s)
	require.NoError(t, err)

	decoded, err := UnmarshalSuggestion(data)
	require.NoError(t, err)
	assert.Equal(t, s, decoded)
}

func TestUnmarshal_Invalid(t *testing.T) {
	_, err := UnmarshalSuggestion([]byte{0xc1})
	assert.ErrorIs(t, err, ErrSerializationFailed)

	_, err = UnmarshalRebuildRun(nil)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}
