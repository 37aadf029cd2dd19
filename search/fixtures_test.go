package search

import "github.com/poiesic/careersearch/core"

// catalog is a small, varied set of institutes used across query tests.
func catalog() []*core.Institute {
	return []*core.Institute{
		{
			PublicID: "iit-d", Name: "Indian Institute of Technology Delhi", Slug: "iit-delhi",
			Type: "Engineering", Established: 1961,
			Location: core.Location{City: "New Delhi", State: "Delhi"},
			Programmes: []core.Programme{
				{Name: "B.Tech", Level: "Undergraduate", Courses: []core.Course{
					{Name: "Computer Science", Category: "Engineering", Exams: []string{"JEE Advanced"}, Recognition: []string{"AICTE"}},
					{Name: "Electrical Engineering", Category: "Engineering", Exams: []string{"JEE Advanced"}},
				}},
				{Name: "M.Tech", Level: "Postgraduate", Courses: []core.Course{
					{Name: "Data Science", Exams: []string{"GATE"}},
				}},
			},
			Accreditation: core.Accreditation{NAAC: core.NAAC{Grade: "A++"}, NIRFRank: 2},
		},
		{
			PublicID: "dtu", Name: "Delhi Technological University", Slug: "delhi-technological-university",
			Type: "Engineering", Established: 1941,
			Location: core.Location{City: "New Delhi", State: "Delhi"},
			Programmes: []core.Programme{
				{Name: "B.Tech", Level: "Undergraduate", Courses: []core.Course{
					{Name: "Computer Science", Exams: []string{"JEE Main"}},
				}},
			},
			Accreditation: core.Accreditation{NAAC: core.NAAC{Grade: "A"}},
		},
		{
			PublicID: "ms-arts", Name: "Mumbai School of Arts", Slug: "mumbai-school-of-arts",
			Type: "Arts", Established: 1857,
			Location: core.Location{City: "Mumbai", State: "Maharashtra"},
			Programmes: []core.Programme{
				{Name: "BFA", Level: "Undergraduate", Courses: []core.Course{
					{Name: "Painting"}, {Name: "Sculpture"}, {Name: "Applied Art"},
				}},
			},
			Accreditation: core.Accreditation{Tags: []string{"UGC"}},
		},
		{
			PublicID: "pune-med", Name: "Pune Medical College", Slug: "pune-medical-college",
			Type: "Medical", Established: 1990,
			Location: core.Location{City: "Pune", State: "Maharashtra"},
			Programmes: []core.Programme{
				{Name: "MBBS", Level: "Undergraduate", Courses: []core.Course{
					{Name: "General Medicine", Exams: []string{"NEET"}},
				}},
			},
		},
	}
}
