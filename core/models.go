// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for derived entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// String returns the ID as a fixed-width hex string.
func (id ID) String() string {
	return fmt.Sprintf("%016x", uint64(id))
}

// ParseID parses the hex form produced by ID.String.
func ParseID(s string) (ID, error) {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, err
	}
	return ID(v), nil
}

// SuggestionType identifies the granularity of a suggestion.
type SuggestionType string

const (
	SuggestionTypeInstitute SuggestionType = "institute"
	SuggestionTypeProgram   SuggestionType = "program"
	SuggestionTypeCourse    SuggestionType = "course"
)

// SuggestionTypes lists every type in display order.
var SuggestionTypes = []SuggestionType{
	SuggestionTypeInstitute,
	SuggestionTypeProgram,
	SuggestionTypeCourse,
}

// Rank orders suggestion types institute, program, course.
func (t SuggestionType) Rank() int {
	switch t {
	case SuggestionTypeInstitute:
		return 0
	case SuggestionTypeProgram:
		return 1
	case SuggestionTypeCourse:
		return 2
	default:
		return 3
	}
}

// ParseSuggestionType accepts the public spellings of a suggestion type.
// "programme" is accepted as an alias for program.
func ParseSuggestionType(s string) (SuggestionType, error) {
	switch NormalizeText(s) {
	case "institute":
		return SuggestionTypeInstitute, nil
	case "program", "programme":
		return SuggestionTypeProgram, nil
	case "course":
		return SuggestionTypeCourse, nil
	default:
		return "", ErrInvalidSuggestionType
	}
}

// Location is where an institute is based.
type Location struct {
	City  string `json:"city,omitempty" msgpack:"city" bson:"city,omitempty"`
	State string `json:"state,omitempty" msgpack:"state" bson:"state,omitempty"`
}

// Course is a single offering inside a programme.
type Course struct {
	Name        string   `json:"name" msgpack:"name" bson:"name"`
	Category    string   `json:"category,omitempty" msgpack:"category" bson:"category,omitempty"`
	Level       string   `json:"level,omitempty" msgpack:"level" bson:"level,omitempty"`
	Exams       []string `json:"exams,omitempty" msgpack:"exams" bson:"exams,omitempty"`
	Recognition []string `json:"recognition,omitempty" msgpack:"recognition" bson:"recognition,omitempty"`
}

// Programme groups courses under a named programme.
type Programme struct {
	Name    string   `json:"name" msgpack:"name" bson:"name"`
	Level   string   `json:"level,omitempty" msgpack:"level" bson:"level,omitempty"`
	Courses []Course `json:"course,omitempty" msgpack:"course" bson:"course,omitempty"`
}

// NAAC holds the NAAC accreditation grade.
type NAAC struct {
	Grade string `json:"grade,omitempty" msgpack:"grade" bson:"grade,omitempty"`
}

// Accreditation holds accreditation and ranking details.
type Accreditation struct {
	NAAC     NAAC     `json:"naac,omitempty" msgpack:"naac" bson:"naac,omitempty"`
	NIRFRank int      `json:"nirfRank,omitempty" msgpack:"nirf_rank" bson:"nirfRank,omitempty"`
	Tags     []string `json:"tags,omitempty" msgpack:"tags" bson:"tags,omitempty"`
}

// Institute is the source-of-truth record that suggestions derive from.
type Institute struct {
	PublicID      string        `json:"publicId" msgpack:"public_id" bson:"publicId"`
	Name          string        `json:"name" msgpack:"name" bson:"name"`
	Slug          string        `json:"slug" msgpack:"slug" bson:"slug"`
	Type          string        `json:"type,omitempty" msgpack:"type" bson:"type,omitempty"`
	Established   int           `json:"established,omitempty" msgpack:"established" bson:"established,omitempty"`
	Location      Location      `json:"location" msgpack:"location" bson:"location"`
	Logo          string        `json:"logo,omitempty" msgpack:"logo" bson:"logo,omitempty"`
	Description   string        `json:"description,omitempty" msgpack:"description" bson:"description,omitempty"`
	Programmes    []Programme   `json:"programmes,omitempty" msgpack:"programmes" bson:"programmes,omitempty"`
	Accreditation Accreditation `json:"accreditation,omitempty" msgpack:"accreditation" bson:"accreditation,omitempty"`
	InsertedAt    time.Time     `json:"insertedAt,omitempty" msgpack:"inserted_at" bson:"insertedAt,omitempty"`
	UpdatedAt     time.Time     `json:"updatedAt,omitempty" msgpack:"updated_at" bson:"updatedAt,omitempty"`
}

// CourseCount returns the number of courses across all programmes.
func (i *Institute) CourseCount() int {
	n := 0
	for _, p := range i.Programmes {
		n += len(p.Courses)
	}
	return n
}

// SuggestionMetadata is display data copied from the parent institute so
// queries never join back to the source store.
type SuggestionMetadata struct {
	InstituteName string `json:"instituteName,omitempty" msgpack:"institute_name" bson:"instituteName,omitempty"`
	InstituteSlug string `json:"instituteSlug,omitempty" msgpack:"institute_slug" bson:"instituteSlug,omitempty"`
	ProgramName   string `json:"programName,omitempty" msgpack:"program_name" bson:"programName,omitempty"`
	Logo          string `json:"logo,omitempty" msgpack:"logo" bson:"logo,omitempty"`
	City          string `json:"city,omitempty" msgpack:"city" bson:"city,omitempty"`
	State         string `json:"state,omitempty" msgpack:"state" bson:"state,omitempty"`
	Description   string `json:"description,omitempty" msgpack:"description" bson:"description,omitempty"`
}

// Suggestion is one searchable unit at institute, program or course granularity.
// Suggestions are disposable: every rebuild regenerates them from institutes.
type Suggestion struct {
	ID         ID                 `json:"id" msgpack:"id" bson:"-"`
	Name       string             `json:"name" msgpack:"name" bson:"name"`
	Type       SuggestionType     `json:"type" msgpack:"type" bson:"type"`
	PublicID   string             `json:"publicId" msgpack:"public_id" bson:"publicId"`
	Slug       string             `json:"slug" msgpack:"slug" bson:"slug"`
	Metadata   SuggestionMetadata `json:"metadata" msgpack:"metadata" bson:"metadata"`
	SearchText string             `json:"searchText" msgpack:"search_text" bson:"searchText"`

	// Position locates the source record inside its institute: empty for the
	// institute, "2" for its third programme, "2.0" for that programme's
	// first course. It keeps same-named programmes and courses apart.
	Position string `json:"-" msgpack:"position" bson:"position,omitempty"`
}

// Key returns the content tuple that the suggestion ID is derived from.
func (s *Suggestion) Key() string {
	return string(s.Type) + "|" + s.PublicID + "|" + s.Position + "|" + s.Metadata.ProgramName + "|" + s.Name
}

// RebuildTrigger records what started a rebuild.
type RebuildTrigger string

const (
	RebuildTriggerAdmin    RebuildTrigger = "admin"
	RebuildTriggerCLI      RebuildTrigger = "cli"
	RebuildTriggerSchedule RebuildTrigger = "schedule"
)

// RebuildRun is the record of one suggestion rebuild.
type RebuildRun struct {
	ID                  string         `json:"id" msgpack:"id" bson:"_id"`
	Trigger             RebuildTrigger `json:"trigger" msgpack:"trigger" bson:"trigger"`
	StartedAt           time.Time      `json:"startedAt" msgpack:"started_at" bson:"startedAt"`
	FinishedAt          time.Time      `json:"finishedAt" msgpack:"finished_at" bson:"finishedAt"`
	InstitutesProcessed int            `json:"institutesProcessed" msgpack:"institutes_processed" bson:"institutesProcessed"`
	InstitutesSkipped   int            `json:"institutesSkipped" msgpack:"institutes_skipped" bson:"institutesSkipped"`
	SuggestionsCreated  int            `json:"suggestionsCreated" msgpack:"suggestions_created" bson:"suggestionsCreated"`
	Error               string         `json:"error,omitempty" msgpack:"error" bson:"error,omitempty"`
}

// Succeeded reports whether the run finished without error.
func (r *RebuildRun) Succeeded() bool {
	return r.Error == "" && !r.FinishedAt.IsZero()
}
