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

import "fmt"

// ValidateInstitute validates an Institute according to domain rules.
//
// Validation rules:
//   - PublicID must not be empty
//   - Name must not be empty
//   - Slug must already be in NormalizeSlug form
//
// Programmes and accreditation are free-form and not validated.
func ValidateInstitute(inst *Institute) error {
	if inst == nil {
		return fmt.Errorf("%w: institute is nil", ErrInvalidInstitute)
	}

	if NormalizeText(inst.PublicID) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidInstitute, ErrEmptyPublicID)
	}

	if NormalizeText(inst.Name) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidInstitute, ErrEmptyName)
	}

	if inst.Slug == "" || inst.Slug != NormalizeSlug(inst.Slug) {
		return fmt.Errorf("%w: %w: %q", ErrInvalidInstitute, ErrInvalidSlug, inst.Slug)
	}

	return nil
}

// ValidateSuggestion validates a Suggestion before it is stored.
func ValidateSuggestion(s *Suggestion) error {
	if s == nil {
		return fmt.Errorf("%w: suggestion is nil", ErrInvalidSuggestion)
	}

	if s.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSuggestion, ErrEmptyName)
	}

	if s.PublicID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSuggestion, ErrEmptyPublicID)
	}

	if s.Type.Rank() > SuggestionTypeCourse.Rank() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidSuggestion, ErrInvalidSuggestionType, s.Type)
	}

	return nil
}
