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

import "errors"

// Domain validation errors
var (
	// ErrInvalidInstitute indicates an Institute failed validation.
	ErrInvalidInstitute = errors.New("invalid institute")

	// ErrInvalidSuggestion indicates a Suggestion failed validation.
	ErrInvalidSuggestion = errors.New("invalid suggestion")

	// ErrEmptyPublicID indicates the PublicID field is empty.
	ErrEmptyPublicID = errors.New("public id cannot be empty")

	// ErrEmptyName indicates the Name field is empty.
	ErrEmptyName = errors.New("name cannot be empty")

	// ErrInvalidSlug indicates a slug is empty or not in normalized form.
	ErrInvalidSlug = errors.New("slug must be non-empty, lowercase and hyphenated")

	// ErrInvalidSuggestionType indicates an unknown SuggestionType value.
	ErrInvalidSuggestionType = errors.New("invalid suggestion type")
)
