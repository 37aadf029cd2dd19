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

package rebuild

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrInstituteRepositoryRequired is returned when an institute repository is not provided.
	ErrInstituteRepositoryRequired = errors.New("institute repository required")

	// ErrSuggestionRepositoryRequired is returned when a suggestion repository is not provided.
	ErrSuggestionRepositoryRequired = errors.New("suggestion repository required")

	// ErrReloadFailed is returned when the store was rebuilt but the engine could not reload.
	ErrReloadFailed = errors.New("suggestions rebuilt but search engine reload failed")
)
