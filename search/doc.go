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

// Package search answers end-user queries over institutes and their
// suggestions.
//
// The Engine holds an immutable in-memory index built from the suggestion
// store and the institute store. It supports:
//   - Suggest: ranked autocomplete over suggestion names
//   - Search: free-text query combined with facet filters and pagination
//   - Explore: facet browsing of institutes with sorting
//   - Stats: counts and load information for health checks
//
// The index is loaded lazily on first use (or explicitly with Init) and
// replaced atomically by Reload. Readers never block on a reload; they see
// the previous index until the new one is swapped in.
package search
