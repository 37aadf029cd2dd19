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

// Package storage provides the storage abstraction layer for careersearch.
//
// This package defines repository interfaces that decouple storage implementation
// from the populate, rebuild and search packages. Two backends implement them:
// storage/badger (embedded, the default) and storage/mongo (document store).
//
// # Architecture
//
//   - InstituteRepository: the institute source store, read-only to the search core
//   - SuggestionRepository: the derived suggestion store, replaced wholesale on rebuild
//   - RebuildRunRepository: history of rebuilds, the latest run is the index generation
//
// # Usage
//
// Use in tests with in-memory storage:
//
//	repos, backend, err := badger.NewMemoryRepositories()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer func() { repos.Close(); backend.Close() }()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support.
package storage
