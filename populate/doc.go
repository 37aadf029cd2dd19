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

// Package populate flattens institutes into search suggestions.
//
// A single institute yields one institute-level suggestion, one suggestion per
// named programme and one per named course. Every suggestion carries a copy of
// the institute's display fields so the search engine never has to look the
// institute up again at query time.
package populate
