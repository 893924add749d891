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


// Package retrieval answers a query with the most relevant stored chunks.
//
// The Engine embeds the query, asks the vector index for a candidate pool,
// and keeps only candidates that score strictly above a threshold and pass
// optional keyword rules. Survivors are ordered by descending score, with
// ties kept in index order, and cut to the requested count.
//
// An empty outcome is reported as ErrEmptyContext so callers can substitute
// a fallback answer instead of generating from nothing. BuildContext renders
// results into a citation-labelled block for a generator.
package retrieval
