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


// Package storage provides the vector index abstraction for lexrag.
//
// This package defines the VectorIndex interface that decouples the ingestion
// pipeline and retrieval engine from any particular vector database. Two
// implementations ship with lexrag:
//
//   - badger: an embedded index backed by BadgerDB with exact cosine search
//   - qdrant: a remote index backed by a Qdrant collection
//
// # Constructor Return Type Pattern
//
// Public constructors return the storage.VectorIndex interface:
//
//	index, err := badger.NewIndex("/path/to/db")  // returns storage.VectorIndex
//
// Internal constructors (newIndex) may return concrete types since they're
// only used within the implementation package.
//
// # Records
//
// A Record is keyed by its chunk ID. Upsert overwrites on ID, so repeating an
// ingestion run replaces records instead of duplicating them. Payloads hold
// sanitized metadata only: strings, numbers, booleans and string slices.
//
// # Usage
//
// Use in tests with in-memory storage:
//
//	index, err := badger.NewMemoryIndex()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer index.Close()
//
// # Thread Safety
//
// All index implementations must be safe for concurrent use, since the
// ingestion pipeline upserts from several workers at once.
package storage
