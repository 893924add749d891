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


// Package ingestion writes document chunks into a vector index.
//
// The Pipeline partitions chunks into batches of at most 100, and runs them
// on a fixed-size worker pool (three workers by default). Each batch:
//   - embeds the text of every chunk in one embedder call
//   - sanitizes each chunk's metadata into a flat payload
//   - upserts all records in one index call
//
// Submitting a batch while every worker is busy blocks until one frees up.
// A batch that fails or times out is logged with its chunk-id range and
// counted; the remaining batches carry on. Optional retry with exponential
// backoff is safe because records are keyed by stable chunk IDs.
package ingestion
