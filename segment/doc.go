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


// Package segment turns the raw text of a consolidated statute into
// structural units with semantic metadata.
//
// Segmentation runs in three steps:
//   - Each page is cleaned: page markers and running headers are removed and
//     whitespace is normalized.
//   - Cleaned pages are joined and split on part and section headings. Parts
//     take precedence over sections, and text before the first part heading
//     is reported as a Miss rather than failing the document.
//   - Every unit is scanned for amendments, notes, definitions, section
//     cross-references and topic words, and classified by content type.
//
// Subsections are not split here. ExtractSubsections is used by the chunk
// assembler to break section units into subsection chunks.
//
// All extractors are pure functions and a Segmenter is safe for concurrent
// use.
package segment
