package core

// ChunkType identifies the structural level a chunk was cut from.
type ChunkType string

const (
	ChunkTypePart       ChunkType = "part"
	ChunkTypeSection    ChunkType = "section"
	ChunkTypeSubsection ChunkType = "subsection"
)

// ContentType classifies what a chunk of legal text does.
type ContentType string

const (
	ContentTypeDefinition  ContentType = "definition"
	ContentTypeRequirement ContentType = "requirement"
	ContentTypeProcedure   ContentType = "procedure"
	ContentTypePenalty     ContentType = "penalty"
	ContentTypeAmendment   ContentType = "amendment"
	ContentTypeNote        ContentType = "note"
)

// Amendment is a bracketed amendment marker found in a section.
type Amendment struct {
	Section     string `json:"section"`
	Subsection  string `json:"subsection,omitempty"`
	Text        string `json:"text"`
	Date        string `json:"date,omitempty"`
	Description string `json:"description,omitempty"`
}

// Definition is a defined term along with the text surrounding it.
type Definition struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
	Context    string `json:"context"`
}

// SectionRef is a cross-reference to another section.
type SectionRef struct {
	Section string `json:"section"`
	Context string `json:"context"`
}

// ChunkMetadata carries the structural and semantic attributes of a chunk.
type ChunkMetadata struct {
	Part            string
	PartTitle       string
	Section         string
	SectionTitle    string
	Subsection      string
	PageNumber      int
	ChunkType       ChunkType
	Type            ContentType
	RelatedSections []SectionRef
	Definitions     map[string]Definition
	Amendments      []Amendment
	Topics          []string // At most five, most frequent first
	IsAmendment     bool
	Notes           []string
	Date            string // Set on amendment chunks only
}

// DocumentChunk is the unit of embedding and retrieval.
// Embedding stays nil until the ingestion pipeline assigns it.
type DocumentChunk struct {
	ID        string
	Text      string
	Metadata  ChunkMetadata
	Embedding []float32
}

// Citation locates a chunk within the source document.
type Citation struct {
	Part       string
	Section    string
	Subsection string
	Title      string
}

// IsEmpty reports whether the citation carries no locator at all.
func (c Citation) IsEmpty() bool {
	return c.Part == "" && c.Section == "" && c.Subsection == "" && c.Title == ""
}

// SearchResult is a retrieved chunk with its similarity score in [0,1].
type SearchResult struct {
	ID       string
	Text     string
	Score    float32
	Citation Citation
	Type     ContentType
	Page     int
}

// ClampScore bounds a similarity score to [0,1].
func ClampScore(score float32) float32 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
