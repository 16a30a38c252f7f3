package domain

// RetrievalQuery selects and ranks candidate embeddings.
type RetrievalQuery struct {
	// DomainID restricts candidates to texts of one domain.
	DomainID string

	// Vector is the query embedding.
	Vector []float32

	// TopN is the maximum number of results.
	TopN int

	// TextIDs optionally restricts candidates to a subset of texts.
	TextIDs []string

	// ConfigKey optionally restricts candidates to one vector space.
	// Leaving it empty risks comparing vectors from different models.
	ConfigKey string
}

// CandidateFilter selects embeddings from the ledger for retrieval.
type CandidateFilter struct {
	DomainID  string
	TextIDs   []string
	ConfigKey string
}

// Candidate is a stored embedding eligible for ranking.
type Candidate struct {
	EmbeddingID string
	ChunkID     string
	Vector      []float32
}

// ScoredEmbedding is one retrieval result.
type ScoredEmbedding struct {
	EmbeddingID string
	ChunkID     string
	Score       float64
}

// RetrievedChunk is a retrieval result hydrated with its chunk and text.
type RetrievedChunk struct {
	// EmbeddingID is the matched embedding.
	EmbeddingID string

	// Chunk is the chunk the embedding was computed from.
	Chunk Chunk

	// TextID and TextName identify the source text.
	TextID   string
	TextName string

	// Score is the retriever's relevance score, higher is better.
	Score float64
}
