package domain

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single message in a conversation.
type Message struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ChatSession is the explicit state of one conversation.
// It replaces ambient session state: everything the orchestrator needs
// to answer is carried here.
type ChatSession struct {
	// DomainID is the domain searched for context.
	DomainID string

	// TextIDs optionally restricts retrieval to these texts.
	TextIDs []string

	// EmbeddingProcessID selects the embedding run (and so the vector space)
	// used to embed questions and filter candidates.
	EmbeddingProcessID string

	// Retriever is the retrieval method and its parameters.
	Retriever       string
	RetrieverParams map[string]any

	// TopN is the number of chunks retrieved per question.
	TopN int

	// ResponseBuffer is the number of tokens reserved for the answer.
	ResponseBuffer int

	// History holds previous turns in chronological order.
	History []Message
}

// ChatReply is the outcome of one question.
type ChatReply struct {
	// Answer is the model's response.
	Answer string

	// Context lists the retrieved chunks that fitted the token budget.
	Context []RetrievedChunk

	// KeptMessages is the number of history messages sent to the model.
	KeptMessages int

	// TokensUsed is the prompt token count after reduction.
	TokensUsed int
}
