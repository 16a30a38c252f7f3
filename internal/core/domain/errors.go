package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors; adapters wrap their own
// failures with one of these sentinels so callers can branch with errors.Is.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates bad caller input: an invalid parameter,
	// an unknown field or a reference to an entity that does not exist.
	// Never retried.
	ErrValidation = errors.New("validation failed")

	// ErrUnsupportedMethod indicates an unknown chunking, embedding,
	// retrieval or tokenizer method name. Never retried.
	ErrUnsupportedMethod = errors.New("unsupported method")

	// ErrConflict indicates a uniqueness violation, such as a duplicate
	// domain name or a duplicate (name, domain, type) text.
	ErrConflict = errors.New("conflict")

	// ErrPersistence indicates a store-level failure. The enclosing
	// transaction has been rolled back when this is returned.
	ErrPersistence = errors.New("persistence failure")

	// ErrDataIntegrity indicates an internal invariant violation, such as a
	// delete that would orphan chunks. It signals a bug, not a user error.
	ErrDataIntegrity = errors.New("data integrity violation")

	// ErrDecompression indicates a stored blob could not be decompressed.
	ErrDecompression = errors.New("decompression failed")

	// ErrUnsupportedFormat indicates text extraction does not know the source format.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrInvalidConfiguration indicates an invalid configuration value,
	// such as a negative context window.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// Provider Errors.

	// ErrTransientBackend indicates a network failure, timeout or rate limit
	// from an external model provider. Eligible for retry with backoff.
	ErrTransientBackend = errors.New("transient backend failure")

	// ErrAuthentication indicates the provider rejected the credentials.
	ErrAuthentication = errors.New("authentication failed")

	// ErrEmbeddingBackend indicates the embedding model is unreachable or
	// cannot be loaded for a reason a retry will not fix.
	ErrEmbeddingBackend = errors.New("embedding backend failure")

	// ErrLLMUnavailable indicates no chat backend is configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)

// IsRetryable reports whether err is worth retrying.
// Only transient backend failures qualify.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransientBackend)
}
