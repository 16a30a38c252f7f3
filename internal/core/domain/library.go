package domain

import "time"

// Domain is a named namespace grouping extracted texts.
type Domain struct {
	// ID is the unique identifier for the domain.
	ID string

	// Name is the unique, user-facing name.
	Name string

	// CreatedAt is when the domain was created.
	CreatedAt time.Time
}

// Text types distinguish extractions of the same logical document.
const (
	// TextTypeOriginal is the first extraction of an upload.
	TextTypeOriginal = "original"

	// TextTypeEdited is a user-edited copy of an extraction.
	TextTypeEdited = "edited"
)

// ExtractedText is the text extracted from one uploaded document.
// The (Name, DomainID, Type) triple is unique.
type ExtractedText struct {
	// ID is the unique identifier for the text.
	ID string

	// DomainID links to the owning Domain.
	DomainID string

	// Name is the display name, usually the file name without extension.
	Name string

	// Type separates extraction variants of the same document (see TextType*).
	Type string

	// OriginalName is the upload's original file name or URL.
	OriginalName string

	// Content is the full extracted text. It is stored compressed.
	Content string

	// CreatedAt is when the text was first saved.
	CreatedAt time.Time

	// UpdatedAt is when the text was last re-saved.
	UpdatedAt time.Time
}

// TextSummary is a text without its content, for listings.
type TextSummary struct {
	ID           string
	DomainID     string
	Name         string
	Type         string
	OriginalName string
	CreatedAt    time.Time
}
