package domain

import "io"

// Source is an upload or web page to extract text from.
// Either Reader or URL is set. Name carries the file extension that
// selects the extractor.
type Source struct {
	Name   string
	Reader io.Reader
	URL    string
}
