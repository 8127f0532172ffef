package upload

import "io"

// Upload is a file-like value embedded in GraphQL operation variables.
// The extractor lifts every Upload out of the variables graph and the
// transport ships its Content as a separate multipart body part.
//
// Content is read exactly once, when the request body is written.
type Upload struct {
	// Name is the filename reported in the multipart part header.
	Name string

	// ContentType optionally overrides the part's content type.
	// Empty means application/octet-stream.
	ContentType string

	// Content provides the raw file bytes.
	Content io.Reader
}

// New returns an Upload with the given filename and content.
func New(name string, r io.Reader) *Upload {
	return &Upload{Name: name, Content: r}
}

// FileList is an ordered collection of uploads, mirroring a multi-file
// form input. It is a container, not a leaf: the extractor descends into
// it and classifies each element individually.
type FileList []*Upload

// IsExtractable is the default classifier. It recognizes *Upload values
// and nothing else; callers with custom file-like types substitute their
// own predicate. Pure function, no side effects.
func IsExtractable(v any) bool {
	_, ok := v.(*Upload)
	return ok
}
