package loader

import "errors"

var (
	// ErrUnsupportedFormat is returned for a file extension with no loader.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrNoText is returned when a document yields no text at all.
	ErrNoText = errors.New("document contains no extractable text")
)
