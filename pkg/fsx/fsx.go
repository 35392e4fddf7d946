package fsx

import (
	"context"
	"io"
	"path"
)

// FileReader reads files from a storage backend.
type FileReader interface {
	// ReadFile returns the full contents of the file at path.
	ReadFile(ctx context.Context, filePath string) ([]byte, error)
}

// FileSystem is the full storage abstraction: read, write, and path layout.
type FileSystem interface {
	FileReader

	// WriteFile stores data at path, overwriting any existing object.
	WriteFile(ctx context.Context, filePath string, data []byte) error

	// WriteFileStream stores the reader's contents at path.
	WriteFileStream(ctx context.Context, filePath string, r io.Reader) error

	// Delete removes the object at path. Deleting a missing object is not an error.
	Delete(ctx context.Context, filePath string) error

	// Join builds a storage path from parts using the backend's separator.
	Join(parts ...string) string
}

// Join is the default slash-separated path join used by backends.
func Join(parts ...string) string {
	return path.Join(parts...)
}
