// Package storage defines the read-only corpus file-system abstraction.
package storage

import "github.com/starford/docgraph/internal/models"

// Provider is the interface for corpus file access.
type Provider interface {
	// Root returns the absolute corpus root directory.
	Root() string
	// List returns every .md file under the root, in lexical walk order.
	List() ([]models.FileInfo, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
}
