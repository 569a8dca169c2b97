// Package catalogue embeds the field dictionaries of the built-in
// resources.
package catalogue

import (
	"embed"
	"io/fs"

	"github.com/goliatone/go-resource-query/dictionary"
)

//go:embed resources/*.yaml
var resources embed.FS

// Names of the built-in resources.
const (
	Treatments         = "treatments"
	TreatmentAuthors   = "treatmentAuthors"
	MaterialsCitations = "materialsCitations"
	FigureCitations    = "figureCitations"
	Images             = "images"
	Publications       = "publications"
	Families           = "families"
)

// FS returns the embedded dictionary files.
func FS() fs.FS {
	sub, err := fs.Sub(resources, "resources")
	if err != nil {
		panic(err)
	}
	return sub
}

// Load parses the embedded dictionaries.
func Load() ([]dictionary.Schema, error) {
	return dictionary.LoadFS(FS())
}

// NewRegistry returns a registry holding the built-in resources plus any
// extra schemas. An extra schema named like a built-in one replaces it.
func NewRegistry(extra ...dictionary.Schema) (*dictionary.Registry, error) {
	schemas, err := Load()
	if err != nil {
		return nil, err
	}
	return dictionary.NewRegistry(append(schemas, extra...)...)
}
