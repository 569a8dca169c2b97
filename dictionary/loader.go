package dictionary

import (
	"fmt"
	"io/fs"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

type document struct {
	Resources []Schema `yaml:"resources"`
}

// Parse decodes a YAML document holding a `resources` list.
func Parse(data []byte) ([]Schema, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode dictionary: %w", err)
	}
	return doc.Resources, nil
}

// LoadFile reads and parses a single dictionary file.
func LoadFile(path string) ([]Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	schemas, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return schemas, nil
}

// LoadFS parses every file in fsys matching the glob patterns, in name order.
func LoadFS(fsys fs.FS, patterns ...string) ([]Schema, error) {
	if len(patterns) == 0 {
		patterns = []string{"*.yaml", "*.yml"}
	}

	var files []string
	for _, pattern := range patterns {
		matches, err := fs.Glob(fsys, pattern)
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	var out []Schema
	for _, name := range files {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		schemas, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out = append(out, schemas...)
	}
	return out, nil
}

// LoadDir parses every *.yaml and *.yml file in dir.
func LoadDir(dir string) ([]Schema, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	return LoadFS(os.DirFS(dir))
}
