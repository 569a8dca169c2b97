package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-resource-query/dictionary"
)

// UpdateGoldenEnv names the environment variable that rewrites golden
// files instead of comparing against them.
const UpdateGoldenEnv = "UPDATE_GOLDEN"

// LoadFixture loads test data from a fixture file.
// The path is relative to the test package directory.
func LoadFixture(t testing.TB, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture from %s: %v", path, err)
	}
	return data
}

// LoadFixtureJSON loads JSON test data from a fixture file and unmarshals it.
func LoadFixtureJSON(t testing.TB, path string, dest any) {
	t.Helper()

	if err := json.Unmarshal(LoadFixture(t, path), dest); err != nil {
		t.Fatalf("failed to unmarshal JSON fixture from %s: %v", path, err)
	}
}

// LoadSchemas parses a dictionary fixture.
func LoadSchemas(t testing.TB, path string) []dictionary.Schema {
	t.Helper()

	schemas, err := dictionary.Parse(LoadFixture(t, path))
	if err != nil {
		t.Fatalf("failed to parse dictionary fixture %s: %v", path, err)
	}
	return schemas
}

// NewRegistry builds a registry from inline YAML.
func NewRegistry(t testing.TB, doc string) *dictionary.Registry {
	t.Helper()

	schemas, err := dictionary.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("failed to parse dictionary: %v", err)
	}
	reg, err := dictionary.NewRegistry(schemas...)
	if err != nil {
		t.Fatalf("failed to register dictionary: %v", err)
	}
	return reg
}

// WriteGolden writes test output to a golden file, creating its directory.
func WriteGolden(t testing.TB, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write golden file to %s: %v", path, err)
	}
}

// CompareWithGolden compares actual with the golden file at path. A
// missing golden file is created; UPDATE_GOLDEN=1 rewrites it.
func CompareWithGolden(t testing.TB, path string, actual []byte) {
	t.Helper()

	if os.Getenv(UpdateGoldenEnv) == "1" {
		WriteGolden(t, path, actual)
		return
	}

	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Logf("golden file %s does not exist, creating it", path)
			WriteGolden(t, path, actual)
			return
		}
		t.Fatalf("failed to read golden file %s: %v", path, err)
	}

	if string(actual) != string(expected) {
		t.Errorf("output mismatch for %s:\nExpected:\n%s\nActual:\n%s", path, expected, actual)
	}
}

// CompareJSONWithGolden marshals v with indentation and compares it with
// the golden file at path.
func CompareJSONWithGolden(t testing.TB, path string, v any) {
	t.Helper()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatalf("failed to marshal JSON for golden file %s: %v", path, err)
	}
	CompareWithGolden(t, path, append(data, '\n'))
}

// TempFile writes content to a file under the test's temp directory and
// returns its path.
func TempFile(t testing.TB, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

// FixturePath constructs a path to a fixture file relative to the testdata directory.
func FixturePath(filename string) string {
	return filepath.Join("testdata", filename)
}

// GoldenPath constructs a path to a golden file relative to the testdata directory.
func GoldenPath(filename string) string {
	return filepath.Join("testdata", "golden", filename)
}
