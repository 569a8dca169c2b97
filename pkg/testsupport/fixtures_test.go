package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/uptrace/bun"
	"go.uber.org/zap/zapcore"
)

const testDictionary = `
resources:
  - name: things
    cacheable: true
    fields:
      - name: id
        storage: id
        mode: equal
        resourceId: true
`

func TestLoadFixture(t *testing.T) {
	path := TempFile(t, "test.txt", []byte("test fixture content"))

	if got := LoadFixture(t, path); string(got) != "test fixture content" {
		t.Errorf("expected fixture content, got %q", got)
	}
}

func TestLoadFixtureJSON(t *testing.T) {
	path := TempFile(t, "test.json", []byte(`{"name":"test","value":42}`))

	var result map[string]any
	LoadFixtureJSON(t, path, &result)

	if result["name"] != "test" {
		t.Errorf("expected name=test, got %v", result["name"])
	}
	if result["value"] != float64(42) {
		t.Errorf("expected value=42, got %v", result["value"])
	}
}

func TestLoadSchemas(t *testing.T) {
	path := TempFile(t, "dict.yaml", []byte(testDictionary))

	schemas := LoadSchemas(t, path)
	if len(schemas) != 1 || schemas[0].Name != "things" {
		t.Fatalf("unexpected schemas: %+v", schemas)
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry(t, testDictionary)

	s, err := reg.Schema("things")
	if err != nil {
		t.Fatalf("expected schema, got %v", err)
	}
	if s.Table != "things" {
		t.Errorf("expected default table, got %q", s.Table)
	}
}

func TestCompareWithGolden(t *testing.T) {
	path := filepath.Join(t.TempDir(), "golden", "out.json")

	// first run creates the file
	CompareJSONWithGolden(t, path, map[string]any{"data": []any{}})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("golden file was not created: %v", err)
	}
	if string(data) != "{\n  \"data\": []\n}\n" {
		t.Errorf("unexpected golden content %q", data)
	}

	CompareJSONWithGolden(t, path, map[string]any{"data": []any{}})
}

func TestPaths(t *testing.T) {
	if got := FixturePath("a.yaml"); got != filepath.Join("testdata", "a.yaml") {
		t.Errorf("unexpected fixture path %q", got)
	}
	if got := GoldenPath("a.json"); got != filepath.Join("testdata", "golden", "a.json") {
		t.Errorf("unexpected golden path %q", got)
	}
}

func TestNewSQLiteDB(t *testing.T) {
	db := NewSQLiteDB(t)
	ctx := context.Background()

	n, err := db.NewSelect().Model((*Treatment)(nil)).Count(ctx)
	if err != nil {
		t.Fatalf("count treatments: %v", err)
	}
	if n != len(Treatments) {
		t.Errorf("expected %d treatments, got %d", len(Treatments), n)
	}

	var fam Family
	if err := db.NewSelect().Model(&fam).Where("? = ?", bun.Ident("family"), "Formicidae").Scan(ctx); err != nil {
		t.Fatalf("select family: %v", err)
	}
	if fam.ID != 3 {
		t.Errorf("expected family id 3, got %d", fam.ID)
	}
}

func TestNewRedis(t *testing.T) {
	mr, client := NewRedis(t)

	if err := client.Set(context.Background(), "k", "v", 0).Err(); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, _ := mr.Get("k"); got != "v" {
		t.Errorf("expected v, got %q", got)
	}
}

func TestNewObservedLogger(t *testing.T) {
	logger, logs := NewObservedLogger(zapcore.WarnLevel)

	logger.Info("dropped")
	logger.Warn("kept")

	if logs.Len() != 1 || logs.All()[0].Message != "kept" {
		t.Errorf("unexpected entries: %+v", logs.All())
	}
}
