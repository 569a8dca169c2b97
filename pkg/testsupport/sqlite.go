package testsupport

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// Treatment is a row of the treatments table.
type Treatment struct {
	bun.BaseModel `bun:"table:treatments"`

	TreatmentID    string `bun:"treatmentId,pk" json:"treatmentId"`
	TreatmentTitle string `bun:"treatmentTitle" json:"treatmentTitle"`
	JournalYear    int64  `bun:"journalYear" json:"journalYear"`
	AuthorityName  string `bun:"authorityName" json:"authorityName"`
	Status         string `bun:"status" json:"status"`
}

// TreatmentAuthor is a row of the treatment_authors table.
type TreatmentAuthor struct {
	bun.BaseModel `bun:"table:treatment_authors"`

	TreatmentAuthorID string `bun:"treatmentAuthorId,pk" json:"treatmentAuthorId"`
	TreatmentAuthor   string `bun:"treatmentAuthor" json:"treatmentAuthor"`
	TreatmentID       string `bun:"treatmentId" json:"treatmentId"`
}

// MaterialsCitation is a row of the materials_citations table.
type MaterialsCitation struct {
	bun.BaseModel `bun:"table:materials_citations"`

	MaterialsCitationID string  `bun:"materialsCitationId,pk" json:"materialsCitationId"`
	TreatmentID         string  `bun:"treatmentId" json:"treatmentId"`
	Country             string  `bun:"country" json:"country"`
	CollectionCode      string  `bun:"collectionCode" json:"collectionCode"`
	TypeStatus          string  `bun:"typeStatus" json:"typeStatus"`
	Elevation           float64 `bun:"elevation" json:"elevation"`
}

// FigureCitation is a row of the figure_citations table.
type FigureCitation struct {
	bun.BaseModel `bun:"table:figure_citations"`

	FigureCitationID string `bun:"figureCitationId,pk" json:"figureCitationId"`
	TreatmentID      string `bun:"treatmentId" json:"treatmentId"`
	CaptionText      string `bun:"captionText" json:"captionText"`
}

// Family is a row of the families table.
type Family struct {
	bun.BaseModel `bun:"table:families"`

	ID     int64  `bun:"id,pk" json:"id"`
	Family string `bun:"family" json:"family"`
}

// Seed rows loaded by NewSQLiteDB.
var (
	Treatments = []Treatment{
		{TreatmentID: "000087F6E320FF95FF7EFDC1FAE4FA7B", TreatmentTitle: "Carabus hortensis", JournalYear: 2019, AuthorityName: "Linnaeus", Status: "comb. nov."},
		{TreatmentID: "03829855FFD8FFF1FF6EF9B8FEA7FED2", TreatmentTitle: "Carabus violaceus", JournalYear: 2020, AuthorityName: "Linnaeus", Status: "new record"},
		{TreatmentID: "03AF87E2FFC1FFB5FF30FA5EFD5DFE1E", TreatmentTitle: "Agosia chrysogaster", JournalYear: 2019, AuthorityName: "Girard", Status: "sp. nov."},
	}

	TreatmentAuthors = []TreatmentAuthor{
		{TreatmentAuthorID: "A1", TreatmentAuthor: "Agosti, D.", TreatmentID: "03AF87E2FFC1FFB5FF30FA5EFD5DFE1E"},
		{TreatmentAuthorID: "A2", TreatmentAuthor: "Kishor, P.", TreatmentID: "000087F6E320FF95FF7EFDC1FAE4FA7B"},
	}

	MaterialsCitations = []MaterialsCitation{
		{MaterialsCitationID: "M1", TreatmentID: "000087F6E320FF95FF7EFDC1FAE4FA7B", Country: "Germany", CollectionCode: "ZMB", TypeStatus: "holotype", Elevation: 320.5},
		{MaterialsCitationID: "M2", TreatmentID: "03AF87E2FFC1FFB5FF30FA5EFD5DFE1E", Country: "Mexico", CollectionCode: "CAS", TypeStatus: "paratype", Elevation: 1200},
	}

	FigureCitations = []FigureCitation{
		{FigureCitationID: "F1", TreatmentID: "000087F6E320FF95FF7EFDC1FAE4FA7B", CaptionText: "Habitus, dorsal view"},
	}

	Families = []Family{
		{ID: 1, Family: "Carabidae"},
		{ID: 2, Family: "Cyprinidae"},
		{ID: 3, Family: "Formicidae"},
	}
)

// OpenSQLite opens a private in-memory SQLite database through bun.
func OpenSQLite(t testing.TB) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	// every connection to :memory: is a separate database
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })
	return db
}

// NewSQLiteDB opens an in-memory database holding the local catalogue
// tables seeded with the package's fixture rows.
func NewSQLiteDB(t testing.TB) *bun.DB {
	t.Helper()

	db := OpenSQLite(t)
	ctx := context.Background()

	tables := []struct {
		model any
		rows  any
	}{
		{(*Treatment)(nil), &Treatments},
		{(*TreatmentAuthor)(nil), &TreatmentAuthors},
		{(*MaterialsCitation)(nil), &MaterialsCitations},
		{(*FigureCitation)(nil), &FigureCitations},
		{(*Family)(nil), &Families},
	}

	for _, tbl := range tables {
		if _, err := db.NewCreateTable().Model(tbl.model).Exec(ctx); err != nil {
			t.Fatalf("failed to create table for %T: %v", tbl.model, err)
		}
		if _, err := db.NewInsert().Model(tbl.rows).Exec(ctx); err != nil {
			t.Fatalf("failed to seed %T: %v", tbl.model, err)
		}
	}
	return db
}
