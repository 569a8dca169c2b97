package catalogue_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-resource-query/catalogue"
	"github.com/goliatone/go-resource-query/dictionary"
	"github.com/goliatone/go-resource-query/params"
	"github.com/goliatone/go-resource-query/predicate"
)

func TestNewRegistry(t *testing.T) {
	reg, err := catalogue.NewRegistry()
	require.NoError(t, err)

	assert.Equal(t, []string{
		catalogue.Families,
		catalogue.FigureCitations,
		catalogue.Images,
		catalogue.MaterialsCitations,
		catalogue.Publications,
		catalogue.TreatmentAuthors,
		catalogue.Treatments,
	}, reg.Names())
}

func TestSchemaDefaults(t *testing.T) {
	reg, err := catalogue.NewRegistry()
	require.NoError(t, err)

	tests := []struct {
		name      string
		source    dictionary.SourceKind
		table     string
		cacheable bool
	}{
		{catalogue.Treatments, dictionary.SourceLocal, "treatments", true},
		{catalogue.TreatmentAuthors, dictionary.SourceLocal, "treatment_authors", true},
		{catalogue.MaterialsCitations, dictionary.SourceLocal, "materials_citations", true},
		{catalogue.FigureCitations, dictionary.SourceLocal, "figure_citations", true},
		{catalogue.Images, dictionary.SourceUpstream, "", true},
		{catalogue.Publications, dictionary.SourceUpstream, "", true},
		{catalogue.Families, dictionary.SourceLocal, "families", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := reg.Schema(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.source, s.Source)
			assert.Equal(t, tt.table, s.Table)
			assert.Equal(t, tt.cacheable, s.Cacheable)
			assert.Equal(t, dictionary.DefaultRefreshParam, s.RefreshParam)
		})
	}
}

func TestPublicationsQuery(t *testing.T) {
	reg, err := catalogue.NewRegistry()
	require.NoError(t, err)
	s, err := reg.Schema(catalogue.Publications)
	require.NoError(t, err)

	p, err := params.Validate(s, map[string]string{"q": "ago"})
	require.NoError(t, err)

	pred := predicate.Compile(s, p)
	assert.Equal(t, "type = ? AND q LIKE ?", pred.SQL())
	assert.Equal(t, []any{"all", "ago%"}, pred.Bindings)

	_, err = params.Validate(s, map[string]string{"q": "ag"})
	var verr *params.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has(params.BelowMinimumLength, "q"))
}

func TestTreatmentsParamAlias(t *testing.T) {
	reg, err := catalogue.NewRegistry()
	require.NoError(t, err)
	s, err := reg.Schema(catalogue.Treatments)
	require.NoError(t, err)

	p, err := params.Validate(s, map[string]string{"q": "Carabus", "journalYear": "2019"})
	require.NoError(t, err)

	pred := predicate.Compile(s, p)
	assert.Equal(t, "treatmentTitle LIKE ? AND journalYear = ?", pred.SQL())
	assert.Equal(t, []any{"Carabus%", int64(2019)}, pred.Bindings)
}

func TestNewRegistryExtraReplacesBuiltin(t *testing.T) {
	reg, err := catalogue.NewRegistry(dictionary.Schema{
		Name:   catalogue.Families,
		Source: dictionary.SourceLocal,
		Fields: []dictionary.Field{{Name: "family", Storage: "family", Mode: dictionary.ModeEqual}},
	})
	require.NoError(t, err)

	s, err := reg.Schema(catalogue.Families)
	require.NoError(t, err)
	assert.False(t, s.Cacheable)
	assert.Len(t, s.Fields, 1)
}
