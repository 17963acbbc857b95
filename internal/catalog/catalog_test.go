package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/docgraph/internal/apperr"
	"github.com/starford/docgraph/internal/models"
	"github.com/starford/docgraph/internal/scanner"
)

func testCatalog() *Catalog {
	return New(&scanner.Result{
		Documents: []models.Document{
			{Path: "01-architecture/risk.md", Title: "Risk", Type: models.DocTypeArchitecture,
				Components: []string{"RiskEngine"}, References: []string{"../02-decisions/001-go.md", "../02-decisions/001-go.md"}},
			{Path: "02-decisions/001-go.md", Title: "Use Go", Type: models.DocTypeDecision,
				Components: []string{"RiskEngine", "TradeExecutor"}, References: []string{"01-architecture/risk.md", "nowhere.md"}},
			{Path: "notes.md", Title: "Notes", Type: models.DocTypeOther},
		},
		Decisions: []models.Decision{
			{ID: "001", Title: "Use Go", Status: "accepted", Path: "02-decisions/001-go.md"},
		},
	})
}

func TestListDocuments(t *testing.T) {
	c := testCatalog()
	assert.Len(t, c.ListDocuments(""), 3)

	arch := c.ListDocuments("architecture")
	require.Len(t, arch, 1)
	assert.Equal(t, "01-architecture/risk.md", arch[0].Path)

	assert.Empty(t, c.ListDocuments("plan"))
	assert.Equal(t, []string{}, c.ListDocuments("")[2].Components)
}

func TestGetDocument(t *testing.T) {
	c := testCatalog()

	d, err := c.GetDocument("02-decisions/001-go.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"01-architecture/risk.md"}, d.Backlinks)
	require.NotNil(t, d.Decision)
	assert.Equal(t, "001", d.Decision.ID)

	d, err = c.GetDocument("01-architecture/risk.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"02-decisions/001-go.md"}, d.Backlinks)
	assert.Nil(t, d.Decision)

	_, err = c.GetDocument("missing.md")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestBacklinks_Empty(t *testing.T) {
	assert.Equal(t, []string{}, testCatalog().Backlinks("notes.md"))
}

func TestListDecisions(t *testing.T) {
	c := testCatalog()
	assert.Len(t, c.ListDecisions(""), 1)
	assert.Len(t, c.ListDecisions("ACCEPTED"), 1)
	assert.Empty(t, c.ListDecisions("superseded"))
}

func TestComponents(t *testing.T) {
	c := testCatalog()
	assert.Equal(t, []ComponentSummary{
		{Name: "RiskEngine", Documents: 2},
		{Name: "TradeExecutor", Documents: 1},
	}, c.Components())

	docs, err := c.ComponentDocuments("risk engine")
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	_, err = c.ComponentDocuments("Keystore")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestLive_Replace(t *testing.T) {
	l := NewLive(testCatalog())
	docs, _ := l.Current().Len()
	assert.Equal(t, 3, docs)

	l.Replace(New(&scanner.Result{}))
	docs, decs := l.Current().Len()
	assert.Zero(t, docs)
	assert.Zero(t, decs)
}
