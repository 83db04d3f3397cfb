package item_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlgudi/chance-man-sub000/internal/item"
)

func testCatalog(t *testing.T) *item.Catalog {
	t.Helper()
	catalog, err := item.NewCatalog([]item.Definition{
		{ID: 1511, Name: "Logs", Tradeable: true},
		{ID: 1512, Name: "Logs (noted)", Tradeable: true, LinkedID: 1511},
		{ID: 453, Name: "Coal", Tradeable: true},
		{ID: 454, Name: "Coal (noted)", Tradeable: true, LinkedID: 453},
		{ID: 552, Name: "Quest relic", Tradeable: false},
	})
	require.NoError(t, err)
	return catalog
}

func TestCanonicalFollowsLinks(t *testing.T) {
	catalog := testCatalog(t)

	assert.Equal(t, item.ID(1511), catalog.Canonical(1512))
	assert.Equal(t, item.ID(1511), catalog.Canonical(1511))
	assert.Equal(t, item.ID(453), catalog.Canonical(454))
	// Unknown ids map to themselves.
	assert.Equal(t, item.ID(99999), catalog.Canonical(99999))
}

func TestIDsExcludeLinkedVariants(t *testing.T) {
	catalog := testCatalog(t)

	ids := catalog.IDs()
	assert.Contains(t, ids, item.ID(1511))
	assert.Contains(t, ids, item.ID(453))
	assert.NotContains(t, ids, item.ID(1512))
	assert.NotContains(t, ids, item.ID(454))
}

func TestDisplayNameFallsBackToID(t *testing.T) {
	catalog := testCatalog(t)

	assert.Equal(t, "Logs", catalog.DisplayName(1511))
	assert.Equal(t, "item 42", catalog.DisplayName(42))
}

func TestTradeableUnknownItemsAreNot(t *testing.T) {
	catalog := testCatalog(t)

	assert.True(t, catalog.Tradeable(1511))
	assert.False(t, catalog.Tradeable(552))
	assert.False(t, catalog.Tradeable(42))
}

func TestParseCatalogRejectsBadRecords(t *testing.T) {
	_, err := item.ParseCatalog([]byte(`[{"id":1,"name":"a"},{"id":1,"name":"b"}]`))
	assert.Error(t, err)

	_, err = item.ParseCatalog([]byte(`[{"id":0,"name":"zero"}]`))
	assert.Error(t, err)

	_, err = item.ParseCatalog([]byte(`not json`))
	assert.Error(t, err)
}

func TestBundledCatalogLoads(t *testing.T) {
	catalog, err := item.LoadCatalog("")
	require.NoError(t, err)
	assert.Greater(t, catalog.Size(), 0)
}
