package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/estimate-cli/internal/model"
)

func sampleItems() []Item {
	return []Item{
		{Code: "2.1.1", Description: "Earthwork excavation in ordinary soil", Category: "Earthwork", Unit: "cum", Rate: 185},
		{Code: "4.1.2", Description: "Cement concrete 1:2:4 using 20mm aggregate", Category: "Concrete", Unit: "cum", Rate: 4850},
		{Code: "4.1.3", Description: "Cement concrete 1:3:6 using 40mm aggregate", Category: "Concrete", Unit: "cum", Rate: 4100},
		{Code: "6.2.1", Description: "Brick masonry in CM 1:6", Category: "Masonry", Unit: "cum", Rate: 5200},
	}
}

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c := New()
	require.NoError(t, c.Reload(sampleItems()))
	return c
}

func TestLookup_Found(t *testing.T) {
	c := newTestCatalog(t)
	it, err := c.Lookup("4.1.2")
	require.NoError(t, err)
	assert.Equal(t, 4850.0, it.Rate)
}

func TestLookup_NotFound(t *testing.T) {
	c := newTestCatalog(t)
	_, err := c.Lookup("9.9.9")
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestReload_DuplicateCodeRejectsBatch(t *testing.T) {
	c := newTestCatalog(t)
	err := c.Reload([]Item{{Code: "1.1"}, {Code: "1.1"}})
	assert.True(t, errors.Is(err, model.ErrDuplicateName))

	// Previous contents untouched.
	assert.Equal(t, 4, c.Len())
}

func TestReload_EmptyCode(t *testing.T) {
	c := New()
	err := c.Reload([]Item{{Description: "no code"}})
	assert.True(t, errors.Is(err, model.ErrValidation))
}

func TestSearch_RanksByScore(t *testing.T) {
	c := newTestCatalog(t)
	got := c.Search("cement concrete 1:2:4 20mm", 0)

	require.NotEmpty(t, got)
	assert.Equal(t, "4.1.2", got[0].Item.Code)
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i].Score, got[i-1].Score)
	}
}

func TestSearch_TiesKeepInsertionOrder(t *testing.T) {
	c := New()
	require.NoError(t, c.Reload([]Item{
		{Code: "a", Description: "cement plaster"},
		{Code: "b", Description: "cement plaster"},
	}))

	got := c.Search("cement plaster", 0)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Item.Code)
	assert.Equal(t, "b", got[1].Item.Code)
}

func TestSearch_Limit(t *testing.T) {
	c := newTestCatalog(t)
	got := c.Search("cement concrete", 1)
	assert.Len(t, got, 1)
}

func TestSearch_NoMatches(t *testing.T) {
	c := newTestCatalog(t)
	assert.Empty(t, c.Search("helicopter pad lighting", 5))
}

func TestItems_Copy(t *testing.T) {
	c := newTestCatalog(t)
	items := c.Items()
	items[0].Code = "mutated"

	it, err := c.Lookup("2.1.1")
	require.NoError(t, err)
	assert.Equal(t, "2.1.1", it.Code)
}
