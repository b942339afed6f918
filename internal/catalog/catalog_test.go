// internal/catalog/catalog_test.go
package catalog

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/jason-s-yu/happyfamilies/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedGenerator replays a fixed list of replies, then fails.
type scriptedGenerator struct {
	mu      sync.Mutex
	replies []models.Family
	seen    [][]string
}

func (g *scriptedGenerator) Generate(_ context.Context, existing []string) (models.Family, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seen = append(g.seen, append([]string(nil), existing...))
	if len(g.replies) == 0 {
		return models.Family{}, errors.New("out of ideas")
	}
	f := g.replies[0]
	g.replies = g.replies[1:]
	return f, nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newLoadedCatalog(t *testing.T, store Store, gen Generator) *Catalog {
	t.Helper()
	c := New(store, gen, quietLogger())
	c.Pause = 0
	require.NoError(t, c.Load(context.Background()))
	return c
}

func TestLoadSeedsEmptyStore(t *testing.T) {
	store := NewMemoryStore()
	c := newLoadedCatalog(t, store, nil)

	assert.Equal(t, len(DefaultFamilies), c.Len())
	saved, err := store.LoadFamilies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultFamilies, saved)
}

func TestLoadKeepsExistingStore(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.SaveFamily(context.Background(), models.Family{ID: "clockmaker", Name: "Clockmaker"}))

	c := newLoadedCatalog(t, store, nil)
	assert.Equal(t, []models.Family{{ID: "clockmaker", Name: "Clockmaker"}}, c.AllFamilies())
}

func TestSelectRandomReturnsDistinctFamilies(t *testing.T) {
	c := newLoadedCatalog(t, nil, nil)

	picked := c.SelectRandom(context.Background(), 7)
	require.Len(t, picked, 7)
	seen := make(map[string]bool)
	for _, f := range picked {
		assert.False(t, seen[f.ID])
		seen[f.ID] = true
	}

	assert.Len(t, c.SelectRandom(context.Background(), 50), len(DefaultFamilies), "capped by catalog size")
	assert.Empty(t, c.SelectRandom(context.Background(), 0))
}

func TestSelectRandomGeneratesShortfall(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.SaveFamily(context.Background(), models.Family{ID: "baker", Name: "Baker"}))
	gen := &scriptedGenerator{replies: []models.Family{
		{ID: "clockmaker", Name: "Clockmaker"},
	}}
	c := newLoadedCatalog(t, store, gen)

	picked := c.SelectRandom(context.Background(), 2)
	assert.Len(t, picked, 2)
	assert.Equal(t, 2, c.Len())
}

func TestGenerateMoreAdmitsNewFamilies(t *testing.T) {
	store := NewMemoryStore()
	gen := &scriptedGenerator{replies: []models.Family{
		{ID: "Chocolatier", Name: "Chocolatier", Theme: "sweets"},
		// collides with a seed
		{ID: "baker", Name: "Baker"},
		// id derived from the name
		{ID: "", Name: "Détective Privé", Emoji: "🔍"},
		// unusable
		{ID: "clockmaker", Name: ""},
	}}
	c := newLoadedCatalog(t, store, gen)
	before := c.Len()

	got := c.GenerateMore(context.Background(), 4)

	require.GreaterOrEqual(t, len(got), 2)
	assert.Equal(t, "chocolatier", got[0].ID)
	assert.Equal(t, paletteColor(before), got[0].Color)
	assert.Equal(t, "detective_prive", got[1].ID)
	assert.Equal(t, paletteColor(before+1), got[1].Color)
	assert.Equal(t, before+2, c.Len())
	assert.Len(t, got, before+2, "fallback candidates follow the new families")

	saved, err := store.LoadFamilies(context.Background())
	require.NoError(t, err)
	assert.Len(t, saved, before+2, "generated families are persisted")

	require.NotEmpty(t, gen.seen)
	assert.Contains(t, gen.seen[0], "baker", "the generator is told which ids exist")
}

func TestGenerateMoreWithoutGeneratorFallsBackToCatalog(t *testing.T) {
	c := newLoadedCatalog(t, nil, nil)

	got := c.GenerateMore(context.Background(), 3)
	assert.Len(t, got, len(DefaultFamilies))
	assert.Empty(t, c.GenerateMore(context.Background(), 0))
	assert.Empty(t, c.Grow(context.Background(), 3))
}

func TestGrowReturnsOnlyNewFamilies(t *testing.T) {
	gen := &scriptedGenerator{replies: []models.Family{
		{ID: "beekeeper", Name: "Beekeeper"},
		{ID: "pirate", Name: "Pirate"},
	}}
	c := newLoadedCatalog(t, nil, gen)

	got := c.Grow(context.Background(), 2)
	require.Len(t, got, 1)
	assert.Equal(t, "beekeeper", got[0].ID)
}

func TestIllustrateHook(t *testing.T) {
	c := newLoadedCatalog(t, nil, nil)
	require.NoError(t, c.Illustrate(context.Background(), DefaultFamilies[0]))

	var drawn []string
	c.IllustrateFn = func(_ context.Context, f models.Family) error {
		drawn = append(drawn, f.ID)
		return nil
	}
	require.NoError(t, c.Illustrate(context.Background(), DefaultFamilies[1]))
	assert.Equal(t, []string{"astronaut"}, drawn)
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Baker":            "baker",
		"Police Officer":   "police_officer",
		"Chef cuisinier!":  "chef_cuisinier",
		"Bibliothécaire":   "bibliothecaire",
		"  --Horloger--  ": "horloger",
		"Agent 007":        "agent_007",
		"":                 "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slug(in), "Slug(%q)", in)
	}
}
