package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryCreateAssignsUniqueCode(t *testing.T) {
	r := NewRegistry()
	g, ok := r.Create(0)
	require.True(t, ok)
	require.NotEmpty(t, g.Code)
	r.Release(g)

	found, ok := r.Lookup(g.Code)
	require.True(t, ok)
	require.Equal(t, g.Index, found.Index)
	r.Release(found)
}

func TestRegistryCreateFailsWhenFull(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < len(r.slots); i++ {
		g, ok := r.Create(i)
		require.True(t, ok)
		r.Release(g)
	}
	_, ok := r.Create(999)
	require.False(t, ok)
}

func TestRegistryRemoveFreesSlotAndCode(t *testing.T) {
	r := NewRegistry()
	g, _ := r.Create(0)
	code := g.Code
	r.Remove(g)

	_, ok := r.Lookup(code)
	require.False(t, ok)
	_, ok = r.LookupByIndex(g.Index)
	require.False(t, ok)
}

func TestRegistryUniqueCodesAcrossManyCreates(t *testing.T) {
	r := NewRegistry()
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		g, ok := r.Create(i)
		require.True(t, ok)
		require.False(t, seen[g.Code], "duplicate game code %q", g.Code)
		seen[g.Code] = true
		r.Release(g)
	}
}
