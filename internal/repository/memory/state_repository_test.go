package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authSlice struct {
	IsAuthenticated bool    `json:"isAuthenticated"`
	Username        *string `json:"username"`
}

func TestSaveLoadRoundTrip(t *testing.T) {
	repo := NewStateRepository("test_prefix")
	ctx := context.Background()

	name := "maria"
	in := authSlice{IsAuthenticated: true, Username: &name}
	require.NoError(t, repo.Save(ctx, "auth", in))

	var out authSlice
	found, err := repo.Load(ctx, "auth", &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, in.IsAuthenticated, out.IsAuthenticated)
	require.NotNil(t, out.Username)
	assert.Equal(t, "maria", *out.Username)
}

func TestLoadMissingKeyReturnsNotFound(t *testing.T) {
	repo := NewStateRepository("test_prefix")

	var out authSlice
	found, err := repo.Load(context.Background(), "auth", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteRemovesSlice(t *testing.T) {
	repo := NewStateRepository("test_prefix")
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "auth", authSlice{IsAuthenticated: true}))
	require.NoError(t, repo.Delete(ctx, "auth"))

	var out authSlice
	found, err := repo.Load(ctx, "auth", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCorruptSliceFallsBackWithoutAffectingOthers(t *testing.T) {
	repo := NewStateRepository("test_prefix")
	ctx := context.Background()

	repo.SeedRaw("tabs", `{"torn write`)
	require.NoError(t, repo.Save(ctx, "auth", authSlice{IsAuthenticated: true}))
	require.NoError(t, repo.Save(ctx, "config", map[string]string{"googleSheetUrl": "https://example"}))

	var tabs []map[string]interface{}
	found, err := repo.Load(ctx, "tabs", &tabs)
	require.NoError(t, err)
	assert.False(t, found)

	var auth authSlice
	found, err = repo.Load(ctx, "auth", &auth)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, auth.IsAuthenticated)

	var cfg map[string]string
	found, err = repo.Load(ctx, "config", &cfg)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "https://example", cfg["googleSheetUrl"])
}

func TestPrefixesIsolateStores(t *testing.T) {
	a := NewStateRepository("product_a")
	ctx := context.Background()

	require.NoError(t, a.Save(ctx, "auth", authSlice{IsAuthenticated: true}))

	b := NewStateRepository("product_b")
	// Different cache instances, but the key shape still carries the prefix.
	var out authSlice
	found, err := b.Load(ctx, "auth", &out)
	require.NoError(t, err)
	assert.False(t, found)
}
