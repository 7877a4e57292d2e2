package apps

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	r := Default()
	require.Equal(t, 6, r.Len())

	yt, ok := r.Get("YouTube")
	require.True(t, ok)
	assert.Equal(t, "youtube", yt.ID)
	assert.True(t, yt.HasNative())

	_, ok = r.Get("netflix")
	assert.False(t, ok)
}

func TestSearchTargets(t *testing.T) {
	sp, ok := Default().Get("spotify")
	require.True(t, ok)

	native, web := sp.SearchTargets("efkar türkü")
	assert.Equal(t, "spotify:search:efkar%20t%C3%BCrk%C3%BC", native)
	assert.Equal(t, "https://open.spotify.com/search/efkar%20t%C3%BCrk%C3%BC", web)

	yt, _ := Default().Get("youtube")
	_, web = yt.SearchTargets("c++ ders")
	assert.Equal(t, "https://www.youtube.com/results?search_query=c%2B%2B%20ders", web)

	g, _ := Default().Get("google")
	native, web = g.SearchTargets("x")
	assert.Empty(t, native)
	assert.Empty(t, web)
}

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := New([]Descriptor{
		{ID: "a", Name: "A", WebURL: "https://a"},
		{ID: "A", Name: "A2", WebURL: "https://a2"},
	})
	require.Error(t, err)

	_, err = New([]Descriptor{{Name: "nameless", WebURL: "https://x"}})
	require.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apps.yaml")
	doc := `apps:
  - id: Netflix
    name: Netflix
    web_url: https://www.netflix.com
    native_url: nflx://
    keywords: [dizi, film]
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	r, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, 1, r.Len())

	n, ok := r.Get("netflix")
	require.True(t, ok)
	assert.Equal(t, []string{"dizi", "film"}, n.Keywords)
	assert.Equal(t, "nflx://", n.NativeURL)
}

func TestLoadFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apps.yaml")
	require.NoError(t, os.WriteFile(path, []byte("apps: []\n"), 0o644))
	_, err := LoadFile(path)
	require.Error(t, err)
}
