package materializer_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/mediabridge/pkg/materializer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanName(t *testing.T) {
	tests := map[string]string{
		"Image Gen":   "Image_Gen",
		"a/b\\c":      "a_b_c",
		"ok-name_1.2": "ok-name_1.2",
		"Résumé":      "R_sum_",
		"":            "",
	}
	for in, want := range tests {
		assert.Equal(t, want, materializer.CleanName(in), in)
	}
}

func TestStablePath(t *testing.T) {
	got := materializer.StablePath("/out", "My Strip", "Upscale x4", "Image", "abc-123", ".png")
	assert.Equal(t, filepath.Join("/out", "My_Strip_Upscale_x4_Image_abc-123.png"), got)
}

func TestPurge(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a_gen_out_ID1.png", "b_gen_out_ID1.wav", "c_gen_out_ID2.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "ID1_dir"), 0755))

	removed, err := materializer.Purge(dir, "ID1")
	require.NoError(t, err)
	assert.Len(t, removed, 2)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"c_gen_out_ID2.png", "ID1_dir"}, names)

	t.Run("Missing Directory", func(t *testing.T) {
		removed, err := materializer.Purge(filepath.Join(dir, "nope"), "ID1")
		assert.NoError(t, err)
		assert.Empty(t, removed)
	})

	t.Run("Empty ID Matches Nothing", func(t *testing.T) {
		removed, err := materializer.Purge(dir, "")
		assert.NoError(t, err)
		assert.Empty(t, removed)
	})
}

func TestMove(t *testing.T) {
	src := filepath.Join(t.TempDir(), "gen.png")
	require.NoError(t, os.WriteFile(src, []byte("pixels"), 0644))
	dst := filepath.Join(t.TempDir(), "stable.png")

	require.NoError(t, materializer.Move(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(data))
	_, err = os.Stat(src)
	assert.ErrorIs(t, err, os.ErrNotExist)

	t.Run("Missing Source", func(t *testing.T) {
		assert.Error(t, materializer.Move(src, dst))
	})
}
