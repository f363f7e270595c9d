package loaders

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spaghettifunk/raycast/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShaderLoaderHoistsVersion(t *testing.T) {
	dir := t.TempDir()
	random := filepath.Join(dir, "random.glsl")
	kernel := filepath.Join(dir, "raytracing.glsl")
	require.NoError(t, os.WriteFile(random, []byte("float random(vec2 f) { return 0.0; }\n"), 0o644))
	require.NoError(t, os.WriteFile(kernel, []byte("#version 430 core\nvoid main() {}\n"), 0o644))

	sl := &ShaderLoader{}
	src, err := sl.Load(metadata.ShaderStageCompute, random, kernel)
	require.NoError(t, err)

	assert.Equal(t, metadata.ShaderStageCompute, src.Stage)
	assert.Equal(t, "random.glsl+raytracing.glsl", src.Name)
	assert.True(t, strings.HasPrefix(src.Source, "#version 430 core\n"))
	assert.Equal(t, 1, strings.Count(src.Source, "#version"))
	assert.Less(t, strings.Index(src.Source, "random"), strings.Index(src.Source, "main"))
}

func TestConcatSourcesWithoutVersion(t *testing.T) {
	assert.Equal(t, "a\n\nb\n", concatSources([]string{"a\n", "b"}))
}

func TestConcatSourcesKeepsFirstVersion(t *testing.T) {
	got := concatSources([]string{"  #version 450\nx", "#version 430 core\ny"})
	assert.Equal(t, "#version 450\nx\ny\n", got)
}

func TestShaderLoaderErrors(t *testing.T) {
	sl := &ShaderLoader{}
	_, err := sl.Load(metadata.ShaderStageVertex)
	assert.Error(t, err)

	_, err = sl.Load(metadata.ShaderStageVertex, filepath.Join(t.TempDir(), "missing.vert"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
