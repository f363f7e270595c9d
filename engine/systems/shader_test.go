package systems

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/raycast/engine/core"
	"github.com/spaghettifunk/raycast/engine/renderer/metadata"
	"github.com/spaghettifunk/raycast/engine/renderer/rendertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeShaders(t *testing.T) *ShaderSystemConfig {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"quad.vert":       "#version 430 core\nin vec2 a_Position;\nvoid main() {}\n",
		"quad.frag":       "#version 430 core\nvoid main() {}\n",
		"random.glsl":     "float random(vec2 f) { return 0.0; }\n",
		"raytracing.glsl": "#version 430 core\nlayout(local_size_x = 16, local_size_y = 16) in;\nvoid main() {}\n",
	}
	for name, src := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
	}
	return &ShaderSystemConfig{
		QuadVertex:   filepath.Join(dir, "quad.vert"),
		QuadFragment: filepath.Join(dir, "quad.frag"),
		Compute:      []string{filepath.Join(dir, "random.glsl"), filepath.Join(dir, "raytracing.glsl")},
	}
}

func TestShaderSystemCompileCompute(t *testing.T) {
	dev := rendertest.NewDevice()
	rr := NewResourceRegistry(dev)
	ss, err := NewShaderSystem(writeShaders(t), dev, rr)
	require.NoError(t, err)

	bindings, err := ss.CompileCompute()
	require.NoError(t, err)

	assert.Equal(t, metadata.ResourceKindProgram, bindings.Program.Kind)
	assert.True(t, rr.Contains(bindings.Program))
	assert.NotEmpty(t, dev.Labels[bindings.Program])
	assert.Equal(t, metadata.WorkGroupSize{X: 16, Y: 16, Z: 1}, bindings.WorkGroupSize)
	assert.Equal(t, int32(0), bindings.Eye)
	assert.Equal(t, [4]int32{1, 2, 3, 4}, bindings.Rays)
}

func TestShaderSystemCompileComposite(t *testing.T) {
	dev := rendertest.NewDevice()
	rr := NewResourceRegistry(dev)
	ss, err := NewShaderSystem(writeShaders(t), dev, rr)
	require.NoError(t, err)

	bindings, err := ss.CompileComposite()
	require.NoError(t, err)
	assert.True(t, rr.Contains(bindings.Program))
	assert.Equal(t, int32(0), bindings.Position)
}

func TestShaderSystemRejectsZeroWorkGroup(t *testing.T) {
	dev := rendertest.NewDevice()
	dev.WorkGroup = metadata.WorkGroupSize{}
	rr := NewResourceRegistry(dev)
	ss, err := NewShaderSystem(writeShaders(t), dev, rr)
	require.NoError(t, err)

	_, err = ss.CompileCompute()
	var invalid *core.InvalidWorkGroupSizeError
	require.True(t, errors.As(err, &invalid))

	// The program was created, so it still has to be released.
	assert.Equal(t, 1, rr.Len())
}

func TestShaderSystemCompileFailure(t *testing.T) {
	dev := rendertest.NewDevice()
	dev.CompileErrors["raytracing"] = errors.New("0:12: syntax error")
	rr := NewResourceRegistry(dev)
	ss, err := NewShaderSystem(writeShaders(t), dev, rr)
	require.NoError(t, err)

	_, err = ss.CompileCompute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "syntax error")
	assert.Equal(t, 0, rr.Len())
}

func TestShaderSystemMissingUniformIsTolerated(t *testing.T) {
	dev := rendertest.NewDevice()
	dev.MissingUniforms[metadata.UniformRay10] = true
	ss, err := NewShaderSystem(writeShaders(t), dev, NewResourceRegistry(dev))
	require.NoError(t, err)

	bindings, err := ss.CompileCompute()
	require.NoError(t, err)
	assert.Equal(t, metadata.InvalidLocation, bindings.Rays[2])
}

func TestShaderSystemMissingFile(t *testing.T) {
	cfg := writeShaders(t)
	cfg.Compute = append(cfg.Compute, filepath.Join(t.TempDir(), "nope.glsl"))
	dev := rendertest.NewDevice()
	ss, err := NewShaderSystem(cfg, dev, NewResourceRegistry(dev))
	require.NoError(t, err)

	_, err = ss.CompileCompute()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewShaderSystemValidatesConfig(t *testing.T) {
	dev := rendertest.NewDevice()
	_, err := NewShaderSystem(&ShaderSystemConfig{QuadVertex: "a", QuadFragment: "b"}, dev, NewResourceRegistry(dev))
	assert.Error(t, err)
	_, err = NewShaderSystem(&ShaderSystemConfig{Compute: []string{"c"}}, dev, NewResourceRegistry(dev))
	assert.Error(t, err)
}
