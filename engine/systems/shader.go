package systems

import (
	"errors"

	"github.com/spaghettifunk/raycast/engine/assets/loaders"
	"github.com/spaghettifunk/raycast/engine/core"
	"github.com/spaghettifunk/raycast/engine/renderer"
	"github.com/spaghettifunk/raycast/engine/renderer/metadata"
)

/** @brief Configuration for the shader system. */
type ShaderSystemConfig struct {
	/** @brief Path of the composite vertex shader. */
	QuadVertex string
	/** @brief Path of the composite fragment shader. */
	QuadFragment string
	/** @brief Paths of the compute sources, concatenated in this order. */
	Compute []string
}

type ShaderSystem struct {
	config   *ShaderSystemConfig
	loader   *loaders.ShaderLoader
	device   renderer.Device
	registry *ResourceRegistry
}

func NewShaderSystem(config *ShaderSystemConfig, device renderer.Device, registry *ResourceRegistry) (*ShaderSystem, error) {
	if config.QuadVertex == "" || config.QuadFragment == "" {
		err := errors.New("NewShaderSystem - composite vertex and fragment shaders must be set")
		core.LogError(err.Error())
		return nil, err
	}
	if len(config.Compute) == 0 {
		err := errors.New("NewShaderSystem - at least one compute source is required")
		core.LogError(err.Error())
		return nil, err
	}
	return &ShaderSystem{
		config:   config,
		loader:   &loaders.ShaderLoader{},
		device:   device,
		registry: registry,
	}, nil
}

/**
 * @brief Compiles the program that samples the compute target onto the
 * full-screen quad and resolves its position attribute. The quad itself is
 * created by the geometry system.
 */
func (ss *ShaderSystem) CompileComposite() (metadata.CompositeBindings, error) {
	vert, err := ss.loader.Load(metadata.ShaderStageVertex, ss.config.QuadVertex)
	if err != nil {
		return metadata.CompositeBindings{}, err
	}
	frag, err := ss.loader.Load(metadata.ShaderStageFragment, ss.config.QuadFragment)
	if err != nil {
		return metadata.CompositeBindings{}, err
	}

	program, err := ss.compile("composite", vert, frag)
	if err != nil {
		return metadata.CompositeBindings{}, err
	}

	return metadata.CompositeBindings{
		Program:  program,
		Position: ss.device.AttribLocation(program.ID, metadata.AttributePosition),
	}, nil
}

/**
 * @brief Compiles the ray tracing kernel, queries its local size and
 * resolves the camera uniforms.
 */
func (ss *ShaderSystem) CompileCompute() (metadata.ComputeBindings, error) {
	src, err := ss.loader.Load(metadata.ShaderStageCompute, ss.config.Compute...)
	if err != nil {
		return metadata.ComputeBindings{}, err
	}

	program, err := ss.compile("raytracing", src)
	if err != nil {
		return metadata.ComputeBindings{}, err
	}

	wg := ss.device.WorkGroupSize(program.ID)
	if wg.X <= 0 || wg.Y <= 0 {
		return metadata.ComputeBindings{}, &core.InvalidWorkGroupSizeError{X: wg.X, Y: wg.Y}
	}
	core.LogDebug("compute program %s local size (%d, %d, %d)", program, wg.X, wg.Y, wg.Z)

	bindings := metadata.ComputeBindings{
		Program:       program,
		WorkGroupSize: wg,
		Eye:           ss.uniform(program, metadata.UniformEye),
	}
	for i, name := range [4]string{metadata.UniformRay00, metadata.UniformRay01, metadata.UniformRay10, metadata.UniformRay11} {
		bindings.Rays[i] = ss.uniform(program, name)
	}
	return bindings, nil
}

func (ss *ShaderSystem) compile(name string, sources ...metadata.ShaderSource) (metadata.ResourceHandle, error) {
	id, err := ss.device.CompileProgram(name, sources)
	if err != nil {
		core.LogError("failed to build %s program: %s", name, err)
		return metadata.ResourceHandle{}, err
	}
	return track(ss.device, ss.registry, metadata.ResourceKindProgram, id, name), nil
}

// uniform resolves a location. Uniforms the compiler optimized away are not
// an error: uploads to InvalidLocation are ignored by the GL.
func (ss *ShaderSystem) uniform(program metadata.ResourceHandle, name string) int32 {
	loc := ss.device.UniformLocation(program.ID, name)
	if loc == metadata.InvalidLocation {
		core.LogWarn("uniform %q not active in program %s", name, program)
	}
	return loc
}
