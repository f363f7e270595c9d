package renderer

import "github.com/spaghettifunk/raycast/engine/renderer/metadata"

// BarrierBits selects which kinds of incoherent memory access a barrier
// orders. Backends translate them to their native flags.
type BarrierBits uint32

const (
	BarrierShaderImageAccess BarrierBits = 1 << iota
	BarrierTextureFetch
	BarrierTextureUpdate
)

// ShaderCompiler compiles and links a program from its stage sources.
type ShaderCompiler interface {
	CompileProgram(name string, sources []metadata.ShaderSource) (uint32, error)
}

// Releaser destroys a single GPU object.
type Releaser interface {
	Delete(handle metadata.ResourceHandle) error
}

// CommandQueue is the part of the device that the frame synchronizer drives.
type CommandQueue interface {
	DispatchCompute(x, y, z uint32)
	MemoryBarrier(bits BarrierBits)
}

// Device is the GPU command surface used by the frame pipeline. All calls
// must happen on the thread owning the context.
type Device interface {
	ShaderCompiler
	Releaser
	CommandQueue

	NewVertexArray() (uint32, error)
	NewVertexBuffer(data []float32) (uint32, error)
	VertexAttribPointer(vao, vbo, location uint32, components int32)
	NewComputeTexture(width, height int32, format metadata.TextureFormat) (uint32, error)
	ClearTexture(texture uint32)
	Label(handle metadata.ResourceHandle, label string)

	AttribLocation(program uint32, name string) int32
	UniformLocation(program uint32, name string) int32
	WorkGroupSize(program uint32) metadata.WorkGroupSize

	UseProgram(program uint32)
	Uniform3f(location int32, x, y, z float32)
	BindImageTexture(unit, texture uint32, format metadata.TextureFormat)
	UnbindImageTexture(unit uint32)
	ClearFramebuffer()
	BindTexture(texture uint32)
	DrawArrays(vao uint32, topology metadata.Topology, count int32)
	ReadTexture(texture uint32, width, height int32) ([]float32, error)
}
