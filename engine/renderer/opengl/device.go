package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.3-core/gl"

	"github.com/spaghettifunk/raycast/engine/core"
	"github.com/spaghettifunk/raycast/engine/renderer"
	"github.com/spaghettifunk/raycast/engine/renderer/metadata"
)

var _ renderer.Device = (*Device)(nil)

// Device issues GL 4.3 core commands. It must be created and used on the
// thread that owns the current context, after gl.Init.
type Device struct {
	textures map[uint32][2]int32
}

func NewDevice() (*Device, error) {
	var major, minor int32
	gl.GetIntegerv(gl.MAJOR_VERSION, &major)
	gl.GetIntegerv(gl.MINOR_VERSION, &minor)
	if major < 4 || (major == 4 && minor < 3) {
		return nil, fmt.Errorf("compute shaders need OpenGL 4.3, context is %d.%d", major, minor)
	}
	core.LogInfo("OpenGL %s on %s", gl.GoStr(gl.GetString(gl.VERSION)), gl.GoStr(gl.GetString(gl.RENDERER)))
	return &Device{textures: make(map[uint32][2]int32)}, nil
}

func (d *Device) NewVertexArray() (uint32, error) {
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	if vao == metadata.InvalidID {
		return 0, glError("glGenVertexArrays")
	}
	return vao, nil
}

func (d *Device) NewVertexBuffer(data []float32) (uint32, error) {
	var vbo uint32
	gl.GenBuffers(1, &vbo)
	if vbo == metadata.InvalidID {
		return 0, glError("glGenBuffers")
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return vbo, checkError("glBufferData")
}

func (d *Device) VertexAttribPointer(vao, vbo, location uint32, components int32) {
	gl.BindVertexArray(vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.EnableVertexAttribArray(location)
	gl.VertexAttribPointer(location, components, gl.FLOAT, false, 0, nil)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
}

func (d *Device) NewComputeTexture(width, height int32, format metadata.TextureFormat) (uint32, error) {
	var tex uint32
	gl.GenTextures(1, &tex)
	if tex == metadata.InvalidID {
		return 0, glError("glGenTextures")
	}
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexStorage2D(gl.TEXTURE_2D, 1, internalFormat(format), width, height)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	if err := checkError("glTexStorage2D"); err != nil {
		gl.DeleteTextures(1, &tex)
		return 0, err
	}
	d.textures[tex] = [2]int32{width, height}
	return tex, nil
}

// ClearTexture zeroes every texel. glClearTexImage needs 4.4, so the
// zeroes are uploaded instead.
func (d *Device) ClearTexture(texture uint32) {
	size, ok := d.textures[texture]
	if !ok {
		core.LogWarn("ClearTexture - unknown texture %d", texture)
		return
	}
	zero := make([]float32, int(size[0])*int(size[1])*4)
	gl.BindTexture(gl.TEXTURE_2D, texture)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, size[0], size[1], gl.RGBA, gl.FLOAT, gl.Ptr(zero))
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

func (d *Device) Label(handle metadata.ResourceHandle, label string) {
	gl.ObjectLabel(labelNamespace(handle.Kind), handle.ID, int32(len(label)), gl.Str(label+"\x00"))
}

func (d *Device) AttribLocation(program uint32, name string) int32 {
	return gl.GetAttribLocation(program, gl.Str(name+"\x00"))
}

func (d *Device) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (d *Device) WorkGroupSize(program uint32) metadata.WorkGroupSize {
	var size [3]int32
	gl.GetProgramiv(program, gl.COMPUTE_WORK_GROUP_SIZE, &size[0])
	return metadata.WorkGroupSize{X: size[0], Y: size[1], Z: size[2]}
}

func (d *Device) UseProgram(program uint32) {
	gl.UseProgram(program)
}

func (d *Device) Uniform3f(location int32, x, y, z float32) {
	gl.Uniform3f(location, x, y, z)
}

func (d *Device) BindImageTexture(unit, texture uint32, format metadata.TextureFormat) {
	gl.BindImageTexture(unit, texture, 0, false, 0, gl.WRITE_ONLY, internalFormat(format))
}

func (d *Device) UnbindImageTexture(unit uint32) {
	gl.BindImageTexture(unit, 0, 0, false, 0, gl.READ_WRITE, gl.RGBA32F)
}

func (d *Device) DispatchCompute(x, y, z uint32) {
	gl.DispatchCompute(x, y, z)
}

func (d *Device) MemoryBarrier(bits renderer.BarrierBits) {
	var glBits uint32
	if bits&renderer.BarrierShaderImageAccess != 0 {
		glBits |= gl.SHADER_IMAGE_ACCESS_BARRIER_BIT
	}
	if bits&renderer.BarrierTextureFetch != 0 {
		glBits |= gl.TEXTURE_FETCH_BARRIER_BIT
	}
	if bits&renderer.BarrierTextureUpdate != 0 {
		glBits |= gl.TEXTURE_UPDATE_BARRIER_BIT
	}
	gl.MemoryBarrier(glBits)
}

func (d *Device) ClearFramebuffer() {
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

func (d *Device) BindTexture(texture uint32) {
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, texture)
}

func (d *Device) DrawArrays(vao uint32, topology metadata.Topology, count int32) {
	mode := uint32(gl.TRIANGLES)
	if topology == metadata.TopologyTriangleStrip {
		mode = gl.TRIANGLE_STRIP
	}
	gl.BindVertexArray(vao)
	gl.DrawArrays(mode, 0, count)
	gl.BindVertexArray(0)
}

func (d *Device) ReadTexture(texture uint32, width, height int32) ([]float32, error) {
	pixels := make([]float32, int(width)*int(height)*4)
	gl.BindTexture(gl.TEXTURE_2D, texture)
	gl.GetTexImage(gl.TEXTURE_2D, 0, gl.RGBA, gl.FLOAT, gl.Ptr(pixels))
	gl.BindTexture(gl.TEXTURE_2D, 0)
	if err := checkError("glGetTexImage"); err != nil {
		return nil, err
	}
	return pixels, nil
}

// Delete destroys a single object. Deleting a name the GL does not know is
// silently ignored by the driver, so only real GL errors are reported.
func (d *Device) Delete(handle metadata.ResourceHandle) error {
	id := handle.ID
	switch handle.Kind {
	case metadata.ResourceKindVertexArray:
		gl.DeleteVertexArrays(1, &id)
	case metadata.ResourceKindBuffer:
		gl.DeleteBuffers(1, &id)
	case metadata.ResourceKindTexture:
		gl.DeleteTextures(1, &id)
		delete(d.textures, id)
	case metadata.ResourceKindProgram:
		gl.DeleteProgram(id)
	default:
		return fmt.Errorf("unknown resource kind %s", handle.Kind)
	}
	return checkError("delete " + handle.String())
}

func internalFormat(format metadata.TextureFormat) uint32 {
	switch format {
	case metadata.TextureFormatRGBA32F:
		return gl.RGBA32F
	default:
		core.LogWarn("unknown texture format %d, using RGBA32F", format)
		return gl.RGBA32F
	}
}

func labelNamespace(kind metadata.ResourceKind) uint32 {
	switch kind {
	case metadata.ResourceKindVertexArray:
		return gl.VERTEX_ARRAY
	case metadata.ResourceKindBuffer:
		return gl.BUFFER
	case metadata.ResourceKindTexture:
		return gl.TEXTURE
	default:
		return gl.PROGRAM
	}
}
