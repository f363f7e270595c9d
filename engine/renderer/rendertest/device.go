// Package rendertest provides an in-memory renderer.Device that records
// every command it receives, for tests that cannot open a GL context.
package rendertest

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/raycast/engine/renderer"
	"github.com/spaghettifunk/raycast/engine/renderer/metadata"
)

var _ renderer.Device = (*Device)(nil)

type Device struct {
	mu     sync.Mutex
	nextID uint32
	events []string

	// WorkGroup is reported for every program.
	WorkGroup metadata.WorkGroupSize
	// CompileErrors fails CompileProgram for the given program names.
	CompileErrors map[string]error
	// DeleteErrors fails Delete for the given handles.
	DeleteErrors map[metadata.ResourceHandle]error
	// MissingUniforms are reported as inactive.
	MissingUniforms map[string]bool
	// MissingAttribute makes AttribLocation return InvalidLocation.
	MissingAttribute bool
	// Pixels is returned by ReadTexture when set.
	Pixels []float32

	Deleted []metadata.ResourceHandle
	Labels  map[metadata.ResourceHandle]string
	Uniform map[int32][3]float32
}

func NewDevice() *Device {
	return &Device{
		WorkGroup:       metadata.WorkGroupSize{X: 16, Y: 16, Z: 1},
		CompileErrors:   map[string]error{},
		DeleteErrors:    map[metadata.ResourceHandle]error{},
		MissingUniforms: map[string]bool{},
		Labels:          map[metadata.ResourceHandle]string{},
		Uniform:         map[int32][3]float32{},
	}
}

// Events returns a copy of the recorded command log.
func (d *Device) Events() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.events...)
}

// Record appends an event from a collaborator (a fake presenter, say) so
// that its calls interleave with the device commands in one log.
func (d *Device) Record(event string) {
	d.record("%s", event)
}

func (d *Device) record(format string, args ...interface{}) {
	d.mu.Lock()
	d.events = append(d.events, fmt.Sprintf(format, args...))
	d.mu.Unlock()
}

func (d *Device) id() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	return d.nextID
}

func (d *Device) CompileProgram(name string, sources []metadata.ShaderSource) (uint32, error) {
	if err := d.CompileErrors[name]; err != nil {
		d.record("compile %s failed", name)
		return 0, err
	}
	id := d.id()
	d.record("compile %s -> %d", name, id)
	return id, nil
}

func (d *Device) Delete(handle metadata.ResourceHandle) error {
	d.record("delete %s", handle)
	if err := d.DeleteErrors[handle]; err != nil {
		return err
	}
	d.mu.Lock()
	d.Deleted = append(d.Deleted, handle)
	d.mu.Unlock()
	return nil
}

func (d *Device) DispatchCompute(x, y, z uint32) {
	d.record("dispatch %d %d %d", x, y, z)
}

func (d *Device) MemoryBarrier(bits renderer.BarrierBits) {
	d.record("barrier %d", bits)
}

func (d *Device) NewVertexArray() (uint32, error) {
	id := d.id()
	d.record("new vertex-array %d", id)
	return id, nil
}

func (d *Device) NewVertexBuffer(data []float32) (uint32, error) {
	id := d.id()
	d.record("new buffer %d (%d floats)", id, len(data))
	return id, nil
}

func (d *Device) VertexAttribPointer(vao, vbo, location uint32, components int32) {
	d.record("attrib %d vao=%d vbo=%d components=%d", location, vao, vbo, components)
}

func (d *Device) NewComputeTexture(width, height int32, format metadata.TextureFormat) (uint32, error) {
	id := d.id()
	d.record("new texture %d %dx%d", id, width, height)
	return id, nil
}

func (d *Device) ClearTexture(texture uint32) {
	d.record("clear texture %d", texture)
}

func (d *Device) Label(handle metadata.ResourceHandle, label string) {
	d.mu.Lock()
	d.Labels[handle] = label
	d.mu.Unlock()
}

func (d *Device) AttribLocation(program uint32, name string) int32 {
	if d.MissingAttribute {
		return metadata.InvalidLocation
	}
	return 0
}

func (d *Device) UniformLocation(program uint32, name string) int32 {
	if d.MissingUniforms[name] {
		return metadata.InvalidLocation
	}
	switch name {
	case metadata.UniformEye:
		return 0
	case metadata.UniformRay00:
		return 1
	case metadata.UniformRay01:
		return 2
	case metadata.UniformRay10:
		return 3
	case metadata.UniformRay11:
		return 4
	}
	return metadata.InvalidLocation
}

func (d *Device) WorkGroupSize(program uint32) metadata.WorkGroupSize {
	return d.WorkGroup
}

func (d *Device) UseProgram(program uint32) {
	d.record("use program %d", program)
}

func (d *Device) Uniform3f(location int32, x, y, z float32) {
	d.mu.Lock()
	d.Uniform[location] = [3]float32{x, y, z}
	d.mu.Unlock()
	d.record("uniform %d", location)
}

func (d *Device) BindImageTexture(unit, texture uint32, format metadata.TextureFormat) {
	d.record("bind image %d -> %d", texture, unit)
}

func (d *Device) UnbindImageTexture(unit uint32) {
	d.record("unbind image %d", unit)
}

func (d *Device) ClearFramebuffer() {
	d.record("clear framebuffer")
}

func (d *Device) BindTexture(texture uint32) {
	d.record("bind texture %d", texture)
}

func (d *Device) DrawArrays(vao uint32, topology metadata.Topology, count int32) {
	d.record("draw vao=%d count=%d", vao, count)
}

func (d *Device) ReadTexture(texture uint32, width, height int32) ([]float32, error) {
	d.record("read texture %d", texture)
	if d.Pixels != nil {
		return d.Pixels, nil
	}
	return make([]float32, int(width)*int(height)*4), nil
}
