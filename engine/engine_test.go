package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spaghettifunk/raycast/engine/core"
	"github.com/spaghettifunk/raycast/engine/renderer"
	"github.com/spaghettifunk/raycast/engine/renderer/metadata"
	"github.com/spaghettifunk/raycast/engine/renderer/rendertest"
	"github.com/spaghettifunk/raycast/engine/systems"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePresenter struct {
	log        *rendertest.Device
	startupErr error
	closeAfter int
	presents   int
	closes     int
}

func (fp *fakePresenter) Startup(title string, width, height int32) error {
	fp.log.Record(fmt.Sprintf("startup %s %dx%d", title, width, height))
	return fp.startupErr
}

func (fp *fakePresenter) ShouldClose() bool {
	return fp.closeAfter > 0 && fp.presents >= fp.closeAfter
}

func (fp *fakePresenter) Present() {
	fp.presents++
	fp.log.Record("present")
}

func (fp *fakePresenter) Close() error {
	fp.closes++
	fp.log.Record("close")
	return nil
}

func writeShaders(t *testing.T, cfg *Config) {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"quad.vert", "quad.frag", "random.glsl", "raytracing.glsl"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("#version 430 core\nvoid main() {}\n"), 0o644))
	}
	cfg.Shaders = ShaderConfig{
		QuadVertex:   filepath.Join(dir, "quad.vert"),
		QuadFragment: filepath.Join(dir, "quad.frag"),
		Compute:      []string{filepath.Join(dir, "random.glsl"), filepath.Join(dir, "raytracing.glsl")},
	}
}

func newTestPipeline(t *testing.T, opts ...Option) (*Pipeline, *rendertest.Device, *fakePresenter) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Watch = false
	writeShaders(t, &cfg)
	return newTestPipelineWithConfig(t, cfg, opts...)
}

func newTestPipelineWithConfig(t *testing.T, cfg Config, opts ...Option) (*Pipeline, *rendertest.Device, *fakePresenter) {
	t.Helper()
	dev := rendertest.NewDevice()
	fp := &fakePresenter{log: dev}
	p, err := New(cfg, fp, func() (renderer.Device, error) { return dev, nil }, opts...)
	require.NoError(t, err)
	return p, dev, fp
}

func indexOf(events []string, prefix string, from int) int {
	for i := from; i < len(events); i++ {
		if strings.HasPrefix(events[i], prefix) {
			return i
		}
	}
	return -1
}

func TestPipelineFrameOrdering(t *testing.T) {
	p, dev, fp := newTestPipeline(t, WithFrameLimit(3))

	require.NoError(t, p.Execute(context.Background()))
	assert.Equal(t, uint64(3), p.Frames())
	assert.Equal(t, 3, fp.presents)

	// Every frame: one dispatch, then one barrier, then the draw, then present.
	events := dev.Events()
	barrier := fmt.Sprintf("barrier %d", systems.ImageBarrierBits)
	pos := 0
	for frame := 0; frame < 3; frame++ {
		dispatch := indexOf(events, "dispatch 68 45 1", pos)
		require.NotEqual(t, -1, dispatch, "frame %d dispatch", frame)
		b := indexOf(events, barrier, dispatch)
		draw := indexOf(events, "draw", dispatch)
		present := indexOf(events, "present", dispatch)
		require.NotEqual(t, -1, b)
		require.NotEqual(t, -1, draw)
		assert.Less(t, b, draw, "frame %d barrier must precede the draw", frame)
		assert.Less(t, draw, present)

		next := indexOf(events, "dispatch", dispatch+1)
		if next != -1 {
			assert.Less(t, present, next)
			assert.Equal(t, 1, count(events[dispatch:next], barrier), "one barrier per frame")
		}
		pos = present
	}
}

func count(events []string, event string) int {
	n := 0
	for _, e := range events {
		if e == event {
			n++
		}
	}
	return n
}

func TestPipelineTeardownReleasesEverythingOnce(t *testing.T) {
	p, dev, fp := newTestPipeline(t, WithFrameLimit(1))

	require.NoError(t, p.Execute(context.Background()))
	assert.Equal(t, StageTerminated, p.Stage())

	// composite program, vao, vbo, target, compute program
	require.Len(t, dev.Deleted, 5)
	kinds := map[metadata.ResourceKind]int{}
	for _, h := range dev.Deleted {
		kinds[h.Kind]++
	}
	assert.Equal(t, 2, kinds[metadata.ResourceKindProgram])
	assert.Equal(t, 1, kinds[metadata.ResourceKindTexture])
	assert.Equal(t, 1, kinds[metadata.ResourceKindVertexArray])
	assert.Equal(t, 1, kinds[metadata.ResourceKindBuffer])

	// Reverse creation order: the compute program was created last.
	assert.Equal(t, metadata.ResourceKindProgram, dev.Deleted[0].Kind)
	assert.Equal(t, metadata.ResourceKindTexture, dev.Deleted[1].Kind)

	p.Shutdown()
	assert.Len(t, dev.Deleted, 5)
	assert.Equal(t, 1, fp.closes)
	assert.Equal(t, "close", dev.Events()[len(dev.Events())-1])
}

func TestPipelineSetupFailure(t *testing.T) {
	p, dev, fp := newTestPipeline(t)
	dev.CompileErrors["raytracing"] = errors.New("0:3: 'imageStore' : no matching overloaded function found")

	err := p.Execute(context.Background())
	require.Error(t, err)

	var setupErr *core.SetupError
	require.True(t, errors.As(err, &setupErr))
	assert.Equal(t, "compute program", setupErr.Op)
	assert.Contains(t, err.Error(), "imageStore")

	assert.Equal(t, StageTerminated, p.Stage())
	assert.Equal(t, -1, indexOf(dev.Events(), "dispatch", 0), "no frame after a failed setup")
	// composite program, vao, vbo and target were created before the failure.
	assert.Len(t, dev.Deleted, 4)
	assert.Equal(t, 1, fp.closes)

	assert.ErrorIs(t, p.Initialize(), core.ErrPipelineTerminated)
	assert.ErrorIs(t, p.Run(context.Background()), core.ErrPipelineTerminated)
	assert.ErrorIs(t, p.RenderFrame(), core.ErrPipelineTerminated)
	assert.Len(t, dev.Deleted, 4)
}

func TestPipelinePresenterFailure(t *testing.T) {
	p, dev, fp := newTestPipeline(t)
	fp.startupErr = errors.New("GLX: no GLXFBConfigs returned")

	err := p.Initialize()
	var setupErr *core.SetupError
	require.True(t, errors.As(err, &setupErr))
	assert.Equal(t, "presenter startup", setupErr.Op)
	assert.Empty(t, dev.Deleted)
	assert.Equal(t, 1, fp.closes)
}

func TestPipelineZeroWorkGroup(t *testing.T) {
	p, dev, _ := newTestPipeline(t)
	dev.WorkGroup = metadata.WorkGroupSize{X: 0, Y: 0, Z: 1}

	err := p.Initialize()
	var invalid *core.InvalidWorkGroupSizeError
	require.True(t, errors.As(err, &invalid))
	assert.Len(t, dev.Deleted, 5)
}

func TestPipelineUploadsCameraUniforms(t *testing.T) {
	p, dev, _ := newTestPipeline(t)
	require.NoError(t, p.Initialize())
	defer p.Shutdown()

	require.NoError(t, p.RenderFrame())

	cam := p.CameraSystem().Get()
	fr, err := cam.Frustum()
	require.NoError(t, err)

	eye := dev.Uniform[0]
	for axis, want := range [3]float64{50, 52, 215.6} {
		assert.InDelta(t, want, float64(eye[axis]), 1e-4)
	}
	for i, ray := range fr.Corners {
		got := dev.Uniform[int32(i+1)]
		for axis := 0; axis < 3; axis++ {
			assert.InDelta(t, ray[axis], float64(got[axis]), 1e-4)
		}
	}
}

func TestPipelineCameraChangeAffectsNextFrame(t *testing.T) {
	p, dev, _ := newTestPipeline(t)
	require.NoError(t, p.Initialize())
	defer p.Shutdown()

	require.NoError(t, p.RenderFrame())
	first := dev.Uniform[1]

	cam := p.CameraSystem().Get()
	cam.Projection.FOV = 90
	require.NoError(t, p.CameraSystem().Set(cam))

	require.NoError(t, p.RenderFrame())
	assert.NotEqual(t, first, dev.Uniform[1])
}

// swapDevice runs onUse before every UseProgram call.
type swapDevice struct {
	*rendertest.Device
	onUse func(program uint32)
}

func (d *swapDevice) UseProgram(program uint32) {
	if d.onUse != nil {
		d.onUse(program)
	}
	d.Device.UseProgram(program)
}

func TestPipelineUniformsComeFromOneCamera(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Watch = false
	writeShaders(t, &cfg)

	dev := &swapDevice{Device: rendertest.NewDevice()}
	fp := &fakePresenter{log: dev.Device}
	p, err := New(cfg, fp, func() (renderer.Device, error) { return dev, nil })
	require.NoError(t, err)
	require.NoError(t, p.Initialize())
	defer p.Shutdown()

	before := p.CameraSystem().Get()
	want, err := before.Frustum()
	require.NoError(t, err)

	moved := before
	moved.Eye.Position = mgl64.Vec3{10, 20, 100}
	swapped := false
	dev.onUse = func(program uint32) {
		if !swapped && program == p.compute.Program.ID {
			swapped = true
			require.NoError(t, p.CameraSystem().Set(moved))
		}
	}

	require.NoError(t, p.RenderFrame())
	require.True(t, swapped)

	eye := dev.Uniform[0]
	for axis := 0; axis < 3; axis++ {
		assert.InDelta(t, before.Eye.Position[axis], float64(eye[axis]), 1e-4, "eye axis %d", axis)
	}
	for i, ray := range want.Corners {
		got := dev.Uniform[int32(i+1)]
		for axis := 0; axis < 3; axis++ {
			assert.InDelta(t, ray[axis], float64(got[axis]), 1e-4, "ray %d axis %d", i, axis)
		}
	}

	// The update lands on the next frame.
	require.NoError(t, p.RenderFrame())
	eye = dev.Uniform[0]
	for axis := 0; axis < 3; axis++ {
		assert.InDelta(t, moved.Eye.Position[axis], float64(eye[axis]), 1e-4, "eye axis %d", axis)
	}
}

func TestPipelineFrameErrorTearsDown(t *testing.T) {
	p, dev, fp := newTestPipeline(t)
	require.NoError(t, p.Initialize())

	p.compute.WorkGroupSize = metadata.WorkGroupSize{}
	err := p.Run(context.Background())

	var invalid *core.InvalidWorkGroupSizeError
	require.True(t, errors.As(err, &invalid), "got %v", err)
	assert.Equal(t, StageTerminated, p.Stage())
	assert.Len(t, dev.Deleted, 5)
	assert.Equal(t, 1, fp.closes)
	assert.Equal(t, uint64(0), p.Frames())
	assert.ErrorIs(t, p.RenderFrame(), core.ErrPipelineTerminated)
}

func TestPipelineStopsOnClose(t *testing.T) {
	p, _, fp := newTestPipeline(t)
	fp.closeAfter = 2

	require.NoError(t, p.Execute(context.Background()))
	assert.Equal(t, uint64(2), p.Frames())
}

func TestPipelineStopsOnCancel(t *testing.T) {
	p, dev, fp := newTestPipeline(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.Execute(ctx))
	assert.Equal(t, uint64(0), p.Frames())
	assert.Equal(t, 1, fp.closes)
	assert.Len(t, dev.Deleted, 5)
}

func TestPipelineQuitKey(t *testing.T) {
	bus := core.NewEventBus()
	p, _, _ := newTestPipeline(t, WithEventBus(bus))
	require.NoError(t, p.Initialize())

	require.NoError(t, p.RenderFrame())
	assert.True(t, bus.Fire(core.EVENT_CODE_KEY_PRESSED, core.EventContext{Key: core.KEY_Q}))

	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, uint64(1), p.Frames())
	assert.Equal(t, StageTerminated, p.Stage())
}

func TestPipelineRequiresInitialize(t *testing.T) {
	p, _, _ := newTestPipeline(t)
	assert.ErrorIs(t, p.RenderFrame(), core.ErrNotInitialized)
	assert.ErrorIs(t, p.Run(context.Background()), core.ErrNotInitialized)
}

func TestPipelineCapture(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Watch = false
	cfg.Window.Width, cfg.Window.Height = 4, 2
	cfg.CapturePath = filepath.Join(t.TempDir(), "frame.png")
	writeShaders(t, &cfg)

	p, dev, _ := newTestPipelineWithConfig(t, cfg, WithFrameLimit(2))
	require.NoError(t, p.Execute(context.Background()))

	_, err := os.Stat(cfg.CapturePath)
	require.NoError(t, err)

	events := dev.Events()
	read := indexOf(events, "read texture", 0)
	require.NotEqual(t, -1, read)
	assert.Less(t, indexOf(events, "barrier", 0), read)
	assert.Less(t, read, indexOf(events, "present", 0))
	assert.Equal(t, 1, count(events, events[read]), "capture_path is written once")
}

func TestPipelineReloadConfig(t *testing.T) {
	p, _, _ := newTestPipeline(t)
	path := filepath.Join(t.TempDir(), "raycast.toml")

	shaders := p.config.Shaders
	quoted := make([]string, len(shaders.Compute))
	for i, c := range shaders.Compute {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	write := func(fov float64) {
		data := fmt.Sprintf("[camera]\nfov = %g\n[shaders]\nquad_vertex = %q\nquad_fragment = %q\ncompute = [%s]\n",
			fov, shaders.QuadVertex, shaders.QuadFragment, strings.Join(quoted, ", "))
		require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	}

	write(60)
	p.reloadConfig(path)
	assert.Equal(t, 60.0, p.CameraSystem().Get().Projection.FOV)
	assert.Equal(t, uint64(1), p.CameraSystem().Updates())

	write(180)
	p.reloadConfig(path)
	assert.Equal(t, 60.0, p.CameraSystem().Get().Projection.FOV, "degenerate reload keeps the old camera")

	require.NoError(t, os.WriteFile(path, []byte("not = [valid"), 0o644))
	p.reloadConfig(path)
	assert.Equal(t, uint64(1), p.CameraSystem().Updates())

}
