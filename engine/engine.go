package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/raycast/engine/assets"
	"github.com/spaghettifunk/raycast/engine/assets/loaders"
	"github.com/spaghettifunk/raycast/engine/core"
	"github.com/spaghettifunk/raycast/engine/platform"
	"github.com/spaghettifunk/raycast/engine/renderer"
	"github.com/spaghettifunk/raycast/engine/renderer/metadata"
	"github.com/spaghettifunk/raycast/engine/systems"
)

type Stage uint8

const (
	// Pipeline created, nothing on the GPU yet
	StageUninitialized Stage = iota
	// Context, programs, quad and compute target are ready
	StageInitialized
	// Frame loop is running
	StageRunning
	// Releasing GPU objects and closing the presenter
	StageTerminating
	// Everything released; the pipeline cannot be used again
	StageTerminated
)

func (s Stage) String() string {
	switch s {
	case StageUninitialized:
		return "uninitialized"
	case StageInitialized:
		return "initialized"
	case StageRunning:
		return "running"
	case StageTerminating:
		return "terminating"
	case StageTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("stage(%d)", uint8(s))
	}
}

// DeviceFactory creates the GPU device. It is called after the presenter has
// made its context current.
type DeviceFactory func() (renderer.Device, error)

type Option func(*Pipeline)

// WithConfigPath records where the config came from so it can be watched.
func WithConfigPath(path string) Option {
	return func(p *Pipeline) {
		p.configPath = path
	}
}

// WithFrameLimit stops the loop after n frames. Zero means no limit.
func WithFrameLimit(n uint64) Option {
	return func(p *Pipeline) {
		p.frameLimit = n
	}
}

// WithEventBus shares the bus the presenter fires key events on.
func WithEventBus(bus *core.EventBus) Option {
	return func(p *Pipeline) {
		p.events = bus
	}
}

// Pipeline drives one compute dispatch and one composite draw per frame.
// All methods except those of the config watcher run on the thread that
// owns the GL context.
type Pipeline struct {
	config     Config
	configPath string
	frameLimit uint64
	stage      Stage

	presenter platform.Presenter
	newDevice DeviceFactory
	device    renderer.Device
	events    *core.EventBus
	watcher   *assets.ConfigWatcher

	registry     *systems.ResourceRegistry
	cameraSystem *systems.CameraSystem
	synchronizer *systems.FrameSynchronizer

	compute   metadata.ComputeBindings
	composite metadata.CompositeBindings
	target    metadata.ComputeTarget

	imageWriter *loaders.ImageWriter
	clock       *core.Clock
	metrics     *core.Metrics

	quitRequested    atomic.Bool
	captureRequested atomic.Bool
	captured         bool
}

func New(cfg Config, presenter platform.Presenter, newDevice DeviceFactory, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	// Validate has already rejected unknown levels.
	if level, err := core.ParseLogLevel(cfg.LogLevel); err == nil {
		core.SetLogLevel(level)
	}

	p := &Pipeline{
		config:       cfg,
		stage:        StageUninitialized,
		presenter:    presenter,
		newDevice:    newDevice,
		cameraSystem: systems.NewCameraSystem(cfg.CameraFor(cfg.Window)),
		imageWriter:  &loaders.ImageWriter{},
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.events == nil {
		p.events = core.NewEventBus()
	}
	return p, nil
}

func (p *Pipeline) Stage() Stage {
	return p.stage
}

// Frames is the number of completed frames.
func (p *Pipeline) Frames() uint64 {
	if p.synchronizer == nil {
		return 0
	}
	return p.synchronizer.Frames()
}

func (p *Pipeline) CameraSystem() *systems.CameraSystem {
	return p.cameraSystem
}

// Initialize creates every GPU object the frame loop needs. Any failure is
// returned as a *core.SetupError after the pipeline has been torn down.
func (p *Pipeline) Initialize() error {
	switch p.stage {
	case StageUninitialized:
	case StageTerminating, StageTerminated:
		return core.ErrPipelineTerminated
	default:
		return fmt.Errorf("pipeline already %s", p.stage)
	}

	fail := func(op string, err error) error {
		setupErr := &core.SetupError{Op: op, Err: err}
		core.LogError(setupErr.Error())
		p.Shutdown()
		return setupErr
	}

	win := p.config.Window
	if err := p.presenter.Startup(win.Title, win.Width, win.Height); err != nil {
		return fail("presenter startup", err)
	}

	device, err := p.newDevice()
	if err != nil {
		return fail("device", err)
	}
	p.device = device
	p.registry = systems.NewResourceRegistry(device)
	p.synchronizer = systems.NewFrameSynchronizer(device)

	shaderSystem, err := systems.NewShaderSystem(&systems.ShaderSystemConfig{
		QuadVertex:   p.config.Shaders.QuadVertex,
		QuadFragment: p.config.Shaders.QuadFragment,
		Compute:      p.config.Shaders.Compute,
	}, device, p.registry)
	if err != nil {
		return fail("shader system", err)
	}

	if p.composite, err = shaderSystem.CompileComposite(); err != nil {
		return fail("composite program", err)
	}
	if p.composite.Quad, err = systems.NewGeometrySystem(device, p.registry).CreateFullScreenQuad(p.composite.Position); err != nil {
		return fail("quad geometry", err)
	}
	if p.target, err = systems.NewTextureSystem(device, p.registry).CreateComputeTarget(win.Width, win.Height); err != nil {
		return fail("compute target", err)
	}
	if p.compute, err = shaderSystem.CompileCompute(); err != nil {
		return fail("compute program", err)
	}

	grid, err := systems.PlanDispatch(p.target.Width, p.target.Height, p.compute.WorkGroupSize)
	if err != nil {
		return fail("dispatch plan", err)
	}
	core.LogInfo("%dx%d target, work group (%d, %d), dispatch %s", p.target.Width, p.target.Height, p.compute.WorkGroupSize.X, p.compute.WorkGroupSize.Y, grid)

	p.events.Register(core.EVENT_CODE_KEY_PRESSED, p.onKey)
	p.events.Register(core.EVENT_CODE_APPLICATION_QUIT, p.onQuit)

	if p.config.Watch && p.configPath != "" {
		p.startWatcher()
	}

	p.stage = StageInitialized
	return nil
}

// Run renders frames until the presenter closes, the context is cancelled,
// the frame limit is reached or a frame fails. The pipeline is shut down
// before Run returns.
func (p *Pipeline) Run(ctx context.Context) error {
	switch p.stage {
	case StageInitialized:
	case StageTerminating, StageTerminated:
		return core.ErrPipelineTerminated
	case StageUninitialized:
		return core.ErrNotInitialized
	default:
		return fmt.Errorf("pipeline already %s", p.stage)
	}
	defer p.Shutdown()

	p.stage = StageRunning
	core.LogInfo("frame loop started")

	for {
		select {
		case <-ctx.Done():
			core.LogInfo("frame loop cancelled after %d frames", p.Frames())
			return nil
		default:
		}
		if p.presenter.ShouldClose() || p.quitRequested.Load() {
			core.LogInfo("window closed after %d frames", p.Frames())
			return nil
		}
		if p.frameLimit > 0 && p.Frames() >= p.frameLimit {
			core.LogInfo("frame limit of %d reached", p.frameLimit)
			return nil
		}

		if err := p.RenderFrame(); err != nil {
			core.LogError("frame %d failed: %s", p.Frames(), err)
			return err
		}
	}
}

// RenderFrame records one frame: camera rays, dispatch, barrier, composite
// draw, optional capture and present.
func (p *Pipeline) RenderFrame() error {
	switch p.stage {
	case StageInitialized, StageRunning:
	case StageUninitialized:
		return core.ErrNotInitialized
	default:
		return core.ErrPipelineTerminated
	}

	p.clock.Start()

	// One snapshot per frame: a reload between reads would mix two cameras.
	camera := p.cameraSystem.Get()
	frustum, err := camera.Frustum()
	if err != nil {
		return err
	}
	grid, err := systems.PlanDispatch(p.target.Width, p.target.Height, p.compute.WorkGroupSize)
	if err != nil {
		return err
	}

	if err := p.synchronizer.BeginFrame(); err != nil {
		return err
	}

	p.device.UseProgram(p.compute.Program.ID)
	eye := camera.Eye.Position
	p.device.Uniform3f(p.compute.Eye, float32(eye[0]), float32(eye[1]), float32(eye[2]))
	for i, ray := range frustum.Corners {
		p.device.Uniform3f(p.compute.Rays[i], float32(ray[0]), float32(ray[1]), float32(ray[2]))
	}

	p.device.BindImageTexture(metadata.ComputeImageUnit, p.target.Texture.ID, p.target.Format)
	if err := p.synchronizer.Dispatch(grid); err != nil {
		return p.abandonFrame(err)
	}
	if err := p.synchronizer.Barrier(); err != nil {
		return p.abandonFrame(err)
	}
	p.device.UnbindImageTexture(metadata.ComputeImageUnit)
	p.device.UseProgram(0)

	if err := p.synchronizer.ReadyToSample(); err != nil {
		return p.abandonFrame(err)
	}
	p.device.ClearFramebuffer()
	p.device.UseProgram(p.composite.Program.ID)
	p.device.BindTexture(p.target.Texture.ID)
	p.device.DrawArrays(p.composite.Quad.VertexArray.ID, p.composite.Quad.Topology, p.composite.Quad.VertexCount)
	p.device.BindTexture(0)
	p.device.UseProgram(0)

	if err := p.synchronizer.EndFrame(); err != nil {
		return err
	}

	p.maybeCapture()
	p.presenter.Present()

	p.clock.Update()
	if p.metrics.Update(p.clock.Elapsed()) {
		core.LogDebug("%.0f fps, %.3f ms/frame", p.metrics.FPS(), p.metrics.FrameTime())
	}
	return nil
}

// abandonFrame closes a frame that failed part way so the synchronizer is
// back to idle; the original error is what the caller sees.
func (p *Pipeline) abandonFrame(err error) error {
	p.device.UnbindImageTexture(metadata.ComputeImageUnit)
	p.device.UseProgram(0)
	_ = p.synchronizer.EndFrame()
	return err
}

// Shutdown releases every GPU object and closes the presenter. It runs on
// every exit path and is a no-op once the pipeline is terminated.
func (p *Pipeline) Shutdown() {
	if p.stage == StageTerminating || p.stage == StageTerminated {
		return
	}
	p.stage = StageTerminating

	if p.watcher != nil {
		if err := p.watcher.Close(); err != nil {
			core.LogWarn("closing config watcher: %s", err)
		}
		p.watcher = nil
	}

	if p.registry != nil {
		released := p.registry.Len()
		if err := p.registry.Teardown(); err != nil {
			core.LogError("teardown finished with errors: %s", err)
		}
		core.LogDebug("released %d GPU objects", released)
	}

	if err := p.presenter.Close(); err != nil {
		core.LogError("closing presenter: %s", err)
	}

	p.stage = StageTerminated
	core.LogInfo("pipeline terminated after %d frames", p.Frames())
}

// Execute initializes and runs the pipeline, shutting it down on every path.
func (p *Pipeline) Execute(ctx context.Context) error {
	defer p.Shutdown()
	if err := p.Initialize(); err != nil {
		return err
	}
	return p.Run(ctx)
}

func (p *Pipeline) maybeCapture() {
	var path string
	switch {
	case p.config.CapturePath != "" && !p.captured:
		path = p.config.CapturePath
		p.captured = true
	case p.captureRequested.Swap(false):
		dir := "."
		if p.config.CapturePath != "" {
			dir = filepath.Dir(p.config.CapturePath)
		}
		path = filepath.Join(dir, fmt.Sprintf("capture-%s-%d.png", time.Now().Format("20060102-150405"), p.Frames()))
	default:
		return
	}

	pixels, err := p.device.ReadTexture(p.target.Texture.ID, p.target.Width, p.target.Height)
	if err != nil {
		core.LogError("capture failed: %s", err)
		return
	}
	if err := p.imageWriter.Write(path, pixels, int(p.target.Width), int(p.target.Height)); err != nil {
		core.LogError("capture failed: %s", err)
		return
	}
	core.LogInfo("frame %d written to %s", p.Frames(), path)
}

func (p *Pipeline) onKey(code core.EventCode, ctx core.EventContext) bool {
	switch ctx.Key {
	case core.KEY_P:
		p.captureRequested.Store(true)
		return true
	case core.KEY_Q, core.KEY_ESCAPE:
		p.events.Fire(core.EVENT_CODE_APPLICATION_QUIT, core.EventContext{})
		return true
	}
	return false
}

func (p *Pipeline) onQuit(code core.EventCode, ctx core.EventContext) bool {
	core.LogInfo("quit requested")
	p.quitRequested.Store(true)
	return true
}

func (p *Pipeline) startWatcher() {
	shaderPaths := append([]string{p.config.Shaders.QuadVertex, p.config.Shaders.QuadFragment}, p.config.Shaders.Compute...)
	watcher, err := assets.NewConfigWatcher(p.configPath, shaderPaths, p.reloadConfig)
	if err == nil {
		err = watcher.Start()
	}
	if err != nil {
		core.LogWarn("config hot reload disabled: %s", err)
		return
	}
	p.watcher = watcher
}

// reloadConfig runs on the watcher goroutine. Only the camera and the log
// level are applied; everything sized or linked at startup stays.
func (p *Pipeline) reloadConfig(path string) {
	cfg, err := LoadConfig(path)
	if err != nil {
		var degenerate *core.DegenerateCameraError
		if errors.As(err, &degenerate) {
			core.LogWarn("keeping current camera: %s", err)
			return
		}
		core.LogWarn("ignoring config reload: %s", err)
		return
	}

	if cfg.Window != p.config.Window {
		core.LogWarn("window settings changed; restart to apply")
	}
	if cfg.Shaders.QuadVertex != p.config.Shaders.QuadVertex ||
		cfg.Shaders.QuadFragment != p.config.Shaders.QuadFragment ||
		!slices.Equal(cfg.Shaders.Compute, p.config.Shaders.Compute) {
		core.LogWarn("shader settings changed; restart to apply")
	}
	if level, err := core.ParseLogLevel(cfg.LogLevel); err == nil {
		core.SetLogLevel(level)
	}

	camera := cfg.CameraFor(p.config.Window)
	if camera == p.cameraSystem.Get() {
		return
	}
	// Set logs the rejection and keeps the current camera.
	if err := p.cameraSystem.Set(camera); err != nil {
		return
	}
	core.LogDebug("camera reloaded from %s", path)
}
