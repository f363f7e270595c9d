package platform

import (
	"runtime"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spaghettifunk/raycast/engine/core"
)

func init() {
	// GLFW event handling and the GL context must stay on the main OS thread
	runtime.LockOSThread()
}

// Presenter owns the window and the GL context. Startup makes the context
// current on the calling thread; Present swaps buffers and pumps events.
type Presenter interface {
	Startup(title string, width, height int32) error
	ShouldClose() bool
	Present()
	Close() error
}

var _ Presenter = (*Platform)(nil)

type Platform struct {
	Window *glfw.Window
	events *core.EventBus
	closed bool
}

// New returns a platform that forwards key events to the given bus.
func New(events *core.EventBus) *Platform {
	return &Platform{events: events}
}

func (p *Platform) Startup(title string, width, height int32) error {
	if err := glfw.Init(); err != nil {
		core.LogError("failed to initialize glfw: %s", err)
		return err
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	window, err := glfw.CreateWindow(int(width), int(height), title, nil, nil)
	if err != nil {
		core.LogError("failed to create window: %s", err)
		glfw.Terminate()
		return err
	}
	p.Window = window
	p.Window.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		core.LogError("failed to load OpenGL: %s", err)
		p.Window.Destroy()
		p.Window = nil
		glfw.Terminate()
		return err
	}
	glfw.SwapInterval(1)

	p.Window.SetKeyCallback(p.keyCallback)
	p.Window.SetFramebufferSizeCallback(framebufferSizeCallback)

	// The framebuffer may be larger than the window on HiDPI screens.
	fbWidth, fbHeight := p.Window.GetFramebufferSize()
	gl.Viewport(0, 0, int32(fbWidth), int32(fbHeight))

	if monitor := glfw.GetPrimaryMonitor(); monitor != nil {
		if vidmode := monitor.GetVideoMode(); vidmode != nil {
			p.Window.SetPos((vidmode.Width-int(width))/2, (vidmode.Height-int(height))/2)
		}
	}
	p.Window.Show()
	return nil
}

func (p *Platform) ShouldClose() bool {
	return p.Window == nil || p.Window.ShouldClose()
}

func (p *Platform) Present() {
	p.Window.SwapBuffers()
	glfw.PollEvents()
}

// Close destroys the window and terminates glfw. It is safe to call more
// than once and before Startup.
func (p *Platform) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	if p.Window != nil {
		p.Window.Destroy()
		p.Window = nil
	}
	glfw.Terminate()
	return nil
}

func (p *Platform) keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	code, ok := keyCodes[key]
	if !ok {
		return
	}

	switch action {
	case glfw.Press:
		if code == core.KEY_ESCAPE {
			w.SetShouldClose(true)
		}
		if p.events != nil {
			p.events.Fire(core.EVENT_CODE_KEY_PRESSED, core.EventContext{Key: code})
		}
	case glfw.Release:
		if p.events != nil {
			p.events.Fire(core.EVENT_CODE_KEY_RELEASED, core.EventContext{Key: code})
		}
	}
}

func framebufferSizeCallback(w *glfw.Window, width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

var keyCodes = map[glfw.Key]core.KeyCode{
	glfw.KeyEnter:  core.KEY_ENTER,
	glfw.KeyEscape: core.KEY_ESCAPE,
	glfw.KeySpace:  core.KEY_SPACE,
	glfw.KeyP:      core.KEY_P,
	glfw.KeyQ:      core.KEY_Q,
}
