package systems

import (
	"sync/atomic"

	"github.com/spaghettifunk/raycast/engine/core"
	"github.com/spaghettifunk/raycast/engine/renderer/components"
)

// CameraSystem holds the camera the next frame is rendered with. Updates
// may come from another goroutine (the config watcher); the frame loop
// reads one snapshot per frame.
type CameraSystem struct {
	current atomic.Pointer[components.Camera]
	updates atomic.Uint64
}

func NewCameraSystem(initial components.Camera) *CameraSystem {
	cs := &CameraSystem{}
	cs.current.Store(&initial)
	return cs
}

// Get returns a copy of the current camera.
func (cs *CameraSystem) Get() components.Camera {
	return *cs.current.Load()
}

// Set replaces the camera if it yields a valid frustum. Degenerate cameras
// are rejected so a bad edit cannot bring down the frame loop.
func (cs *CameraSystem) Set(camera components.Camera) error {
	if _, err := camera.Frustum(); err != nil {
		core.LogWarn("rejecting camera update: %s", err)
		return err
	}
	cs.current.Store(&camera)
	cs.updates.Add(1)
	core.LogInfo("camera updated: eye=%v lookAt=%v fov=%.1f", camera.Eye.Position, camera.Eye.LookAt, camera.Projection.FOV)
	return nil
}

// Updates counts accepted Set calls.
func (cs *CameraSystem) Updates() uint64 {
	return cs.updates.Load()
}
