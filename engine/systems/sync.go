package systems

import (
	"fmt"

	"github.com/spaghettifunk/raycast/engine/core"
	"github.com/spaghettifunk/raycast/engine/renderer"
)

// ImageBarrierBits makes image stores from the dispatch visible to texture
// fetches (and read-backs) issued after the barrier.
const ImageBarrierBits = renderer.BarrierShaderImageAccess | renderer.BarrierTextureFetch | renderer.BarrierTextureUpdate

type frameState uint8

const (
	frameIdle frameState = iota
	frameOpen
	frameDispatched
	frameBarriered
)

// FrameSynchronizer orders the compute write and the texture read within a
// frame: one dispatch, then exactly one barrier, then the draw. Ordering is
// enforced on the command stream only; the CPU never waits.
type FrameSynchronizer struct {
	queue  renderer.CommandQueue
	state  frameState
	frames uint64
}

func NewFrameSynchronizer(queue renderer.CommandQueue) *FrameSynchronizer {
	return &FrameSynchronizer{queue: queue}
}

func (fs *FrameSynchronizer) BeginFrame() error {
	if fs.state != frameIdle {
		return fmt.Errorf("%w: frame %d still open", core.ErrFrameOrder, fs.frames)
	}
	fs.state = frameOpen
	return nil
}

// Dispatch issues the single compute dispatch of the frame.
func (fs *FrameSynchronizer) Dispatch(grid DispatchGrid) error {
	if fs.state != frameOpen {
		return fmt.Errorf("%w: dispatch in frame %d", core.ErrFrameOrder, fs.frames)
	}
	fs.queue.DispatchCompute(grid.X, grid.Y, grid.Z)
	fs.state = frameDispatched
	return nil
}

// Barrier issues the image access barrier. It must follow the dispatch and
// may only be issued once per frame.
func (fs *FrameSynchronizer) Barrier() error {
	if fs.state != frameDispatched {
		return fmt.Errorf("%w: barrier in frame %d", core.ErrFrameOrder, fs.frames)
	}
	fs.queue.MemoryBarrier(ImageBarrierBits)
	fs.state = frameBarriered
	return nil
}

// ReadyToSample reports whether the compute target may be sampled.
func (fs *FrameSynchronizer) ReadyToSample() error {
	if fs.state != frameBarriered {
		return fmt.Errorf("%w: sampling before barrier in frame %d", core.ErrFrameOrder, fs.frames)
	}
	return nil
}

func (fs *FrameSynchronizer) EndFrame() error {
	if fs.state != frameBarriered {
		fs.state = frameIdle
		return fmt.Errorf("%w: frame %d ended without a barrier", core.ErrFrameOrder, fs.frames)
	}
	fs.state = frameIdle
	fs.frames++
	return nil
}

func (fs *FrameSynchronizer) Frames() uint64 {
	return fs.frames
}
