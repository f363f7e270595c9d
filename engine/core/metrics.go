package core

import (
	"time"

	"github.com/spaghettifunk/raycast/engine/containers"
)

const AVG_COUNT uint8 = 30

// Metrics keeps a rolling frame time average and a frames-per-second
// counter. One instance per pipeline.
type Metrics struct {
	msTimes            *containers.RingQueue[float64]
	msAvg              float64
	frames             int32
	accumulatedFrameMS float64
	fps                float64
	totalFrames        uint64
}

func NewMetrics() *Metrics {
	return &Metrics{msTimes: containers.NewRingQueue[float64](int(AVG_COUNT))}
}

// Update records one frame. It reports true once per second, when the fps
// value has just been refreshed.
func (m *Metrics) Update(frameElapsed time.Duration) bool {
	frameMS := float64(frameElapsed) / float64(time.Millisecond)
	m.msTimes.Push(frameMS)
	if m.msTimes.IsFull() {
		sum := 0.0
		m.msTimes.Each(func(ms float64) { sum += ms })
		m.msAvg = sum / float64(AVG_COUNT)
	}

	m.frames++
	m.totalFrames++

	m.accumulatedFrameMS += frameMS
	if m.accumulatedFrameMS > 1000 {
		m.fps = float64(m.frames)
		m.accumulatedFrameMS -= 1000
		m.frames = 0
		return true
	}
	return false
}

func (m *Metrics) FPS() float64 {
	return m.fps
}

// FrameTime is the average frame time in milliseconds over the last AVG_COUNT frames.
func (m *Metrics) FrameTime() float64 {
	return m.msAvg
}

func (m *Metrics) TotalFrames() uint64 {
	return m.totalFrames
}
