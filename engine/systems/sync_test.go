package systems

import (
	"errors"
	"fmt"
	"testing"

	"github.com/spaghettifunk/raycast/engine/core"
	"github.com/spaghettifunk/raycast/engine/renderer/rendertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameSynchronizerOrdersDispatchBeforeBarrier(t *testing.T) {
	dev := rendertest.NewDevice()
	fs := NewFrameSynchronizer(dev)

	for i := 0; i < 3; i++ {
		require.NoError(t, fs.BeginFrame())
		assert.ErrorIs(t, fs.ReadyToSample(), core.ErrFrameOrder)
		require.NoError(t, fs.Dispatch(DispatchGrid{68, 45, 1}))
		assert.ErrorIs(t, fs.ReadyToSample(), core.ErrFrameOrder)
		require.NoError(t, fs.Barrier())
		require.NoError(t, fs.ReadyToSample())
		require.NoError(t, fs.EndFrame())
	}

	barrier := fmt.Sprintf("barrier %d", ImageBarrierBits)
	assert.Equal(t, []string{
		"dispatch 68 45 1", barrier,
		"dispatch 68 45 1", barrier,
		"dispatch 68 45 1", barrier,
	}, dev.Events())
	assert.Equal(t, uint64(3), fs.Frames())
}

func TestFrameSynchronizerRejectsOutOfOrderCalls(t *testing.T) {
	dev := rendertest.NewDevice()
	fs := NewFrameSynchronizer(dev)

	assert.ErrorIs(t, fs.Dispatch(DispatchGrid{1, 1, 1}), core.ErrFrameOrder)
	assert.ErrorIs(t, fs.Barrier(), core.ErrFrameOrder)

	require.NoError(t, fs.BeginFrame())
	assert.ErrorIs(t, fs.BeginFrame(), core.ErrFrameOrder)
	assert.ErrorIs(t, fs.Barrier(), core.ErrFrameOrder, "barrier before dispatch")

	require.NoError(t, fs.Dispatch(DispatchGrid{1, 1, 1}))
	assert.ErrorIs(t, fs.Dispatch(DispatchGrid{1, 1, 1}), core.ErrFrameOrder, "second dispatch")

	require.NoError(t, fs.Barrier())
	assert.ErrorIs(t, fs.Barrier(), core.ErrFrameOrder, "second barrier")

	require.NoError(t, fs.EndFrame())
	assert.Equal(t, []string{"dispatch 1 1 1", fmt.Sprintf("barrier %d", ImageBarrierBits)}, dev.Events())
}

func TestFrameSynchronizerEndWithoutBarrierResets(t *testing.T) {
	fs := NewFrameSynchronizer(rendertest.NewDevice())

	require.NoError(t, fs.BeginFrame())
	require.NoError(t, fs.Dispatch(DispatchGrid{1, 1, 1}))
	err := fs.EndFrame()
	assert.True(t, errors.Is(err, core.ErrFrameOrder))
	assert.Equal(t, uint64(0), fs.Frames())

	// The next frame can still start.
	require.NoError(t, fs.BeginFrame())
}
