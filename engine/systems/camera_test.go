package systems

import (
	"errors"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spaghettifunk/raycast/engine/core"
	"github.com/spaghettifunk/raycast/engine/renderer/components"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCamera() components.Camera {
	return components.NewCamera(
		components.Eye{Position: mgl64.Vec3{50, 52, 215.6}, LookAt: mgl64.Vec3{50, 30, -1}, Up: mgl64.Vec3{0, 1, 0}},
		components.Projection{FOV: 45, Aspect: 1.5, Near: 1, Far: 2},
	)
}

func TestCameraSystemSet(t *testing.T) {
	cs := NewCameraSystem(testCamera())
	assert.Equal(t, testCamera(), cs.Get())

	next := testCamera()
	next.Projection.FOV = 60
	require.NoError(t, cs.Set(next))
	assert.Equal(t, 60.0, cs.Get().Projection.FOV)
	assert.Equal(t, uint64(1), cs.Updates())
}

func TestCameraSystemKeepsLastGoodCamera(t *testing.T) {
	cs := NewCameraSystem(testCamera())

	bad := testCamera()
	bad.Projection.Near = bad.Projection.Far
	err := cs.Set(bad)

	var degenerate *core.DegenerateCameraError
	require.True(t, errors.As(err, &degenerate))
	assert.Equal(t, testCamera(), cs.Get())
	assert.Equal(t, uint64(0), cs.Updates())
}

func TestCameraSystemConcurrentAccess(t *testing.T) {
	cs := NewCameraSystem(testCamera())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := testCamera()
			c.Projection.FOV = float64(30 + i)
			_ = cs.Set(c)
			_, err := cs.Get().Frustum()
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, uint64(8), cs.Updates())
}
