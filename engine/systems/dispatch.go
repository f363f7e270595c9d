package systems

import (
	"fmt"

	"github.com/spaghettifunk/raycast/engine/core"
	"github.com/spaghettifunk/raycast/engine/math"
	"github.com/spaghettifunk/raycast/engine/renderer/metadata"
)

// DispatchGrid is the number of work groups launched per axis.
type DispatchGrid struct {
	X, Y, Z uint32
}

func (g DispatchGrid) String() string {
	return fmt.Sprintf("(%d, %d, %d)", g.X, g.Y, g.Z)
}

// PlanDispatch returns the smallest grid of work groups covering a
// width x height image, one thread per pixel. The last group on each axis
// may run past the image edge; the kernel discards those threads.
func PlanDispatch(width, height int32, wg metadata.WorkGroupSize) (DispatchGrid, error) {
	if wg.X <= 0 || wg.Y <= 0 {
		return DispatchGrid{}, &core.InvalidWorkGroupSizeError{X: wg.X, Y: wg.Y}
	}
	if width < 1 || height < 1 {
		return DispatchGrid{}, fmt.Errorf("%w: got %dx%d", core.ErrInvalidTargetSize, width, height)
	}
	return DispatchGrid{
		X: uint32(math.CeilDiv(width, wg.X)),
		Y: uint32(math.CeilDiv(height, wg.Y)),
		Z: 1,
	}, nil
}
