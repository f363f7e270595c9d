package systems

import (
	"fmt"

	"github.com/spaghettifunk/raycast/engine/core"
	"github.com/spaghettifunk/raycast/engine/renderer"
	"github.com/spaghettifunk/raycast/engine/renderer/metadata"
)

type TextureSystem struct {
	device   renderer.Device
	registry *ResourceRegistry
}

func NewTextureSystem(device renderer.Device, registry *ResourceRegistry) *TextureSystem {
	return &TextureSystem{device: device, registry: registry}
}

// CreateComputeTarget allocates the RGBA32F image the kernel writes into and
// zeroes it, so the first presented frame never shows undefined memory.
func (ts *TextureSystem) CreateComputeTarget(width, height int32) (metadata.ComputeTarget, error) {
	if width < 1 || height < 1 {
		return metadata.ComputeTarget{}, fmt.Errorf("%w: got %dx%d", core.ErrInvalidTargetSize, width, height)
	}

	id, err := ts.device.NewComputeTexture(width, height, metadata.TextureFormatRGBA32F)
	if err != nil {
		return metadata.ComputeTarget{}, fmt.Errorf("failed to create compute target: %w", err)
	}
	handle := track(ts.device, ts.registry, metadata.ResourceKindTexture, id, "compute-target")
	ts.device.ClearTexture(handle.ID)

	core.LogDebug("compute target %s created (%dx%d)", handle, width, height)
	return metadata.ComputeTarget{
		Texture: handle,
		Width:   width,
		Height:  height,
		Format:  metadata.TextureFormatRGBA32F,
	}, nil
}
