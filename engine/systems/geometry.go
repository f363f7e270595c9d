package systems

import (
	"fmt"

	"github.com/spaghettifunk/raycast/engine/core"
	"github.com/spaghettifunk/raycast/engine/renderer"
	"github.com/spaghettifunk/raycast/engine/renderer/metadata"
)

type GeometrySystem struct {
	device   renderer.Device
	registry *ResourceRegistry
}

func NewGeometrySystem(device renderer.Device, registry *ResourceRegistry) *GeometrySystem {
	return &GeometrySystem{device: device, registry: registry}
}

// CreateFullScreenQuad uploads the quad and points the attribute at the
// given location to it.
func (gs *GeometrySystem) CreateFullScreenQuad(positionLocation int32) (metadata.Renderable, error) {
	if positionLocation < 0 {
		err := fmt.Errorf("attribute %q not found in composite program", metadata.AttributePosition)
		core.LogError(err.Error())
		return metadata.Renderable{}, err
	}

	vaoID, err := gs.device.NewVertexArray()
	if err != nil {
		return metadata.Renderable{}, fmt.Errorf("failed to create quad vertex array: %w", err)
	}
	vao := track(gs.device, gs.registry, metadata.ResourceKindVertexArray, vaoID, "quad-vao")

	vboID, err := gs.device.NewVertexBuffer(metadata.QuadVertices)
	if err != nil {
		return metadata.Renderable{}, fmt.Errorf("failed to create quad vertex buffer: %w", err)
	}
	vbo := track(gs.device, gs.registry, metadata.ResourceKindBuffer, vboID, "quad-vbo")

	gs.device.VertexAttribPointer(vao.ID, vbo.ID, uint32(positionLocation), metadata.QuadComponents)

	return metadata.Renderable{
		VertexArray:  vao,
		VertexBuffer: vbo,
		VertexCount:  int32(len(metadata.QuadVertices)) / metadata.QuadComponents,
		Topology:     metadata.TopologyTriangleStrip,
	}, nil
}
