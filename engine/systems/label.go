package systems

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spaghettifunk/raycast/engine/renderer"
	"github.com/spaghettifunk/raycast/engine/renderer/metadata"
)

// track labels a freshly created object and hands it to the registry
// straight away, before anything else can fail.
func track(device renderer.Device, registry *ResourceRegistry, kind metadata.ResourceKind, id uint32, name string) metadata.ResourceHandle {
	handle := metadata.ResourceHandle{Kind: kind, ID: id}
	label := fmt.Sprintf("%s-%s", name, uuid.NewString())
	registry.Register(handle, label)
	device.Label(handle, label)
	return handle
}
