package systems

import (
	"errors"

	"github.com/spaghettifunk/raycast/engine/core"
	"github.com/spaghettifunk/raycast/engine/renderer"
	"github.com/spaghettifunk/raycast/engine/renderer/metadata"
)

type registryEntry struct {
	handle metadata.ResourceHandle
	label  string
}

// ResourceRegistry tracks every GPU object created during setup so that a
// single Teardown releases all of them exactly once, whichever path ends
// the run.
type ResourceRegistry struct {
	releaser renderer.Releaser
	entries  []registryEntry
	index    map[metadata.ResourceHandle]struct{}
}

func NewResourceRegistry(releaser renderer.Releaser) *ResourceRegistry {
	return &ResourceRegistry{
		releaser: releaser,
		index:    make(map[metadata.ResourceHandle]struct{}),
	}
}

// Register records a freshly created handle. Invalid handles and handles
// that are already tracked are ignored, so teardown never deletes twice.
func (rr *ResourceRegistry) Register(handle metadata.ResourceHandle, label string) bool {
	if !handle.Valid() {
		core.LogWarn("refusing to register invalid handle %s (%s)", handle, label)
		return false
	}
	if _, ok := rr.index[handle]; ok {
		core.LogWarn("handle %s (%s) already registered, ignoring", handle, label)
		return false
	}
	rr.entries = append(rr.entries, registryEntry{handle: handle, label: label})
	rr.index[handle] = struct{}{}
	core.LogDebug("registered %s (%s)", handle, label)
	return true
}

func (rr *ResourceRegistry) Contains(handle metadata.ResourceHandle) bool {
	_, ok := rr.index[handle]
	return ok
}

func (rr *ResourceRegistry) Len() int {
	return len(rr.entries)
}

// Teardown releases every registered handle in reverse registration order
// and empties the registry. A failing release does not stop the others;
// the failures come back joined as ResourceTeardownErrors for logging.
// Calling Teardown on an empty registry is a no-op.
func (rr *ResourceRegistry) Teardown() error {
	var errs []error
	for i := len(rr.entries) - 1; i >= 0; i-- {
		e := rr.entries[i]
		if err := rr.releaser.Delete(e.handle); err != nil {
			errs = append(errs, &core.ResourceTeardownError{Handle: e.handle.String() + " (" + e.label + ")", Err: err})
			continue
		}
		core.LogDebug("released %s (%s)", e.handle, e.label)
	}
	rr.entries = nil
	clear(rr.index)
	return errors.Join(errs...)
}
