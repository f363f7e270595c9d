package metadata

import "fmt"

/** @brief The kinds of GPU objects the pipeline creates. */
type ResourceKind int

const (
	/** @brief A vertex array object. */
	ResourceKindVertexArray ResourceKind = iota
	/** @brief A vertex (or any other) buffer object. */
	ResourceKindBuffer
	/** @brief A texture object. */
	ResourceKindTexture
	/** @brief A linked program object. */
	ResourceKindProgram
)

func (k ResourceKind) String() string {
	switch k {
	case ResourceKindVertexArray:
		return "vertex-array"
	case ResourceKindBuffer:
		return "buffer"
	case ResourceKindTexture:
		return "texture"
	case ResourceKindProgram:
		return "program"
	default:
		return fmt.Sprintf("resource-kind(%d)", int(k))
	}
}

/** @brief Value used by the GL for "no object". */
const InvalidID uint32 = 0

/**
 * @brief An opaque GPU object identifier. The kind selects the delete call,
 * the ID is whatever the driver returned at creation.
 */
type ResourceHandle struct {
	/** @brief The object kind. */
	Kind ResourceKind
	/** @brief The driver assigned name. */
	ID uint32
}

func (h ResourceHandle) String() string {
	return fmt.Sprintf("%s#%d", h.Kind, h.ID)
}

/** @brief Reports whether the handle refers to an actual GPU object. */
func (h ResourceHandle) Valid() bool {
	return h.ID != InvalidID
}
