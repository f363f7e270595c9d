package metadata

/**
 * @brief Represents the various stages of a program.
 */
type ShaderStage int

const (
	ShaderStageVertex ShaderStage = iota
	ShaderStageFragment
	ShaderStageCompute
)

func (s ShaderStage) String() string {
	switch s {
	case ShaderStageVertex:
		return "vertex"
	case ShaderStageFragment:
		return "fragment"
	case ShaderStageCompute:
		return "compute"
	default:
		return "unknown"
	}
}

/**
 * @brief A single stage source handed to the shader compiler.
 */
type ShaderSource struct {
	Stage  ShaderStage
	Name   string
	Source string
}

/** @brief Names of the uniforms the ray tracing kernel consumes, in upload order. */
const (
	UniformEye   = "eye"
	UniformRay00 = "ray00"
	UniformRay01 = "ray01"
	UniformRay10 = "ray10"
	UniformRay11 = "ray11"
)

/** @brief Name of the quad position attribute in the composite program. */
const AttributePosition = "a_Position"

/** @brief Location returned for uniforms or attributes that do not exist. */
const InvalidLocation int32 = -1

/**
 * @brief Threads per work group as declared by the compute program.
 */
type WorkGroupSize struct {
	X, Y, Z int32
}

/**
 * @brief Everything the frame loop needs to drive the compute program.
 * Built once during initialization and never modified.
 */
type ComputeBindings struct {
	/** @brief The compute program. */
	Program ResourceHandle
	/** @brief The local size of the program. */
	WorkGroupSize WorkGroupSize
	/** @brief Location of the eye position uniform. */
	Eye int32
	/** @brief Locations of ray00, ray01, ray10, ray11 in that order. */
	Rays [4]int32
}

/**
 * @brief Everything the frame loop needs to draw the composite quad.
 */
type CompositeBindings struct {
	/** @brief The vertex+fragment program. */
	Program ResourceHandle
	/** @brief Location of the position attribute. */
	Position int32
	/** @brief The quad. */
	Quad Renderable
}
