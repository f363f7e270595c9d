package metadata

/** @brief Primitive topology used to interpret a vertex stream. */
type Topology uint32

const (
	TopologyTriangles Topology = iota
	TopologyTriangleStrip
)

/** @brief Number of floats per vertex of the full-screen quad. */
const QuadComponents int32 = 2

/**
 * @brief The full-screen quad in triangle-strip order.
 */
var QuadVertices = []float32{
	-1, -1,
	1, -1,
	-1, 1,
	1, 1,
}

/**
 * @brief Geometry that can be drawn. Created once, never modified.
 */
type Renderable struct {
	/** @brief The vertex array holding the attribute bindings. */
	VertexArray ResourceHandle
	/** @brief The buffer holding the vertex data. */
	VertexBuffer ResourceHandle
	/** @brief The number of vertices to draw. */
	VertexCount int32
	/** @brief The primitive topology. */
	Topology Topology
}
