package metadata

/** @brief Internal formats supported for compute targets. */
type TextureFormat uint32

const (
	/** @brief Four 32-bit float channels. */
	TextureFormatRGBA32F TextureFormat = iota
)

/** @brief The image unit the compute program writes to. */
const ComputeImageUnit uint32 = 0

/**
 * @brief The image the compute stage writes and the draw stage samples.
 * Its dimensions are fixed at creation.
 */
type ComputeTarget struct {
	/** @brief The texture handle. */
	Texture ResourceHandle
	/** @brief The texture width in pixels. */
	Width int32
	/** @brief The texture height in pixels. */
	Height int32
	/** @brief The internal format. */
	Format TextureFormat
}
