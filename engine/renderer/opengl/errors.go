package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.3-core/gl"
)

var glErrorNames = map[uint32]string{
	gl.INVALID_ENUM:                  "GL_INVALID_ENUM",
	gl.INVALID_VALUE:                 "GL_INVALID_VALUE",
	gl.INVALID_OPERATION:             "GL_INVALID_OPERATION",
	gl.INVALID_FRAMEBUFFER_OPERATION: "GL_INVALID_FRAMEBUFFER_OPERATION",
	gl.OUT_OF_MEMORY:                 "GL_OUT_OF_MEMORY",
	gl.STACK_UNDERFLOW:               "GL_STACK_UNDERFLOW",
	gl.STACK_OVERFLOW:                "GL_STACK_OVERFLOW",
}

// checkError drains the GL error queue and reports the first error, if any.
func checkError(op string) error {
	var first uint32
	for code := gl.GetError(); code != gl.NO_ERROR; code = gl.GetError() {
		if first == gl.NO_ERROR {
			first = code
		}
	}
	if first == gl.NO_ERROR {
		return nil
	}
	name, ok := glErrorNames[first]
	if !ok {
		name = fmt.Sprintf("0x%04x", first)
	}
	return fmt.Errorf("%s: %s", op, name)
}

// glError is used when a Gen* call hands back the zero name.
func glError(op string) error {
	if err := checkError(op); err != nil {
		return err
	}
	return fmt.Errorf("%s returned no object", op)
}
