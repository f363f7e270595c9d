package opengl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.3-core/gl"

	"github.com/spaghettifunk/raycast/engine/core"
	"github.com/spaghettifunk/raycast/engine/renderer/metadata"
)

var glShaders = map[metadata.ShaderStage]uint32{
	metadata.ShaderStageVertex:   gl.VERTEX_SHADER,
	metadata.ShaderStageFragment: gl.FRAGMENT_SHADER,
	metadata.ShaderStageCompute:  gl.COMPUTE_SHADER,
}

// CompileProgram compiles every stage and links them into one program. The
// stage objects are deleted once linked; only the program is returned.
func (d *Device) CompileProgram(name string, sources []metadata.ShaderSource) (uint32, error) {
	if len(sources) == 0 {
		return 0, errors.New("CompileProgram - no shader sources for " + name)
	}

	program := gl.CreateProgram()
	if program == metadata.InvalidID {
		return 0, glError("glCreateProgram")
	}

	shaders := make([]uint32, 0, len(sources))
	for _, src := range sources {
		sh, err := compileShader(src)
		if err != nil {
			discardProgram(program, shaders)
			return 0, err
		}
		gl.AttachShader(program, sh)
		shaders = append(shaders, sh)
	}

	gl.LinkProgram(program)
	// The program keeps its binary and info log once the stages are gone.
	releaseStages(program, shaders)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)

		msg := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(msg))
		discardProgram(program, nil)

		err := fmt.Errorf("failed to link program %s: %s", name, strings.TrimRight(msg, "\x00"))
		core.LogError(err.Error())
		return 0, err
	}

	core.LogDebug("program %s linked (%d)", name, program)
	return program, nil
}

// Swapped out in tests, which have no GL context.
var (
	glDetachShader  = gl.DetachShader
	glDeleteShader  = gl.DeleteShader
	glDeleteProgram = gl.DeleteProgram
)

// releaseStages detaches and deletes the stage objects. It must run while
// the program name is still valid, otherwise the detach raises
// GL_INVALID_VALUE for the next error check to find.
func releaseStages(program uint32, shaders []uint32) {
	for _, sh := range shaders {
		glDetachShader(program, sh)
		glDeleteShader(sh)
	}
}

func discardProgram(program uint32, shaders []uint32) {
	releaseStages(program, shaders)
	glDeleteProgram(program)
}

func compileShader(src metadata.ShaderSource) (uint32, error) {
	typ, ok := glShaders[src.Stage]
	if !ok {
		return 0, fmt.Errorf("unsupported shader stage %s", src.Stage)
	}
	handle := gl.CreateShader(typ)

	csources, free := gl.Strs(src.Source + "\x00")
	gl.ShaderSource(handle, 1, csources, nil)
	free()
	gl.CompileShader(handle)

	var status int32
	gl.GetShaderiv(handle, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(handle, gl.INFO_LOG_LENGTH, &logLength)

		msg := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(handle, logLength, nil, gl.Str(msg))
		gl.DeleteShader(handle)

		err := fmt.Errorf("failed to compile %s shader %s: %s", src.Stage, src.Name, strings.TrimRight(msg, "\x00"))
		core.LogError(err.Error())
		return 0, err
	}
	return handle, nil
}
