package loaders

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spaghettifunk/raycast/engine/renderer/metadata"
)

type ShaderLoader struct{}

// Load reads one or more GLSL files for a single stage and returns them as
// one source. Parts are concatenated in the order given; the first #version
// directive found is moved to the top and any later ones are dropped, so
// helper files without a directive can come first.
func (sl *ShaderLoader) Load(stage metadata.ShaderStage, paths ...string) (metadata.ShaderSource, error) {
	if len(paths) == 0 {
		return metadata.ShaderSource{}, errors.New("no source files given for " + stage.String() + " stage")
	}

	parts := make([]string, 0, len(paths))
	names := make([]string, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return metadata.ShaderSource{}, fmt.Errorf("failed to read %s shader: %w", stage, err)
		}
		parts = append(parts, string(data))
		names = append(names, filepath.Base(path))
	}

	return metadata.ShaderSource{
		Stage:  stage,
		Name:   strings.Join(names, "+"),
		Source: concatSources(parts),
	}, nil
}

func concatSources(parts []string) string {
	var version string
	var b strings.Builder
	for _, part := range parts {
		for _, line := range strings.Split(part, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "#version") {
				if version == "" {
					version = strings.TrimSpace(line)
				}
				continue
			}
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	if version == "" {
		return b.String()
	}
	return version + "\n" + b.String()
}
