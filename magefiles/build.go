//go:build mage

package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"

	"github.com/spaghettifunk/raycast/engine"
	"github.com/spaghettifunk/raycast/engine/assets/loaders"
	"github.com/spaghettifunk/raycast/engine/renderer/metadata"
)

type Build mg.Namespace

// Validates the GLSL sources with glslangValidator. The compute sources are
// concatenated the same way the engine does it before being checked.
func (Build) Shaders() error {
	return buildShaders()
}

// Builds the raycast binary.
func (Build) Binary() error {
	mg.Deps(buildShaders)
	_, err := executeCmd("go", withArgs("build", "-o", "bin/raycast", "."), withStream())
	return err
}

func buildShaders() error {
	shaders := engine.DefaultConfig().Shaders

	for _, path := range []string{shaders.QuadVertex, shaders.QuadFragment} {
		if _, err := executeCmd("glslangValidator", withArgs(path), withStream()); err != nil {
			return err
		}
	}

	sl := &loaders.ShaderLoader{}
	src, err := sl.Load(metadata.ShaderStageCompute, shaders.Compute...)
	if err != nil {
		return err
	}
	dir, err := os.MkdirTemp("", "raycast-shaders")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	kernel := filepath.Join(dir, "raytracing.comp")
	if err := os.WriteFile(kernel, []byte(src.Source), 0o644); err != nil {
		return err
	}
	_, err = executeCmd("glslangValidator", withArgs(kernel), withStream())
	return err
}
