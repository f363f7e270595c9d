//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Validates the shaders and runs the renderer with raycast.toml.
func (Run) Engine() error {
	if err := buildShaders(); err != nil {
		return err
	}
	fmt.Println("Run engine...")
	if _, err := executeCmd("go", withArgs("run", ".", "render", "--config", "raycast.toml"), withStream()); err != nil {
		return err
	}
	return nil
}

// Renders a single frame to frame.png and exits.
func (Run) Capture() error {
	if _, err := executeCmd("go", withArgs("run", ".", "render", "--config", "raycast.toml", "--frames", "1", "--capture", "frame.png"), withStream()); err != nil {
		return err
	}
	return nil
}

// Runs the unit tests.
func (Run) Tests() error {
	_, err := executeCmd("go", withArgs("test", "./..."), withStream())
	return err
}
