package engine

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/raycast/engine/core"
	"github.com/spaghettifunk/raycast/engine/renderer/components"
)

type WindowConfig struct {
	// The application name used in windowing.
	Title string `toml:"title"`
	// Window and compute target width in pixels. Fixed for the whole run.
	Width int32 `toml:"width"`
	// Window and compute target height in pixels. Fixed for the whole run.
	Height int32 `toml:"height"`
}

type CameraConfig struct {
	Eye    [3]float64 `toml:"eye"`
	LookAt [3]float64 `toml:"look_at"`
	Up     [3]float64 `toml:"up"`
	// Vertical field of view in degrees.
	FOV  float64 `toml:"fov"`
	Near float64 `toml:"near"`
	Far  float64 `toml:"far"`
}

type ShaderConfig struct {
	QuadVertex   string   `toml:"quad_vertex"`
	QuadFragment string   `toml:"quad_fragment"`
	Compute      []string `toml:"compute"`
}

type Config struct {
	LogLevel string `toml:"log_level"`
	// When set, the first finished frame is written to this file.
	CapturePath string `toml:"capture_path"`
	// Reload the camera when the config file changes.
	Watch bool `toml:"watch"`

	Window  WindowConfig `toml:"window"`
	Camera  CameraConfig `toml:"camera"`
	Shaders ShaderConfig `toml:"shaders"`
}

var captureFormats = []string{".png", ".tif", ".tiff", ".bmp"}

func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Watch:    true,
		Window: WindowConfig{
			Title:  "Raycast",
			Width:  1080,
			Height: 720,
		},
		Camera: CameraConfig{
			Eye:    [3]float64{50.0, 52.0, 215.6},
			LookAt: [3]float64{50.0, 30.0, -1.0},
			Up:     [3]float64{0.0, 1.0, 0.0},
			FOV:    45.0,
			Near:   1.0,
			Far:    2.0,
		},
		Shaders: ShaderConfig{
			QuadVertex:   "assets/shaders/quad.vert",
			QuadFragment: "assets/shaders/quad.frag",
			Compute:      []string{"assets/shaders/random.glsl", "assets/shaders/raytracing.glsl"},
		},
	}
}

// LoadConfig reads a TOML file on top of DefaultConfig. Unknown keys are an
// error so typos do not silently fall back to defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	// Arrays from the file replace the default list instead of merging into it.
	defaultCompute := cfg.Shaders.Compute
	cfg.Shaders.Compute = nil

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return cfg, fmt.Errorf("unknown keys in %s:\n%s", path, strict.String())
		}
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return cfg, fmt.Errorf("failed to parse %s at %d:%d: %w", path, row, col, err)
		}
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if cfg.Shaders.Compute == nil {
		cfg.Shaders.Compute = defaultCompute
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := core.ParseLogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	if c.Window.Width < 1 || c.Window.Height < 1 {
		return fmt.Errorf("%w: window is %dx%d", core.ErrInvalidTargetSize, c.Window.Width, c.Window.Height)
	}
	if c.Shaders.QuadVertex == "" || c.Shaders.QuadFragment == "" {
		return errors.New("shaders.quad_vertex and shaders.quad_fragment are required")
	}
	if len(c.Shaders.Compute) == 0 {
		return errors.New("shaders.compute needs at least one source")
	}
	if c.CapturePath != "" && !supportedCapture(c.CapturePath) {
		return fmt.Errorf("capture_path %q must end in one of %s", c.CapturePath, strings.Join(captureFormats, ", "))
	}
	if _, err := c.CameraFor(c.Window).Frustum(); err != nil {
		return err
	}
	return nil
}

// Aspect is the window aspect ratio used for the projection.
func (c Config) Aspect() float64 {
	return float64(c.Window.Width) / float64(c.Window.Height)
}

// CameraFor builds the camera for the given window. Hot reloads pass the
// window the pipeline started with, since the target size never changes.
func (c Config) CameraFor(window WindowConfig) components.Camera {
	return components.NewCamera(
		components.Eye{
			Position: mgl64.Vec3(c.Camera.Eye),
			LookAt:   mgl64.Vec3(c.Camera.LookAt),
			Up:       mgl64.Vec3(c.Camera.Up),
		},
		components.Projection{
			FOV:    c.Camera.FOV,
			Aspect: float64(window.Width) / float64(window.Height),
			Near:   c.Camera.Near,
			Far:    c.Camera.Far,
		},
	)
}

func supportedCapture(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range captureFormats {
		if ext == f {
			return true
		}
	}
	return false
}
