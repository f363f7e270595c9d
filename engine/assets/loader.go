package assets

import "path/filepath"

// AssetKind classifies files seen by the watcher.
type AssetKind uint8

const (
	AssetKindNone AssetKind = iota
	AssetKindConfig
	AssetKindShader
)

func (k AssetKind) String() string {
	switch k {
	case AssetKindConfig:
		return "config"
	case AssetKindShader:
		return "shader"
	default:
		return "none"
	}
}

func determineAssetKind(path string) AssetKind {
	switch filepath.Ext(path) {
	case ".toml":
		return AssetKindConfig
	case ".vert", ".frag", ".comp", ".glsl":
		return AssetKindShader
	default:
		return AssetKindNone
	}
}
