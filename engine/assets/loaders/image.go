package loaders

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/spaghettifunk/raycast/engine/math"
)

// ImageWriter encodes the RGBA32F contents of the compute target to disk.
// The format follows the file extension: .png, .tif/.tiff or .bmp.
type ImageWriter struct{}

// ToImage converts tightly packed RGBA float pixels, bottom row first as GL
// returns them, into an opaque 8-bit image with the top row first.
func (iw *ImageWriter) ToImage(pixels []float32, width, height int) (*image.RGBA, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("invalid image size %dx%d", width, height)
	}
	if len(pixels) < width*height*4 {
		return nil, fmt.Errorf("expected %d floats for a %dx%d image, got %d", width*height*4, width, height, len(pixels))
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		row := (height - 1 - y) * width * 4
		for x := 0; x < width; x++ {
			p := pixels[row+x*4:]
			img.SetRGBA(x, y, color.RGBA{
				R: toByte(p[0]),
				G: toByte(p[1]),
				B: toByte(p[2]),
				A: 0xff,
			})
		}
	}
	return img, nil
}

func (iw *ImageWriter) Encode(w io.Writer, format string, img image.Image) error {
	switch format {
	case ".png":
		return png.Encode(w, img)
	case ".tif", ".tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case ".bmp":
		return bmp.Encode(w, img)
	default:
		return fmt.Errorf("unsupported capture format %q", format)
	}
}

func (iw *ImageWriter) Write(path string, pixels []float32, width, height int) error {
	format := strings.ToLower(filepath.Ext(path))
	img, err := iw.ToImage(pixels, width, height)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := iw.Encode(f, format, img); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

func toByte(v float32) uint8 {
	if v != v {
		return 0
	}
	return uint8(math.Clamp(v, 0, 1)*255 + 0.5)
}
