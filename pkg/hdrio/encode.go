package hdrio

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/codec/rgbe"
	"golang.org/x/image/tiff"
)

// Encode writes an LDR image to path in the given format.
func Encode(path string, m image.Image, format Format, quality int) error {
	return writeFile(path, func(w io.Writer) error {
		switch format {
		case FormatPNG:
			return png.Encode(w, m)
		case FormatJPEG:
			return jpeg.Encode(w, m, &jpeg.Options{Quality: clampQuality(quality)})
		case FormatTIFF:
			return tiff.Encode(w, m, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
		default:
			return fmt.Errorf("invalid output format: %s", format)
		}
	})
}

// WriteHDR writes m as a Radiance RGBE file.
func WriteHDR(path string, m hdr.Image) error {
	return writeFile(path, func(w io.Writer) error {
		return rgbe.Encode(w, m)
	})
}

// writeFile writes through a temporary file so a failed encode never leaves a
// truncated output behind.
func writeFile(path string, enc func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := enc(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return os.Rename(tmp.Name(), path)
}

func clampQuality(q int) int {
	switch {
	case q < 1:
		return 1
	case q > 100:
		return 100
	}
	return q
}
