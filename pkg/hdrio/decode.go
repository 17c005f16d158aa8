// Package hdrio decodes HDR and LDR images and writes tone-mapped results.
package hdrio

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/codec/rgbe"
	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/tiff"

	srvErrors "github.com/luminancehdr/hdr-batch/pkg/errors"
)

// Metadata holds the EXIF fields we care about. Zero values mean unknown.
type Metadata struct {
	ExposureTime float64 // seconds
	FNumber      float64
	ISO          int64
	Model        string
}

// Image is a decoded input frame.
type Image struct {
	hdr.Image
	Path     string
	Format   string
	Metadata Metadata
}

// Decode reads path into a linear HDR image. Radiance files are returned as
// decoded; LDR files are linearised from sRGB.
func Decode(path string) (*Image, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	out := &Image{Path: path, Format: strings.TrimPrefix(ext, ".")}

	switch ext {
	case ".hdr", ".pic":
		m, err := rgbe.Decode(bytes.NewReader(content))
		if err != nil {
			return nil, fmt.Errorf("decode radiance %s: %w", path, err)
		}
		h, ok := m.(hdr.Image)
		if !ok {
			return nil, fmt.Errorf("decode radiance %s: not an hdr image", path)
		}
		out.Image = h
		return out, nil
	case ".tif", ".tiff":
		m, err := tiff.Decode(bytes.NewReader(content))
		if err != nil {
			return nil, fmt.Errorf("decode tiff %s: %w", path, err)
		}
		out.Image = Linearize(m)
	case ".png", ".jpg", ".jpeg":
		m, _, err := image.Decode(bytes.NewReader(content))
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		out.Image = Linearize(m)
	default:
		return nil, srvErrors.NewUnsupportedFormatError(path, out.Format)
	}

	out.Metadata = ReadMetadata(content)
	return out, nil
}

// DecodeLDR reads an 8/16-bit image without linearisation.
func DecodeLDR(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		return tiff.Decode(f)
	case ".png", ".jpg", ".jpeg":
		m, _, err := image.Decode(f)
		return m, err
	default:
		return nil, srvErrors.NewUnsupportedFormatError(path, strings.TrimPrefix(filepath.Ext(path), "."))
	}
}

// ReadMetadata extracts EXIF fields from an encoded image. Missing or
// unreadable EXIF data yields a zero Metadata.
func ReadMetadata(content []byte) Metadata {
	var md Metadata

	x, err := exif.Decode(bytes.NewReader(content))
	if err != nil {
		return md
	}

	if tag, err := x.Get(exif.ExposureTime); err == nil {
		if num, den, err := tag.Rat2(0); err == nil && den != 0 {
			md.ExposureTime = float64(num) / float64(den)
		}
	}
	if tag, err := x.Get(exif.FNumber); err == nil {
		if num, den, err := tag.Rat2(0); err == nil && den != 0 {
			md.FNumber = float64(num) / float64(den)
		}
	}
	if tag, err := x.Get(exif.ISOSpeedRatings); err == nil {
		if v, err := tag.Int64(0); err == nil {
			md.ISO = v
		}
	}
	if tag, err := x.Get(exif.Model); err == nil {
		if s, err := tag.StringVal(); err == nil {
			md.Model = strings.TrimSpace(s)
		}
	}
	return md
}

// ReadMetadataFile is ReadMetadata on a file.
func ReadMetadataFile(path string) (Metadata, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("read image %s: %w", path, err)
	}
	return ReadMetadata(content), nil
}
