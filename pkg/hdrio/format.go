package hdrio

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is an LDR output format.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpg"
	FormatTIFF Format = "tiff"
)

func FormatFromString(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "tif", "tiff":
		return FormatTIFF, nil
	default:
		return "", fmt.Errorf("invalid output format: %s", s)
	}
}

func (f Format) Ext() string {
	return "." + string(f)
}

// inputExtensions is the list offered by the batch file pickers.
var inputExtensions = []string{
	".exr", ".hdr", ".pic", ".tiff", ".tif", ".pfs", ".crw", ".cr2", ".nef", ".dng", ".mrw", ".orf",
	".kdc", ".dcr", ".arw", ".raf", ".ptx", ".pef", ".x3f", ".raw", ".sr2", ".rw2", ".srw",
}

// IsHDRInput reports whether path has an extension accepted as batch input.
func IsHDRInput(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range inputExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// IsExposure reports whether path is an LDR image usable as a bracketed exposure.
func IsExposure(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".tif", ".tiff":
		return true
	}
	return false
}

// IsSettingsFile reports whether path looks like a tone-mapping settings file.
func IsSettingsFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".yaml", ".yml":
		return true
	}
	return false
}
