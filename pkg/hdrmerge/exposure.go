// Package hdrmerge builds one HDR radiance map from a set of bracketed LDR
// exposures of the same scene.
package hdrmerge

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"sort"

	"github.com/luminancehdr/hdr-batch/pkg/hdrio"
)

// Exposure is one bracketed frame. Offset is set by Align: the reference pixel
// (x, y) is found in this frame at (x, y).Add(Offset).
type Exposure struct {
	Path   string
	Time   float64 // seconds
	Image  image.Image
	Offset image.Point
}

// ReadExposure loads path and its EXIF exposure time.
func ReadExposure(path string) (Exposure, error) {
	md, err := hdrio.ReadMetadataFile(path)
	if err != nil {
		return Exposure{}, err
	}
	if md.ExposureTime <= 0 {
		return Exposure{}, fmt.Errorf("%s: missing exposure time", filepath.Base(path))
	}

	m, err := hdrio.DecodeLDR(path)
	if err != nil {
		return Exposure{}, err
	}
	return Exposure{Path: path, Time: md.ExposureTime, Image: m}, nil
}

// ReadExposures loads every path and returns the frames sorted by exposure
// time, shortest first.
func ReadExposures(paths []string) ([]Exposure, error) {
	out := make([]Exposure, 0, len(paths))
	for _, p := range paths {
		e, err := ReadExposure(p)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	sortByTime(out)
	return out, nil
}

func sortByTime(es []Exposure) {
	sort.SliceStable(es, func(i, j int) bool { return es[i].Time < es[j].Time })
}

func checkBounds(es []Exposure) error {
	if len(es) == 0 {
		return fmt.Errorf("no exposures")
	}
	ref := es[0].Image.Bounds().Size()
	for _, e := range es[1:] {
		if e.Image.Bounds().Size() != ref {
			return fmt.Errorf("%s: size %v does not match %v", filepath.Base(e.Path), e.Image.Bounds().Size(), ref)
		}
	}
	return nil
}

// Options controls Create.
type Options struct {
	Align    bool
	MaxShift int
}

// Create reads, aligns and merges one bracketed set.
func Create(ctx context.Context, paths []string, opts Options) (*hdrio.RGBImage, error) {
	es, err := ReadExposures(paths)
	if err != nil {
		return nil, err
	}
	if opts.Align && len(es) > 1 {
		if err := Align(es, opts.MaxShift); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Merge(ctx, es)
}
