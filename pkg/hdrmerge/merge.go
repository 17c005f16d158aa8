package hdrmerge

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/luminancehdr/hdr-batch/pkg/hdrio"
)

// weight is a hat function over [0,1] that ignores values near black and
// near saturation.
func weight(v float64) float64 {
	w := 1 - math.Pow(2*v-1, 12)
	if w < 0 {
		return 0
	}
	return w
}

// Merge combines the exposures into one linear radiance map covering the
// reference frame. Frames are assumed to use the sRGB response curve.
func Merge(ctx context.Context, es []Exposure) (*hdrio.RGBImage, error) {
	if err := checkBounds(es); err != nil {
		return nil, err
	}
	for _, e := range es {
		if e.Time <= 0 {
			return nil, fmt.Errorf("%s: exposure time must be positive", e.Path)
		}
	}

	sorted := make([]Exposure, len(es))
	copy(sorted, es)
	sortByTime(sorted)

	ref := sorted[0].Image.Bounds()
	out := hdrio.NewRGBImage(ref)

	for y := ref.Min.Y; y < ref.Max.Y; y++ {
		if y%64 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		for x := ref.Min.X; x < ref.Max.X; x++ {
			r, g, b := mergePixel(sorted, image.Pt(x-ref.Min.X, y-ref.Min.Y))
			out.SetRGB(x, y, r, g, b)
		}
	}
	return out, nil
}

// mergePixel merges the reference pixel at rel. es is sorted shortest first.
func mergePixel(es []Exposure, rel image.Point) (r, g, b float64) {
	var (
		sum, wsum   [3]float64
		first, last [3]float64 // radiance from the shortest and longest frame seen
		lastLevel   [3]float64
		seen        bool
	)

	for _, e := range es {
		bounds := e.Image.Bounds()
		p := bounds.Min.Add(rel).Add(e.Offset)
		if !p.In(bounds) {
			continue
		}
		c := hdrio.SRGBAt(e.Image, p.X, p.Y)
		lr, lg, lb := c.LinearRgb()
		level := [3]float64{c.R, c.G, c.B}
		lin := [3]float64{lr, lg, lb}

		for ch := 0; ch < 3; ch++ {
			rad := lin[ch] / e.Time
			if !seen {
				first[ch] = rad
			}
			last[ch] = rad
			lastLevel[ch] = level[ch]

			w := weight(level[ch])
			sum[ch] += w * rad
			wsum[ch] += w
		}
		seen = true
	}

	var res [3]float64
	for ch := 0; ch < 3; ch++ {
		switch {
		case wsum[ch] > 0:
			res[ch] = sum[ch] / wsum[ch]
		case lastLevel[ch] < 0.5:
			// dark in every frame
			res[ch] = last[ch]
		default:
			// saturated in every frame
			res[ch] = first[ch]
		}
	}
	return res[0], res[1], res[2]
}
