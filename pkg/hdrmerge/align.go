package hdrmerge

import (
	"image"
	"math/bits"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// noise band around the median excluded from comparisons
const exclusionBand = 4

type bitmap struct {
	w, h int
	thr  []uint64 // above median
	excl []uint64 // outside the noise band
}

func newBitmap(w, h int) *bitmap {
	n := (w*h + 63) / 64
	return &bitmap{w: w, h: h, thr: make([]uint64, n), excl: make([]uint64, n)}
}

func (b *bitmap) set(words []uint64, x, y int) {
	i := y*b.w + x
	words[i/64] |= 1 << (i % 64)
}

func (b *bitmap) get(words []uint64, x, y int) bool {
	if x < 0 || y < 0 || x >= b.w || y >= b.h {
		return false
	}
	i := y*b.w + x
	return words[i/64]&(1<<(i%64)) != 0
}

// luma8 is the 8-bit grey level used for thresholding.
func luma8(m image.Image, x, y int) float64 {
	r, g, b, _ := m.At(x, y).RGBA()
	return float64(54*(r>>8)+183*(g>>8)+19*(b>>8)) / 256
}

type grey struct {
	w, h int
	pix  []float64
}

func toGrey(m image.Image) *grey {
	b := m.Bounds()
	g := &grey{w: b.Dx(), h: b.Dy(), pix: make([]float64, b.Dx()*b.Dy())}
	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			g.pix[y*g.w+x] = luma8(m, b.Min.X+x, b.Min.Y+y)
		}
	}
	return g
}

func (g *grey) shrink() *grey {
	s := &grey{w: g.w / 2, h: g.h / 2}
	s.pix = make([]float64, s.w*s.h)
	for y := 0; y < s.h; y++ {
		for x := 0; x < s.w; x++ {
			i := 2*y*g.w + 2*x
			s.pix[y*s.w+x] = (g.pix[i] + g.pix[i+1] + g.pix[i+g.w] + g.pix[i+g.w+1]) / 4
		}
	}
	return s
}

func (g *grey) median() float64 {
	sorted := make([]float64, len(g.pix))
	copy(sorted, g.pix)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}

func (g *grey) mtb() *bitmap {
	med := g.median()
	b := newBitmap(g.w, g.h)
	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			v := g.pix[y*g.w+x]
			if v > med {
				b.set(b.thr, x, y)
			}
			if v < med-exclusionBand || v > med+exclusionBand {
				b.set(b.excl, x, y)
			}
		}
	}
	return b
}

// diff is the fraction of the overlap where a(x, y) and b(x+dx, y+dy)
// disagree, ignoring pixels inside either noise band. An empty overlap
// scores 1.
func diff(a, b *bitmap, dx, dy int) float64 {
	x0, x1 := max(0, -dx), min(a.w, b.w-dx)
	y0, y1 := max(0, -dy), min(a.h, b.h-dy)

	var mismatched, compared int
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if !a.get(a.excl, x, y) || !b.get(b.excl, x+dx, y+dy) {
				continue
			}
			compared++
			if a.get(a.thr, x, y) != b.get(b.thr, x+dx, y+dy) {
				mismatched++
			}
		}
	}
	if compared == 0 {
		return 1
	}
	return float64(mismatched) / float64(compared)
}

func pyramid(m image.Image, levels int) []*bitmap {
	g := toGrey(m)
	out := []*bitmap{g.mtb()}
	for i := 1; i < levels && g.w >= 2 && g.h >= 2; i++ {
		g = g.shrink()
		out = append(out, g.mtb())
	}
	return out
}

// shift finds the translation of src that best matches ref, searching
// +-maxShift pixels with a coarse to fine median threshold bitmap search.
func shift(ref, src image.Image, maxShift int) image.Point {
	levels := 1
	if maxShift > 0 {
		levels = bits.Len(uint(maxShift))
	}
	pr, ps := pyramid(ref, levels), pyramid(src, levels)
	if len(ps) < len(pr) {
		pr = pr[:len(ps)]
	}

	var cur image.Point
	for l := len(pr) - 1; l >= 0; l-- {
		cur = cur.Mul(2)
		// ties keep the current estimate
		best, bestErr := cur, diff(pr[l], ps[l], cur.X, cur.Y)
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				p := cur.Add(image.Pt(dx, dy))
				if e := diff(pr[l], ps[l], p.X, p.Y); e < bestErr {
					best, bestErr = p, e
				}
			}
		}
		cur = best
	}
	return cur
}

// Align sets the Offset of every exposure relative to the middle one, which
// keeps a zero offset.
func Align(es []Exposure, maxShift int) error {
	if err := checkBounds(es); err != nil {
		return err
	}
	ref := len(es) / 2
	for i := range es {
		if i == ref {
			es[i].Offset = image.Point{}
			continue
		}
		es[i].Offset = shift(es[ref].Image, es[i].Image, maxShift)
	}
	return nil
}
