// Package tonemap is the image processing backend run by each batch slot.
package tonemap

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/mdouchement/hdr"

	"github.com/luminancehdr/hdr-batch/pkg/hdrio"
	"github.com/luminancehdr/hdr-batch/pkg/scheduler"
)

// Backend decodes, tone maps and writes one work item. It holds no per-item
// state and is safe for concurrent use.
type Backend struct {
	format  hdrio.Format
	quality int
	logger  *zap.SugaredLogger
}

var _ scheduler.Backend = (*Backend)(nil)

func NewBackend(format hdrio.Format, quality int) *Backend {
	return &Backend{
		format:  format,
		quality: quality,
		logger:  zap.S().Named("tonemap"),
	}
}

// OutputPath is <dir>/<input base>_<settings postfix>.<ext>.
func OutputPath(item scheduler.WorkItem, format hdrio.Format) string {
	base := filepath.Base(item.InputPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(item.OutputDir, fmt.Sprintf("%s_%s%s", base, item.Options.Postfix(), format.Ext()))
}

func (b *Backend) Apply(ctx context.Context, item scheduler.WorkItem) (scheduler.Output, error) {
	if item.Options == nil {
		return scheduler.Output{}, fmt.Errorf("no tone mapping options")
	}

	src, err := hdrio.Decode(item.InputPath)
	if err != nil {
		return scheduler.Output{}, err
	}
	if err := ctx.Err(); err != nil {
		return scheduler.Output{}, err
	}

	himg := src.Image
	if g := item.Options.PreGamma; g > 0 && g != 1 {
		himg = gammaHDR(himg, g)
	}

	op, err := NewOperator(himg, item.Options)
	if err != nil {
		return scheduler.Output{}, err
	}
	ldr := op.Perform()
	if err := ctx.Err(); err != nil {
		return scheduler.Output{}, err
	}

	if w := item.Options.Width; w > 0 && w != ldr.Bounds().Dx() {
		ldr = resize(ldr, w)
	}
	if g := item.Options.PostGamma; g > 0 && g != 1 {
		ldr = gammaLDR(ldr, g)
	}
	if err := ctx.Err(); err != nil {
		return scheduler.Output{}, err
	}

	out := OutputPath(item, b.format)
	if err := hdrio.Encode(out, ldr, b.format, b.quality); err != nil {
		return scheduler.Output{}, err
	}

	b.logger.Debugw("tone mapped", "input", item.InputPath, "operator", item.Options.Operator, "output", out)
	return scheduler.Output{Path: out}, nil
}

// resize scales m to width w keeping the aspect ratio.
func resize(m image.Image, w int) image.Image {
	sb := m.Bounds()
	h := int(math.Round(float64(sb.Dy()) * float64(w) / float64(sb.Dx())))
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), m, sb, draw.Src, nil)
	return dst
}

func gammaHDR(m hdr.Image, g float64) hdr.Image {
	b := m.Bounds()
	dst := hdrio.NewRGBImage(b)
	inv := 1 / g
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, gr, bl, _ := m.HDRAt(x, y).HDRRGBA()
			dst.SetRGB(x, y, math.Pow(r, inv), math.Pow(gr, inv), math.Pow(bl, inv))
		}
	}
	return dst
}

func gammaLDR(m image.Image, g float64) image.Image {
	var lut [256]uint8
	inv := 1 / g
	for i := range lut {
		lut[i] = uint8(math.Round(255 * math.Pow(float64(i)/255, inv)))
	}

	b := m.Bounds()
	dst := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(m.At(x, y)).(color.RGBA)
			dst.SetRGBA(x, y, color.RGBA{lut[c.R], lut[c.G], lut[c.B], c.A})
		}
	}
	return dst
}
