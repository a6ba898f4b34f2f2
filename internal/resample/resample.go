// Package resample scales textures with x/image/draw filters.
package resample

import (
	"fmt"
	"image"

	"github.com/erinpentecost/texcodec/internal/mipmap"
	"github.com/erinpentecost/texcodec/internal/tex"
	"golang.org/x/image/draw"
)

type Processor interface {
	Process(src *tex.Tex) (*tex.Tex, error)
}

// PowerOfTwoProcessor divides each edge by DownScaleFactor and rounds it up
// to a power of two, so the result can carry a mipmap chain. Edges are
// scaled independently.
//
// The result is plain. Row order and channel order follow src where src
// has them.
type PowerOfTwoProcessor struct {
	DownScaleFactor int
}

func (p *PowerOfTwoProcessor) Process(src *tex.Tex) (*tex.Tex, error) {
	factor := max(p.DownScaleFactor, 1)
	w := mipmap.NextPowerOfTwo(src.Width() / factor)
	h := mipmap.NextPowerOfTwo(src.Height() / factor)

	img, err := src.Image()
	if err != nil {
		return nil, fmt.Errorf("scale %s: %w", src, err)
	}
	tex.Logger().Debug("scaling texture", "from", img.Bounds().Size(), "to", image.Pt(w, h))

	var dst draw.Image
	switch img.(type) {
	case *image.Gray:
		dst = image.NewGray(image.Rect(0, 0, w, h))
	case *image.NRGBA:
		dst = image.NewNRGBA(image.Rect(0, 0, w, h))
	default:
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	if img.Bounds().Size() == image.Pt(w, h) {
		draw.Draw(dst, dst.Bounds(), img, image.Point{}, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	}

	out, err := tex.FromImage(dst)
	if err != nil {
		return nil, fmt.Errorf("scale %s: %w", src, err)
	}
	target := out.Flags()
	if o := src.Flags().Orientation(); o != 0 {
		target = target&^tex.Orientation | o
	}
	if src.Flags().IsBGR() && !target.IsGrey() {
		target |= tex.BGR
	}
	if err := out.TransformTo(target); err != nil {
		return nil, fmt.Errorf("scale %s: %w", src, err)
	}
	return out, nil
}
