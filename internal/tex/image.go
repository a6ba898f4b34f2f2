package tex

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// FromImage copies img into a plain top-down texture: *image.Gray becomes
// 8 bpp grey, opaque images 24 bpp RGB, anything else 32 bpp RGBA
// (non-premultiplied).
func FromImage(img image.Image) (*Tex, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("from image: %w: %dx%d", ErrInvalidSize, w, h)
	}

	switch m := img.(type) {
	case *image.Gray:
		return Wrap(w, h, 8, Grey|TopDown, packRows(m.Pix, m.Stride, m.PixOffset(b.Min.X, b.Min.Y), w, h), 0)
	case *image.NRGBA:
		return Wrap(w, h, 32, Alpha|TopDown, packRows(m.Pix, m.Stride, m.PixOffset(b.Min.X, b.Min.Y), w*4, h), 0)
	}

	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		rgba := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
		data := make([]byte, w*h*3)
		for i := range w * h {
			copy(data[i*3:i*3+3], rgba.Pix[i*4:i*4+3])
		}
		return Wrap(w, h, 24, TopDown, data, 0)
	}

	nrgba := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	return Wrap(w, h, 32, Alpha|TopDown, nrgba.Pix, 0)
}

func packRows(pix []byte, stride, ofs, rowBytes, h int) []byte {
	out := make([]byte, rowBytes*h)
	for y := range h {
		copy(out[y*rowBytes:(y+1)*rowBytes], pix[ofs+y*stride:])
	}
	return out
}

// Image converts the base level of t to an image.Image. Grey textures give
// *image.Gray, textures with alpha *image.NRGBA, and the rest *image.RGBA.
// t is not modified.
func (t *Tex) Image() (image.Image, error) {
	if t.buf == nil {
		return nil, fmt.Errorf("image: %w", ErrNoData)
	}
	c := t.Clone()
	if err := toPlain(c, false, TopDown); err != nil {
		return nil, fmt.Errorf("image: %w", err)
	}
	return plainImage(c), nil
}

// plainImage wraps a plain, top-down, RGB-ordered texture.
func plainImage(t *Tex) image.Image {
	r := image.Rect(0, 0, t.w, t.h)
	data := t.Data()
	switch {
	case t.flags.IsGrey():
		return &image.Gray{Pix: data[:t.w*t.h], Stride: t.w, Rect: r}
	case t.bpp == 32:
		return &image.NRGBA{Pix: data[:t.w*t.h*4], Stride: t.w * 4, Rect: r}
	}
	rgba := image.NewRGBA(r)
	for i := range t.w * t.h {
		copy(rgba.Pix[i*4:i*4+3], data[i*3:i*3+3])
		rgba.Pix[i*4+3] = 0xFF
	}
	return rgba
}
