package tex

import (
	"fmt"

	"github.com/erinpentecost/texcodec/internal/mipmap"
)

// plainTransforms are the flag changes the plain transformer can apply.
const plainTransforms = BGR | Orientation | Mipmaps | Alpha

// validatePlainFormat accepts 8 bpp grey, 24 bpp without alpha or 32 bpp
// with alpha, all uncompressed and without mipmaps.
func validatePlainFormat(bpp int, flags Flags) error {
	if flags.IsCompressed() || flags.HasMipmaps() {
		return fmt.Errorf("%w: %s is not a plain format", ErrInvalidFormat, flags)
	}
	if flags.IsGrey() {
		if bpp == 8 && !flags.HasAlpha() {
			return nil
		}
		return fmt.Errorf("%w: grey needs 8 bpp without alpha, have %d bpp %s", ErrInvalidFormat, bpp, flags)
	}
	if bpp == 24 && !flags.HasAlpha() || bpp == 32 && flags.HasAlpha() {
		return nil
	}
	return fmt.Errorf("%w: %d bpp with %s", ErrInvalidFormat, bpp, flags)
}

// plainTransform applies mask to an uncompressed texture: alpha insertion,
// row flip, RGB/BGR swap and mipmap generation. Every step writes a new
// buffer, so a failure part way leaves the caller's original bytes intact.
func plainTransform(t *Tex, mask Flags) error {
	if mask&^plainTransforms != 0 {
		return fmt.Errorf("plain transform %s: %w", mask&^plainTransforms, ErrCannotHandle)
	}
	if err := validatePlainFormat(t.bpp, t.flags); err != nil {
		return err
	}
	if mask == 0 {
		return nil
	}

	w, h := t.w, t.h
	data := t.Data()[:t.ImgSize()]
	bpp, flags := t.bpp, t.flags

	if mask&Alpha != 0 {
		switch {
		case bpp == 24:
			data = addAlpha(data, w*h)
			bpp = 32
		default:
			// removing alpha, or alpha on grey
			return fmt.Errorf("plain transform alpha at %d bpp: %w", bpp, ErrCannotHandle)
		}
	}

	flip := mask&Orientation != 0
	swap := mask&BGR != 0
	if swap && bpp == 8 {
		return fmt.Errorf("plain transform bgr at 8 bpp: %w", ErrCannotHandle)
	}
	if flip || swap {
		data = reorder(data, w, h, bpp/8, flip, swap)
	}

	if mask&Mipmaps != 0 {
		if !mipmap.IsPowerOfTwo(w) || !mipmap.IsPowerOfTwo(h) {
			return fmt.Errorf("generate mipmaps %dx%d: %w: not a power of two", w, h, ErrInvalidSize)
		}
		data = generateMipmaps(data, w, h, bpp)
	}

	t.replace(data, bpp, flags^mask)
	return nil
}

func addAlpha(src []byte, pixels int) []byte {
	dst := make([]byte, pixels*4)
	for i := range pixels {
		copy(dst[i*4:i*4+3], src[i*3:i*3+3])
		dst[i*4+3] = 0xFF
	}
	return dst
}

// reorder copies rows, optionally in reverse order, optionally swapping the
// first and third channel of every pixel.
func reorder(src []byte, w, h, bytesPP int, flip, swap bool) []byte {
	pitch := w * bytesPP
	dst := make([]byte, len(src))
	for y := range h {
		sy := y
		if flip {
			sy = h - 1 - y
		}
		row := dst[y*pitch : (y+1)*pitch]
		copy(row, src[sy*pitch:(sy+1)*pitch])
		if swap {
			for x := 0; x < pitch; x += bytesPP {
				row[x], row[x+2] = row[x+2], row[x]
			}
		}
	}
	return dst
}

// generateMipmaps builds the full chain for a power-of-two image. Each level
// is a box filter of the one before it.
func generateMipmaps(base []byte, w, h, bpp int) []byte {
	out := make([]byte, mipmap.TotalSize(w, h, bpp, 0, 1))
	nc := bpp / 8

	var prev []byte
	prevW, prevH := 0, 0
	for lvl, dst := range mipmap.Chain(out, w, h, bpp, 0, 1) {
		if lvl.Index == 0 {
			copy(dst, base)
		} else if prevW == 1 || prevH == 1 {
			// a line: rows and columns are both packed pixels
			n := max(prevW, prevH)
			d := 0
			for p := 0; p < n; p += 2 {
				s := p * nc
				for c := range nc {
					dst[d] = uint8((uint16(prev[s+c]) + uint16(prev[s+nc+c]) + 1) / 2)
					d++
				}
			}
		} else {
			dy := prevW * nc
			d := 0
			for y := 0; y < prevH; y += 2 {
				for x := 0; x < prevW; x += 2 {
					s := y*dy + x*nc
					for c := range nc {
						sum := uint16(prev[s+c]) + uint16(prev[s+nc+c]) +
							uint16(prev[s+dy+c]) + uint16(prev[s+dy+nc+c])
						dst[d] = uint8((sum + 2) / 4)
						d++
					}
				}
			}
		}
		prev, prevW, prevH = dst, lvl.Width, lvl.Height
	}
	return out
}
