// Package s3tc decodes and encodes S3TC (DXT1, DXT1a, DXT3, DXT5) blocks.
//
// Every block covers 4x4 pixels. Colour is stored as two 5:6:5 reference
// colours and sixteen 2-bit selectors; DXT3 prepends explicit 4-bit alpha and
// DXT5 prepends an interpolated alpha ramp.
package s3tc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image/color"
	"iter"

	"github.com/erinpentecost/texcodec/internal/mipmap"
)

// Kind identifies an S3TC variant. The values match the 3-bit DXT field of
// texture flags.
type Kind uint8

const (
	None  Kind = 0
	DXT1  Kind = 1
	DXT3  Kind = 3
	DXT5  Kind = 5
	DXT1A Kind = 7
)

var (
	ErrInvalidKind = errors.New("s3tc: invalid dxt kind")
	ErrShortData   = errors.New("s3tc: data too short")
)

// Valid reports whether k names a real S3TC variant.
func (k Kind) Valid() bool {
	switch k {
	case DXT1, DXT1A, DXT3, DXT5:
		return true
	}
	return false
}

// BlockSize is the number of bytes per 4x4 block.
func (k Kind) BlockSize() int {
	if k == DXT3 || k == DXT5 {
		return 16
	}
	return 8
}

// Bpp is the effective bits per pixel of the packed data.
func (k Kind) Bpp() int {
	return k.BlockSize() * 8 / 16
}

// HasAlpha reports whether decompressed pixels carry an alpha channel.
func (k Kind) HasAlpha() bool {
	return k != DXT1
}

// DecompressedBpp is the bpp of the plain output: 24 for DXT1, 32 otherwise.
func (k Kind) DecompressedBpp() int {
	if k == DXT1 {
		return 24
	}
	return 32
}

func (k Kind) String() string {
	switch k {
	case DXT1:
		return "DXT1"
	case DXT1A:
		return "DXT1a"
	case DXT3:
		return "DXT3"
	case DXT5:
		return "DXT5"
	case None:
		return "none"
	}
	return fmt.Sprintf("DXT(%d)", uint8(k))
}

// Unpack5 widens a 5-bit channel to 8 bits by replicating its high bits.
func Unpack5(v uint16) uint8 {
	v &= 0x1F
	return uint8(v<<3 | v>>2)
}

// Unpack6 widens a 6-bit channel to 8 bits by replicating its high bits.
func Unpack6(v uint16) uint8 {
	v &= 0x3F
	return uint8(v<<2 | v>>4)
}

func unpack565(c uint16) color.RGBA {
	return color.RGBA{
		R: Unpack5(c >> 11),
		G: Unpack6(c >> 5),
		B: Unpack5(c),
		A: 0xFF,
	}
}

// block holds the palettes derived from one compressed block.
type block struct {
	kind      Kind
	colors    [4]color.RGBA
	selectors uint32
	alphaBits uint64
	alphas    [8]uint8
}

func (b *block) precalcColor(c []byte) {
	c0 := binary.LittleEndian.Uint16(c[0:])
	c1 := binary.LittleEndian.Uint16(c[2:])
	b.selectors = binary.LittleEndian.Uint32(c[4:])

	b.colors[0] = unpack565(c0)
	b.colors[1] = unpack565(c1)
	p0, p1 := b.colors[0], b.colors[1]

	if (b.kind == DXT1 || b.kind == DXT1A) && c0 <= c1 {
		b.colors[2] = color.RGBA{
			R: uint8((uint16(p0.R) + uint16(p1.R)) / 2),
			G: uint8((uint16(p0.G) + uint16(p1.G)) / 2),
			B: uint8((uint16(p0.B) + uint16(p1.B)) / 2),
			A: 0xFF,
		}
		b.colors[3] = color.RGBA{A: 0xFF}
		if b.kind == DXT1A {
			b.colors[3].A = 0
		}
		return
	}
	b.colors[2] = mix23(p0, p1)
	b.colors[3] = mix23(p1, p0)
}

// mix23 returns (2*a + b) / 3 per channel, rounded.
func mix23(a, b color.RGBA) color.RGBA {
	return color.RGBA{
		R: uint8((2*uint16(a.R) + uint16(b.R) + 1) / 3),
		G: uint8((2*uint16(a.G) + uint16(b.G) + 1) / 3),
		B: uint8((2*uint16(a.B) + uint16(b.B) + 1) / 3),
		A: 0xFF,
	}
}

func (b *block) precalcAlpha(a []byte) {
	b.alphaBits = binary.LittleEndian.Uint64(a)
	if b.kind != DXT5 {
		return
	}
	b.alphaBits >>= 16
	b.alphas = alphaRamp(a[0], a[1])
}

// alphaRamp builds the DXT5 8-entry alpha palette.
func alphaRamp(a0, a1 uint8) [8]uint8 {
	var ramp [8]uint8
	ramp[0], ramp[1] = a0, a1
	x0, x1 := uint16(a0), uint16(a1)
	if a0 <= a1 {
		for n := uint16(1); n <= 4; n++ {
			ramp[1+n] = uint8(((5-n)*x0 + n*x1 + 2) / 5)
		}
		ramp[6] = 0
		ramp[7] = 0xFF
		return ramp
	}
	for n := uint16(1); n <= 6; n++ {
		ramp[1+n] = uint8(((7-n)*x0 + n*x1 + 3) / 7)
	}
	return ramp
}

func (b *block) pixel(i int) color.RGBA {
	c := b.colors[(b.selectors>>(2*uint(i)))&0x3]
	switch b.kind {
	case DXT3:
		a := uint8((b.alphaBits >> (4 * uint(i))) & 0xF)
		c.A = a | a<<4
	case DXT5:
		c.A = b.alphas[(b.alphaBits>>(3*uint(i)))&0x7]
	}
	return c
}

func newBlock(kind Kind, data []byte) block {
	b := block{kind: kind}
	if kind == DXT3 || kind == DXT5 {
		b.precalcAlpha(data[:8])
		data = data[8:]
	}
	b.precalcColor(data[:8])
	return b
}

// DecompressBlock expands one compressed block into 16 pixels in row-major
// order. DXT1 pixels are always opaque.
func DecompressBlock(kind Kind, data []byte) ([16]color.RGBA, error) {
	var out [16]color.RGBA
	if !kind.Valid() {
		return out, fmt.Errorf("decompress block: %w: %d", ErrInvalidKind, kind)
	}
	if len(data) < kind.BlockSize() {
		return out, fmt.Errorf("decompress %s block: %w: %d < %d", kind, ErrShortData, len(data), kind.BlockSize())
	}
	b := newBlock(kind, data)
	for i := range out {
		out[i] = b.pixel(i)
	}
	return out, nil
}

// DecompressedSize is the byte size of the plain chain Decompress produces.
func DecompressedSize(kind Kind, w, h int, mipmapped bool) int {
	return mipmap.TotalSize(w, h, kind.DecompressedBpp(), skipFor(mipmapped), 1)
}

// Decompress expands a whole image (and its mipmaps, if present) into plain
// RGB (DXT1) or RGBA pixels. It returns the new buffer and its bpp.
func Decompress(kind Kind, w, h int, mipmapped bool, data []byte) ([]byte, int, error) {
	if !kind.Valid() {
		return nil, 0, fmt.Errorf("decompress: %w: %d", ErrInvalidKind, kind)
	}
	skip := skipFor(mipmapped)
	need := mipmap.TotalSize(w, h, kind.Bpp(), skip, 4)
	if len(data) < need {
		return nil, 0, fmt.Errorf("decompress %s %dx%d: %w: %d < %d", kind, w, h, ErrShortData, len(data), need)
	}

	outBpp := kind.DecompressedBpp()
	outBytes := outBpp / 8
	out := make([]byte, DecompressedSize(kind, w, h, mipmapped))
	blockSize := kind.BlockSize()

	next, stop := iter.Pull2(mipmap.Chain(out, w, h, outBpp, skip, 1))
	defer stop()
	for lvl, src := range mipmap.Chain(data, w, h, kind.Bpp(), skip, 4) {
		_, dst, ok := next()
		if !ok {
			break
		}
		blocksW := (lvl.Width + 3) / 4
		blocksH := (lvl.Height + 3) / 4
		for by := 0; by < blocksH; by++ {
			for bx := 0; bx < blocksW; bx++ {
				b := newBlock(kind, src[:blockSize])
				src = src[blockSize:]

				x0, y0 := bx*4, by*4
				x1, y1 := min(x0+4, lvl.Width), min(y0+4, lvl.Height)
				for y := y0; y < y1; y++ {
					for x := x0; x < x1; x++ {
						c := b.pixel((y-y0)*4 + (x - x0))
						o := (y*lvl.Width + x) * outBytes
						dst[o+0] = c.R
						dst[o+1] = c.G
						dst[o+2] = c.B
						if outBytes == 4 {
							dst[o+3] = c.A
						}
					}
				}
			}
		}
	}
	return out, outBpp, nil
}

func skipFor(mipmapped bool) int {
	if mipmapped {
		return 0
	}
	return mipmap.BaseLevelOnly
}
