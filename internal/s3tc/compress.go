package s3tc

import (
	"encoding/binary"
	"fmt"
	"image/color"
	"math"

	"github.com/erinpentecost/texcodec/internal/mipmap"
)

// CompressBlock packs 16 row-major pixels into one block of the given kind.
// DXT1A is not produced; callers wanting 1-bit alpha should use DXT5.
func CompressBlock(kind Kind, px [16]color.RGBA) ([]byte, error) {
	switch kind {
	case DXT1:
		return compressColor(px), nil
	case DXT3:
		return append(compressExplicitAlpha(px), compressColor(px)...), nil
	case DXT5:
		return append(compressAlphaRamp(px), compressColor(px)...), nil
	}
	return nil, fmt.Errorf("compress block: %w: %s", ErrInvalidKind, kind)
}

// CompressedSize is the byte size of the chain Compress produces.
func CompressedSize(kind Kind, w, h int, mipmapped bool) int {
	return mipmap.TotalSize(w, h, kind.Bpp(), skipFor(mipmapped), 4)
}

// Compress packs a plain RGB (24 bpp) or RGBA (32 bpp) image, and its
// mipmaps if present, into S3TC blocks. Pixels past the image edge repeat
// the last row or column.
func Compress(kind Kind, w, h, bpp int, mipmapped bool, data []byte) ([]byte, error) {
	if kind != DXT1 && kind != DXT3 && kind != DXT5 {
		return nil, fmt.Errorf("compress: %w: %s", ErrInvalidKind, kind)
	}
	if bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("compress: unsupported source bpp %d", bpp)
	}
	need := mipmap.TotalSize(w, h, bpp, skipFor(mipmapped), 1)
	if len(data) < need {
		return nil, fmt.Errorf("compress %s %dx%d: %w: %d < %d", kind, w, h, ErrShortData, len(data), need)
	}

	out := make([]byte, 0, CompressedSize(kind, w, h, mipmapped))
	srcBytes := bpp / 8
	for lvl, src := range mipmap.Chain(data, w, h, bpp, skipFor(mipmapped), 1) {
		for by := 0; by < lvl.Height; by += 4 {
			for bx := 0; bx < lvl.Width; bx += 4 {
				var px [16]color.RGBA
				for dy := range 4 {
					for dx := range 4 {
						x := min(bx+dx, lvl.Width-1)
						y := min(by+dy, lvl.Height-1)
						o := (y*lvl.Width + x) * srcBytes
						c := color.RGBA{R: src[o], G: src[o+1], B: src[o+2], A: 0xFF}
						if srcBytes == 4 {
							c.A = src[o+3]
						}
						px[dy*4+dx] = c
					}
				}
				blk, err := CompressBlock(kind, px)
				if err != nil {
					return nil, err
				}
				out = append(out, blk...)
			}
		}
	}
	return out, nil
}

func compressExplicitAlpha(px [16]color.RGBA) []byte {
	var bits uint64
	for i, p := range px {
		a := (uint64(p.A)*15 + 127) / 255
		bits |= a << (4 * uint(i))
	}
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, bits)
	return out
}

// compressAlphaRamp fits a DXT5 alpha block using the block's min and max.
func compressAlphaRamp(px [16]color.RGBA) []byte {
	minA, maxA := uint8(255), uint8(0)
	for _, p := range px {
		minA = min(minA, p.A)
		maxA = max(maxA, p.A)
	}

	// a0 > a1 selects the 8-value ramp; equal endpoints fall back to the
	// 6-value ramp, whose first entry is still exact.
	a0, a1 := maxA, minA
	ramp := alphaRamp(a0, a1)

	var bits uint64
	for i, p := range px {
		best, bestDist := 0, math.MaxInt
		for j, v := range ramp {
			d := int(p.A) - int(v)
			d *= d
			if d < bestDist {
				best, bestDist = j, d
			}
		}
		bits |= uint64(best) << (3 * uint(i))
	}

	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, bits<<16)
	out[0], out[1] = a0, a1
	return out
}

type vec3 [3]float64

func (a vec3) dot(b vec3) float64 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }
func (a vec3) add(b vec3) vec3    { return vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]} }
func (a vec3) scale(s float64) vec3 {
	return vec3{a[0] * s, a[1] * s, a[2] * s}
}

func (a vec3) normalize() vec3 {
	l := math.Sqrt(a.dot(a))
	if l == 0 {
		return vec3{}
	}
	return a.scale(1 / l)
}

// principalAxis estimates the dominant eigenvector of a 3x3 covariance
// matrix by power iteration.
func principalAxis(s [3][3]float64) vec3 {
	v := vec3{1, 1, 1}.normalize()
	for range 5 {
		next := vec3{
			s[0][0]*v[0] + s[0][1]*v[1] + s[0][2]*v[2],
			s[1][0]*v[0] + s[1][1]*v[1] + s[1][2]*v[2],
			s[2][0]*v[0] + s[2][1]*v[1] + s[2][2]*v[2],
		}
		v = next.normalize()
	}
	return v
}

// compressColor fits the colour endpoints along the block's principal axis
// and always emits the 4-colour mode (c0 > c1) unless the endpoints collide.
func compressColor(px [16]color.RGBA) []byte {
	var avg vec3
	for _, p := range px {
		avg = avg.add(vec3{float64(p.R), float64(p.G), float64(p.B)})
	}
	avg = avg.scale(1.0 / 16)

	var s [3][3]float64
	for _, p := range px {
		d := vec3{float64(p.R) - avg[0], float64(p.G) - avg[1], float64(p.B) - avg[2]}
		for i := range 3 {
			for j := range 3 {
				s[i][j] += d[i] * d[j]
			}
		}
	}
	axis := principalAxis(s)

	minProj, maxProj := math.MaxFloat64, -math.MaxFloat64
	for _, p := range px {
		proj := vec3{float64(p.R), float64(p.G), float64(p.B)}.dot(axis)
		minProj = min(minProj, proj)
		maxProj = max(maxProj, proj)
	}
	avgProj := avg.dot(axis)
	end0 := avg.add(axis.scale(maxProj - avgProj))
	end1 := avg.add(axis.scale(minProj - avgProj))

	c0 := pack565(end0)
	c1 := pack565(end1)
	if c0 < c1 {
		c0, c1 = c1, c0
	}

	out := make([]byte, 8)
	binary.LittleEndian.PutUint16(out[0:], c0)
	binary.LittleEndian.PutUint16(out[2:], c1)
	if c0 == c1 {
		// Every pixel maps to c0; selectors stay zero.
		return out
	}

	palette := [4]color.RGBA{unpack565(c0), unpack565(c1)}
	palette[2] = mix23(palette[0], palette[1])
	palette[3] = mix23(palette[1], palette[0])

	var selectors uint32
	for i, p := range px {
		best, bestDist := 0, math.MaxInt
		for j, c := range palette {
			dr := int(p.R) - int(c.R)
			dg := int(p.G) - int(c.G)
			db := int(p.B) - int(c.B)
			if d := dr*dr + dg*dg + db*db; d < bestDist {
				best, bestDist = j, d
			}
		}
		selectors |= uint32(best) << (2 * uint(i))
	}
	binary.LittleEndian.PutUint32(out[4:], selectors)
	return out
}

// pack565 clamps and rounds a float colour into 5:6:5.
func pack565(c vec3) uint16 {
	clamp := func(v float64) uint32 {
		return uint32(math.Round(math.Max(0, math.Min(255, v))))
	}
	r, g, b := clamp(c[0]), clamp(c[1]), clamp(c[2])
	return uint16((r>>3)<<11 | (g>>2)<<5 | b>>3)
}
