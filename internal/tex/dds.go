package tex

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/erinpentecost/texcodec/internal/mipmap"
	"github.com/erinpentecost/texcodec/internal/s3tc"
)

const (
	ddsMagic      = "DDS "
	ddsHeaderSize = 4 + 124
	ddsPfSize     = 32

	// DDSD flags
	ddsdCaps        = 0x1
	ddsdHeight      = 0x2
	ddsdWidth       = 0x4
	ddsdPitch       = 0x8
	ddsdPixelFormat = 0x1000
	ddsdMipmapCount = 0x20000
	ddsdLinearSize  = 0x80000
	ddsdDepth       = 0x800000

	ddsdRequired = ddsdCaps | ddsdHeight | ddsdWidth | ddsdPixelFormat

	// pixel format flags
	ddpfAlphaPixels = 0x1
	ddpfFourCC      = 0x4
	ddpfRGB         = 0x40

	// caps
	ddscapsComplex = 0x8
	ddscapsTexture = 0x1000
	ddscapsMipmap  = 0x400000

	// caps2
	ddscaps2Cubemap = 0x200
	ddscaps2Volume  = 0x200000

	// legacy tools store the size of the whole chain as the linear size
	ddsChainSizeSlack = 64
)

// file offsets of DDS_HEADER fields, magic included
const (
	ddsOffSize        = 4
	ddsOffFlags       = 8
	ddsOffHeight      = 12
	ddsOffWidth       = 16
	ddsOffPitchOrSize = 20
	ddsOffDepth       = 24
	ddsOffMipmapCount = 28
	ddsOffPixelFormat = 76
	ddsOffCaps        = 108
	ddsOffCaps2       = 112
)

// ddsCodec handles DDS files holding one 2D texture, either uncompressed
// (RGB, RGBA or 8-bit grey) or S3TC compressed, with or without mipmaps.
//
// DDS does not record a row order; decoded textures have none.
type ddsCodec struct{}

func (ddsCodec) Name() string { return "dds" }

func (ddsCodec) IsHeader(b []byte) bool { return string(b[:4]) == ddsMagic }

func (ddsCodec) IsExtension(ext string) bool { return hasExtension(ext, ".dds") }

func (ddsCodec) HeaderSize([]byte) int { return ddsHeaderSize }

// decodePixelFormat reads DDS_PIXELFORMAT. Uncompressed data must be laid
// out exactly R, G, B(, A) in memory; other channel orders are rejected
// rather than converted.
func decodePixelFormat(pf []byte) (bpp int, flags Flags, err error) {
	le := binary.LittleEndian
	if size := le.Uint32(pf[0:]); size != ddsPfSize {
		return 0, 0, fmt.Errorf("%w: pixel format size %d", ErrInvalidSize, size)
	}
	pfFlags := le.Uint32(pf[4:])
	fourCC := string(pf[8:12])
	bitCount := int(le.Uint32(pf[12:]))
	rMask, gMask, bMask, aMask := le.Uint32(pf[16:]), le.Uint32(pf[20:]), le.Uint32(pf[24:]), le.Uint32(pf[28:])

	switch {
	case pfFlags&ddpfRGB != 0:
		bpp = bitCount
		if pfFlags&ddpfAlphaPixels != 0 {
			if aMask != 0xFF000000 {
				return 0, 0, fmt.Errorf("%w: alpha mask %#08x", ErrInvalidFormat, aMask)
			}
			flags |= Alpha
		}
		if rMask != 0xFF || gMask != 0xFF00 || bMask != 0xFF0000 {
			return 0, 0, fmt.Errorf("%w: channel masks r=%#x g=%#x b=%#x", ErrInvalidFormat, rMask, gMask, bMask)
		}
		if err := validatePlainFormat(bpp, flags); err != nil {
			return 0, 0, err
		}

	case pfFlags&ddpfFourCC != 0:
		switch fourCC {
		case "DXT1":
			bpp = 4
			flags = flags.WithCompression(s3tc.DXT1)
			if pfFlags&ddpfAlphaPixels != 0 {
				flags = flags.WithCompression(s3tc.DXT1A) | Alpha
			}
		case "DXT3":
			bpp = 8
			flags = flags.WithCompression(s3tc.DXT3) | Alpha
		case "DXT5":
			bpp = 8
			flags = flags.WithCompression(s3tc.DXT5) | Alpha
		default:
			return 0, 0, fmt.Errorf("%w: fourcc %q", ErrInvalidFormat, fourCC)
		}

	case pfFlags&ddpfAlphaPixels != 0:
		// alpha-only data is read as 8-bit grey
		bpp = bitCount
		if bpp != 8 || aMask != 0xFF {
			return 0, 0, fmt.Errorf("%w: %d bpp grey with alpha mask %#x", ErrInvalidFormat, bpp, aMask)
		}
		flags |= Grey
		if err := validatePlainFormat(bpp, flags); err != nil {
			return 0, 0, err
		}

	default:
		return 0, 0, fmt.Errorf("%w: pixel format flags %#x", ErrInvalidFormat, pfFlags)
	}
	return bpp, flags, nil
}

func (ddsCodec) Decode(file []byte, t *Tex, warn func(error)) error {
	le := binary.LittleEndian
	if size := le.Uint32(file[ddsOffSize:]); size != ddsHeaderSize-4 {
		return fmt.Errorf("%w: header size %d", ErrInvalidFormat, size)
	}
	sdFlags := le.Uint32(file[ddsOffFlags:])
	if sdFlags&ddsdRequired != ddsdRequired {
		return fmt.Errorf("%w: header flags %#x", ErrIncompleteHeader, sdFlags)
	}
	h := int(le.Uint32(file[ddsOffHeight:]))
	w := int(le.Uint32(file[ddsOffWidth:]))
	if w == 0 || h == 0 || w > MaxDimension || h > MaxDimension {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, w, h)
	}

	bpp, flags, err := decodePixelFormat(file[ddsOffPixelFormat : ddsOffPixelFormat+ddsPfSize])
	if err != nil {
		return err
	}

	storedW, storedH := w, h
	if flags.IsCompressed() {
		storedW, storedH = (w+3)&^3, (h+3)&^3
	}
	pitch := storedW * bpp / 8
	pitchOrSize := int(le.Uint32(file[ddsOffPitchOrSize:]))
	if sdFlags&ddsdPitch != 0 && pitchOrSize != (pitch+3)&^3 {
		warn(fmt.Errorf("%w: pitch %d, expected %d", ErrInvalidData, pitchOrSize, (pitch+3)&^3))
	}
	if sdFlags&ddsdLinearSize != 0 {
		chain := int(float64(pitch*storedH) * 1.333333)
		if pitchOrSize != pitch*storedH && int(math.Abs(float64(pitchOrSize-chain))) > ddsChainSizeSlack {
			warn(fmt.Errorf("%w: linear size %d, expected %d", ErrInvalidData, pitchOrSize, pitch*storedH))
		}
	}

	if sdFlags&ddsdMipmapCount != 0 {
		if count := int(le.Uint32(file[ddsOffMipmapCount:])); count != 0 {
			// the count includes the base level
			if want := mipmap.CeilLog2(max(w, h)) + 1; count != want {
				return fmt.Errorf("%w: %d mipmap levels, expected %d", ErrInvalidFormat, count, want)
			}
			flags |= Mipmaps
		}
	}

	if sdFlags&ddsdDepth != 0 && le.Uint32(file[ddsOffDepth:]) != 0 {
		return fmt.Errorf("%w: volume textures are not supported", ErrInvalidFormat)
	}
	caps := le.Uint32(file[ddsOffCaps:])
	if caps2 := le.Uint32(file[ddsOffCaps2:]); caps2&ddscaps2Cubemap != 0 {
		return fmt.Errorf("%w: cubemaps are not supported", ErrInvalidFormat)
	} else if caps2&ddscaps2Volume != 0 {
		return fmt.Errorf("%w: volume textures are not supported", ErrInvalidFormat)
	}
	if caps&ddscapsTexture == 0 {
		warn(fmt.Errorf("%w: DDSCAPS_TEXTURE not set", ErrInvalidData))
	}
	if (caps&ddscapsMipmap != 0) != flags.HasMipmaps() {
		warn(fmt.Errorf("%w: DDSCAPS_MIPMAP disagrees with the mipmap count", ErrInvalidData))
	}

	t.w, t.h, t.bpp, t.flags = w, h, bpp, flags
	return nil
}

// Transform drops mipmaps (by flag only; the levels stay as trailing
// bytes), decompresses S3TC data, and compresses plain RGB(A) data.
func (ddsCodec) Transform(t *Tex, mask Flags) error {
	switch {
	case t.flags.HasMipmaps() && mask&Mipmaps != 0:
		t.flags &^= Mipmaps
		return nil
	case t.flags.IsCompressed() && mask&DXT != 0:
		return decompressTex(t)
	case !t.flags.IsCompressed() && mask&DXT != 0:
		return compressTex(t, mask)
	}
	return ErrCannotHandle
}

func decompressTex(t *Tex) error {
	data, bpp, err := s3tc.Decompress(t.flags.Compression(), t.w, t.h, t.flags.HasMipmaps(), t.Data())
	if err != nil {
		return err
	}
	flags := t.flags &^ DXT
	if bpp == 32 {
		flags |= Alpha
	}
	t.replace(data, bpp, flags)
	return nil
}

// compressTex converts plain data to the DXT kind named by t.flags^mask. Any
// other bits in mask (alpha, row order, channel order, mipmaps) are applied
// first by the plain transformer.
func compressTex(t *Tex, mask Flags) error {
	target := t.flags ^ mask
	kind := target.Compression()
	switch {
	case kind == s3tc.DXT1 && !target.HasAlpha():
	case (kind == s3tc.DXT3 || kind == s3tc.DXT5) && target.HasAlpha():
	default:
		return fmt.Errorf("compress to %s: %w", target, ErrCannotHandle)
	}
	if target.IsBGR() || target.IsGrey() {
		return fmt.Errorf("compress to %s: %w", target, ErrCannotHandle)
	}

	if rest := mask &^ DXT; rest != 0 {
		apply := plainTransform
		if t.flags.HasMipmaps() {
			apply = chainTransform
		}
		if err := apply(t, rest); err != nil {
			return err
		}
	}
	data, err := s3tc.Compress(kind, t.w, t.h, t.bpp, t.flags.HasMipmaps(), t.Data())
	if err != nil {
		return err
	}
	t.replace(data, kind.Bpp(), t.flags.WithCompression(kind))
	return nil
}

func (ddsCodec) Encode(t *Tex, buf *bytes.Buffer, _ EncodeOptions) error {
	if !t.flags.IsCompressed() {
		if err := ddsPlain(t); err != nil {
			return err
		}
	}

	var hdr [ddsHeaderSize]byte
	put := func(off int, v uint32) { binary.LittleEndian.PutUint32(hdr[off:], v) }

	copy(hdr[:], ddsMagic)
	put(ddsOffSize, ddsHeaderSize-4)
	sdFlags := uint32(ddsdRequired)
	caps := uint32(ddscapsTexture)

	storedW, storedH := t.w, t.h
	if t.flags.IsCompressed() {
		storedW, storedH = (t.w+3)&^3, (t.h+3)&^3
	}
	pitch := storedW * t.bpp / 8
	if t.flags.IsCompressed() {
		sdFlags |= ddsdLinearSize
		put(ddsOffPitchOrSize, uint32(pitch*storedH))
	} else {
		sdFlags |= ddsdPitch
		put(ddsOffPitchOrSize, uint32((pitch+3)&^3))
	}
	if t.flags.HasMipmaps() {
		sdFlags |= ddsdMipmapCount
		caps |= ddscapsComplex | ddscapsMipmap
		put(ddsOffMipmapCount, uint32(mipmap.CeilLog2(max(t.w, t.h))+1))
	}
	put(ddsOffFlags, sdFlags)
	put(ddsOffHeight, uint32(t.h))
	put(ddsOffWidth, uint32(t.w))
	put(ddsOffCaps, caps)

	pf := ddsOffPixelFormat
	put(pf, ddsPfSize)
	switch {
	case t.flags.IsCompressed():
		pfFlags := uint32(ddpfFourCC)
		fourCC := fmt.Sprintf("DXT%d", t.flags.Compression())
		if t.flags.Compression() == s3tc.DXT1A {
			pfFlags |= ddpfAlphaPixels
			fourCC = "DXT1"
		}
		put(pf+4, pfFlags)
		copy(hdr[pf+8:pf+12], fourCC)
	case t.flags.IsGrey():
		put(pf+4, ddpfAlphaPixels)
		put(pf+12, 8)
		put(pf+28, 0xFF)
	default:
		pfFlags := uint32(ddpfRGB)
		if t.flags.HasAlpha() {
			pfFlags |= ddpfAlphaPixels
			put(pf+28, 0xFF000000)
		}
		put(pf+4, pfFlags)
		put(pf+12, uint32(t.bpp))
		put(pf+16, 0x000000FF)
		put(pf+20, 0x0000FF00)
		put(pf+24, 0x00FF0000)
	}

	buf.Write(hdr[:])
	buf.Write(t.Data()[:t.ImgSize()])
	return nil
}

// ddsPlain puts uncompressed data in RGB order. Single-level images are also
// flipped to top-down; a mipmap chain cannot be flipped so its row order is
// left alone.
func ddsPlain(t *Tex) error {
	if !t.flags.HasMipmaps() {
		target := t.flags &^ BGR
		if t.flags.Orientation() != 0 {
			target = target&^Orientation | TopDown
		}
		return t.TransformTo(target)
	}
	if t.flags.IsBGR() {
		return chainTransform(t, BGR)
	}
	return nil
}

// chainTransform swaps channels or adds alpha across a mipmapped plain
// chain. Every level is packed pixels, so the chain is handled as one long
// row. Row flips need per-level geometry and are not done here.
func chainTransform(t *Tex, mask Flags) error {
	if mask&^(BGR|Alpha) != 0 {
		return fmt.Errorf("%s on a mipmap chain: %w", mask&^(BGR|Alpha), ErrCannotHandle)
	}
	row := &Tex{
		w:     t.ImgSize() / (t.bpp / 8),
		h:     1,
		bpp:   t.bpp,
		flags: t.flags &^ (Mipmaps | Orientation),
		buf:   t.Data()[:t.ImgSize()],
	}
	if err := plainTransform(row, mask); err != nil {
		return err
	}
	t.replace(row.buf, row.bpp, t.flags^mask)
	return nil
}
