package tex

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	bmpFileHeaderSize = 14
	bmpInfoHeaderSize = 40
	bmpHeaderSize     = bmpFileHeaderSize + bmpInfoHeaderSize

	biRGB = 0
)

// bmpCodec handles uncompressed (BI_RGB) 24 and 32 bpp Windows bitmaps.
type bmpCodec struct{ noTransform }

func (bmpCodec) Name() string { return "bmp" }

func (bmpCodec) IsHeader(b []byte) bool {
	return b[0] == 'B' && b[1] == 'M'
}

func (bmpCodec) IsExtension(ext string) bool { return hasExtension(ext, ".bmp") }

func (bmpCodec) HeaderSize(file []byte) int {
	if file == nil {
		return bmpHeaderSize
	}
	return int(binary.LittleEndian.Uint32(file[10:]))
}

func bmpPitch(w, bpp int) int {
	return (w*bpp/8 + 3) &^ 3
}

func (bmpCodec) Decode(file []byte, t *Tex, _ func(error)) error {
	info := file[bmpFileHeaderSize:]
	w := int(int32(binary.LittleEndian.Uint32(info[4:])))
	h := int(int32(binary.LittleEndian.Uint32(info[8:])))
	bpp := int(binary.LittleEndian.Uint16(info[14:]))
	compression := binary.LittleEndian.Uint32(info[16:])

	if compression != biRGB {
		return fmt.Errorf("%w: biCompression %d", ErrCompressed, compression)
	}
	if bpp != 24 && bpp != 32 {
		return fmt.Errorf("%w: %d bpp", ErrInvalidColorType, bpp)
	}
	if t.ofs < bmpHeaderSize {
		return fmt.Errorf("%w: pixel data offset %d inside header", ErrInvalidFormat, t.ofs)
	}
	if w <= 0 || h == 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, w, h)
	}

	flags := BGR | BottomUp
	if h < 0 {
		h = -h
		flags = BGR | TopDown
	}
	if bpp == 32 {
		flags |= Alpha
	}
	if w > MaxDimension || h > MaxDimension {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, w, h)
	}

	pitch := bmpPitch(w, bpp)
	if need := t.ofs + pitch*h; len(file) < need {
		return fmt.Errorf("%w: %d bytes of pixels, need %d", ErrInvalidSize, len(file)-t.ofs, pitch*h)
	}

	t.w, t.h, t.bpp, t.flags = w, h, bpp, flags
	if rowBytes := w * bpp / 8; rowBytes != pitch {
		t.replace(packRows(file, pitch, t.ofs, rowBytes, h), bpp, flags)
	}
	return nil
}

func (bmpCodec) Encode(t *Tex, buf *bytes.Buffer, _ EncodeOptions) error {
	if t.flags.IsGrey() {
		return fmt.Errorf("%w: grey bitmaps are not written", ErrInvalidColorType)
	}
	if err := toPlain(t, true, 0); err != nil {
		return err
	}

	rowBytes := t.w * t.bpp / 8
	pitch := bmpPitch(t.w, t.bpp)
	height := int32(t.h)
	if t.flags.Orientation() == TopDown {
		height = -height
	}

	var hdr [bmpHeaderSize]byte
	put16 := func(off int, v uint16) { binary.LittleEndian.PutUint16(hdr[off:], v) }
	put32 := func(off int, v uint32) { binary.LittleEndian.PutUint32(hdr[off:], v) }

	hdr[0], hdr[1] = 'B', 'M'
	put32(2, uint32(bmpHeaderSize+pitch*t.h)) // bfSize
	put32(10, bmpHeaderSize)                  // bfOffBits
	put32(14, bmpInfoHeaderSize)              // biSize
	put32(18, uint32(t.w))                    // biWidth
	put32(22, uint32(height))                 // biHeight
	put16(26, 1)                              // biPlanes
	put16(28, uint16(t.bpp))                  // biBitCount
	put32(30, biRGB)                          // biCompression
	put32(34, uint32(pitch*t.h))              // biSizeImage
	buf.Write(hdr[:])

	data := t.Data()
	var pad [3]byte
	for y := range t.h {
		buf.Write(data[y*rowBytes : (y+1)*rowBytes])
		buf.Write(pad[:pitch-rowBytes])
	}
	return nil
}
