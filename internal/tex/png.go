package tex

import (
	"bytes"
	"fmt"
	"image/png"
)

const (
	pngIHDREnd = 26

	pngGrey      = 0
	pngRGB       = 2
	pngPalette   = 3
	pngGreyAlpha = 4
	pngRGBA      = 6
)

// pngCodec handles 8-bit grey, RGB and RGBA PNG files.
type pngCodec struct{ noTransform }

func (pngCodec) Name() string { return "png" }

func (pngCodec) IsHeader(b []byte) bool {
	return string(b[:4]) == "\x89PNG"
}

func (pngCodec) IsExtension(ext string) bool { return hasExtension(ext, ".png") }

// HeaderSize is zero: the whole file goes to the decoder.
func (pngCodec) HeaderSize([]byte) int { return 0 }

func (pngCodec) Decode(file []byte, t *Tex, _ func(error)) error {
	if len(file) < pngIHDREnd {
		return fmt.Errorf("%w: no IHDR", ErrIncompleteHeader)
	}
	// IHDR is always the first chunk: signature(8) length(4) type(4) w(4) h(4)
	depth, colorType := file[24], file[25]
	if depth != 8 {
		return fmt.Errorf("%w: bit depth %d", ErrInvalidColorType, depth)
	}
	switch colorType {
	case pngGrey, pngRGB, pngRGBA:
	case pngPalette, pngGreyAlpha:
		return fmt.Errorf("%w: colour type %d", ErrInvalidColorType, colorType)
	default:
		return fmt.Errorf("%w: colour type %d", ErrInvalidFormat, colorType)
	}

	img, err := png.Decode(bytes.NewReader(file))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	d, err := FromImage(img)
	if err != nil {
		return err
	}
	*t = *d
	return nil
}

func (pngCodec) Encode(t *Tex, buf *bytes.Buffer, _ EncodeOptions) error {
	if err := toPlain(t, false, TopDown); err != nil {
		return err
	}
	return png.Encode(buf, plainImage(t))
}
