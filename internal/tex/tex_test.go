package tex

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustWrap(t *testing.T, w, h, bpp int, flags Flags, data []byte) *Tex {
	t.Helper()
	tx, err := Wrap(w, h, bpp, flags, data, 0)
	require.NoError(t, err)
	return tx
}

// solid fills a w*h image with one pixel value.
func solid(w, h int, px ...byte) []byte {
	return bytes.Repeat(px, w*h)
}

// ramp fills n bytes with 0, 1, 2, ...
func ramp(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func TestWrapValidate(t *testing.T) {
	tests := []struct {
		name    string
		bpp     int
		flags   Flags
		size    int
		wantErr error
	}{
		{"plain rgb", 24, BottomUp, 4 * 4 * 3, nil},
		{"undefined bit", 24, 0x200, 4 * 4 * 3, ErrInvalidFlags},
		{"dxt field 2", 4, 2, 8, ErrInvalidFlags},
		{"both orientations", 24, TopDown | BottomUp, 4 * 4 * 3, ErrInvalidFlags},
		{"bpp not multiple of 4", 18, 0, 4 * 4 * 3, ErrInvalidBpp},
		{"bpp over 32", 48, 0, 4 * 4 * 6, ErrInvalidBpp},
		{"short buffer", 24, 0, 4*4*3 - 1, ErrInvalidSize},
		{"dxt1a", 4, DXT1A | Alpha, 8, nil},
		{"dxt1a without alpha", 4, DXT1A, 8, ErrInvalidFlags},
		{"dxt3 without alpha", 8, Flags(3), 16, ErrInvalidFlags},
		{"dxt5 without alpha", 8, Flags(5), 16, ErrInvalidFlags},
		{"dxt1 with alpha", 4, Flags(1) | Alpha, 8, ErrInvalidFlags},
		{"dxt5 at 4 bpp", 4, Flags(5) | Alpha, 16, ErrInvalidBpp},
		{"dxt1 at 8 bpp", 8, Flags(1), 16, ErrInvalidBpp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Wrap(4, 4, tt.bpp, tt.flags, make([]byte, tt.size), 0)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWrapDimensionLimit(t *testing.T) {
	_, err := Wrap(MaxDimension, 1, 8, Grey, make([]byte, MaxDimension), 0)
	require.NoError(t, err)

	for _, dims := range [][2]int{{MaxDimension + 1, 1}, {1, MaxDimension + 1}, {0x7FFFFFFF, 0x7FFFFFFF}} {
		_, err := Wrap(dims[0], dims[1], 32, 0, make([]byte, 64), 0)
		require.ErrorIs(t, err, ErrInvalidSize, "%dx%d", dims[0], dims[1])
	}
}

func TestWrappedDXTDecompresses(t *testing.T) {
	tests := []struct {
		name     string
		bpp      int
		flags    Flags
		size     int
		wantBpp  int
		wantFlag Flags
	}{
		{"dxt1", 4, Flags(1), 8, 24, 0},
		{"dxt1a", 4, DXT1A | Alpha, 8, 32, Alpha},
		{"dxt3", 8, Flags(3) | Alpha, 16, 32, Alpha},
		{"dxt5", 8, Flags(5) | Alpha, 16, 32, Alpha},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := mustWrap(t, 4, 4, tt.bpp, tt.flags, make([]byte, tt.size))
			require.NoError(t, tx.TransformTo(tt.flags&^DXT))
			require.Equal(t, tt.wantFlag, tx.Flags())
			require.Equal(t, tt.wantBpp, tx.Bpp())
			require.Len(t, tx.Data(), 16*tt.wantBpp/8)
		})
	}
}

func TestWrapOffset(t *testing.T) {
	buf := append([]byte{0xAA, 0xBB}, solid(2, 2, 1, 2, 3)...)
	tx, err := Wrap(2, 2, 24, 0, buf, 2)
	require.NoError(t, err)
	require.Equal(t, 2, tx.Offset())
	require.Equal(t, len(buf), tx.DataSize())
	require.Equal(t, solid(2, 2, 1, 2, 3), tx.Data())

	_, err = Wrap(2, 2, 24, 0, buf, 3)
	require.ErrorIs(t, err, ErrInvalidSize)
}

func TestImgSize(t *testing.T) {
	tests := []struct {
		name   string
		w, h   int
		bpp    int
		flags  Flags
		expect int
	}{
		{"rgb", 4, 4, 24, 0, 48},
		{"rgb mipmaps", 4, 4, 24, Mipmaps, 48 + 12 + 3},
		{"grey non square mipmaps", 4, 2, 8, Grey | Mipmaps, 8 + 2 + 1},
		{"dxt1", 8, 8, 4, Flags(0).WithCompression(1), 32},
		{"dxt1 mipmaps", 8, 8, 4, Flags(1) | Mipmaps, 32 + 8 + 8 + 8},
		{"dxt5 odd size", 5, 3, 8, Flags(5) | Alpha, 2 * 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := mustWrap(t, tt.w, tt.h, tt.bpp, tt.flags, make([]byte, tt.expect))
			require.Equal(t, tt.expect, tx.ImgSize())
		})
	}
}

func TestDataTakeClone(t *testing.T) {
	var empty Tex
	require.Nil(t, empty.Data())
	require.False(t, empty.HasData())

	tx := mustWrap(t, 2, 1, 24, 0, []byte{1, 2, 3, 4, 5, 6})
	c := tx.Clone()
	c.Data()[0] = 99
	require.Equal(t, byte(1), tx.Data()[0])

	data := tx.Take()
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6}, data)
	require.Nil(t, tx.Data())
	require.Equal(t, 2, tx.Width())

	err := tx.Transform(BGR)
	require.ErrorIs(t, err, ErrNoData)
}

func TestTransformFlagsRoundTrip(t *testing.T) {
	masks := []Flags{
		BGR,
		Orientation,
		Alpha,
		Mipmaps,
		BGR | Alpha,
		BGR | Orientation,
		Alpha | Orientation | BGR,
		Alpha | Mipmaps,
	}
	for _, mask := range masks {
		t.Run(mask.String(), func(t *testing.T) {
			tx := mustWrap(t, 4, 4, 24, BGR|BottomUp, ramp(4*4*3))
			orig := tx.Flags()
			require.NoError(t, tx.Transform(mask))
			require.Equal(t, orig^mask, tx.Flags())
			require.NoError(t, tx.Validate())
		})
	}
}

func TestTransformZeroMask(t *testing.T) {
	tx := mustWrap(t, 2, 2, 24, 0, ramp(12))
	require.NoError(t, tx.Transform(0))
	require.Equal(t, ramp(12), tx.Data())
}

func TestBGRSelfInverse(t *testing.T) {
	for _, bpp := range []int{24, 32} {
		flags := Flags(0)
		if bpp == 32 {
			flags = Alpha
		}
		orig := ramp(3 * 5 * bpp / 8)
		tx := mustWrap(t, 3, 5, bpp, flags, append([]byte(nil), orig...))

		require.NoError(t, tx.Transform(BGR))
		require.NotEqual(t, orig, tx.Data())
		require.Equal(t, orig[2], tx.Data()[0])
		require.Equal(t, orig[0], tx.Data()[2])

		require.NoError(t, tx.Transform(BGR))
		require.Equal(t, orig, tx.Data())
		require.Equal(t, flags, tx.Flags())
	}
}

func TestAlphaAddIsOneDirectional(t *testing.T) {
	tx := mustWrap(t, 2, 2, 24, 0, ramp(12))
	require.NoError(t, tx.Transform(Alpha))
	require.Equal(t, 32, tx.Bpp())
	require.Equal(t, Alpha, tx.Flags())
	data := tx.Data()
	for i := range 4 {
		require.Equal(t, []byte{byte(i * 3), byte(i*3 + 1), byte(i*3 + 2), 0xFF}, data[i*4:i*4+4])
	}

	before := append([]byte(nil), tx.Data()...)
	err := tx.Transform(Alpha)
	require.ErrorIs(t, err, ErrCannotHandle)
	require.Equal(t, 32, tx.Bpp())
	require.Equal(t, Alpha, tx.Flags())
	require.Equal(t, before, tx.Data())
}

func TestPlainTransformCannotHandle(t *testing.T) {
	grey := mustWrap(t, 2, 2, 8, Grey, ramp(4))
	require.ErrorIs(t, grey.Transform(Alpha), ErrCannotHandle)
	require.ErrorIs(t, grey.Transform(BGR), ErrCannotHandle)
	require.Equal(t, Grey, grey.Flags())

	// plain data cannot become DXT1a
	rgb := mustWrap(t, 4, 4, 32, Alpha, ramp(64))
	require.ErrorIs(t, rgb.TransformTo(DXT1A|Alpha), ErrCannotHandle)
}

func TestFlipRows(t *testing.T) {
	tx := mustWrap(t, 2, 3, 8, Grey|BottomUp, []byte{1, 2, 3, 4, 5, 6})
	size := tx.ImgSize()
	require.NoError(t, tx.TransformTo(Grey|TopDown))
	require.Equal(t, []byte{5, 6, 3, 4, 1, 2}, tx.Data())
	require.Equal(t, size, tx.ImgSize())
}

func TestFlipAndSwapTogether(t *testing.T) {
	tx := mustWrap(t, 1, 2, 24, BGR|TopDown, []byte{1, 2, 3, 4, 5, 6})
	require.NoError(t, tx.TransformTo(BottomUp))
	require.Equal(t, []byte{6, 5, 4, 3, 2, 1}, tx.Data())
}

func TestTransformFailureLeavesTexUnchanged(t *testing.T) {
	data := ramp(3 * 4 * 3)
	tx := mustWrap(t, 3, 4, 24, BGR|TopDown, data)
	// BGR would succeed, mipmaps cannot: 3 is not a power of two
	err := tx.Transform(BGR | Mipmaps)
	require.ErrorIs(t, err, ErrInvalidSize)
	require.Equal(t, BGR|TopDown, tx.Flags())
	require.Equal(t, 24, tx.Bpp())
	require.Equal(t, ramp(3*4*3), tx.Data())
}

func TestMipmapsUniformColour(t *testing.T) {
	tx := mustWrap(t, 4, 4, 24, 0, solid(4, 4, 200, 100, 50))
	require.NoError(t, tx.Transform(Mipmaps))
	require.Equal(t, Mipmaps, tx.Flags())

	levels := tx.Levels()
	require.Len(t, levels, 3)
	data := tx.Data()
	for _, lvl := range levels {
		require.Equal(t, solid(lvl.Width, lvl.Height, 200, 100, 50), data[lvl.Offset:lvl.Offset+lvl.Size])
	}
}

func TestMipmapsBoxFilter(t *testing.T) {
	tx := mustWrap(t, 2, 2, 8, Grey, []byte{0, 1, 2, 3})
	require.NoError(t, tx.Transform(Mipmaps))
	require.Equal(t, []byte{0, 1, 2, 3, 2}, tx.Data())

	line := mustWrap(t, 4, 1, 8, Grey, []byte{10, 20, 30, 41})
	require.NoError(t, line.Transform(Mipmaps))
	require.Equal(t, []byte{10, 20, 30, 41, 15, 36, 26}, line.Data())

	column := mustWrap(t, 1, 4, 8, Grey, []byte{10, 20, 30, 41})
	require.NoError(t, column.Transform(Mipmaps))
	require.Equal(t, line.Data(), column.Data())
}

func TestMipmappedPlainRejectsFurtherPlainWork(t *testing.T) {
	tx := mustWrap(t, 2, 2, 24, Mipmaps, make([]byte, 15))
	err := tx.Transform(BGR)
	require.ErrorIs(t, err, ErrInvalidFormat)

	// stripping mipmaps is a flag change only
	require.NoError(t, tx.Transform(Mipmaps))
	require.Equal(t, Flags(0), tx.Flags())
	require.Equal(t, 12, tx.ImgSize())
	require.Equal(t, 15, tx.DataSize())
}

func TestAverageColour(t *testing.T) {
	tx := mustWrap(t, 2, 2, 24, 0, []byte{
		0, 0, 0, 100, 100, 100,
		40, 80, 120, 100, 20, 0,
	})
	require.Equal(t, uint32(0), tx.AverageColour())

	require.NoError(t, tx.Transform(Mipmaps))
	// r=(0+100+40+100+2)/4=60 g=(0+100+80+20+2)/4=50 b=(0+100+120+0+2)/4=55
	require.Equal(t, uint32(55)|50<<8|60<<16|0xFF<<24, tx.AverageColour())
	// the texture itself is untouched
	require.Equal(t, Mipmaps, tx.Flags())
}

func TestAverageColourGreyIsUnavailable(t *testing.T) {
	tx := mustWrap(t, 2, 2, 8, Grey, []byte{1, 2, 3, 4})
	require.NoError(t, tx.Transform(Mipmaps))
	require.Equal(t, uint32(0), tx.AverageColour())
}

func TestFlagsString(t *testing.T) {
	require.Equal(t, "plain", Flags(0).String())
	require.Equal(t, "DXT5|alpha|top-down|mipmaps", (Flags(5) | Alpha | TopDown | Mipmaps).String())
	require.Equal(t, "bgr|0x200", (BGR | 0x200).String())
}

func TestParseOrientation(t *testing.T) {
	o, err := ParseOrientation("Bottom-Up")
	require.NoError(t, err)
	require.Equal(t, BottomUp, o)

	o, err = ParseOrientation("")
	require.NoError(t, err)
	require.Equal(t, TopDown, o)

	_, err = ParseOrientation("sideways")
	require.ErrorIs(t, err, ErrInvalidFlags)
}
