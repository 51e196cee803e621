package rembg

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/chaos-io/nobg/canvas"
	"github.com/chaos-io/nobg/composite"
	"github.com/chaos-io/nobg/segment"
	"github.com/chaos-io/nobg/segment/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func fullMask(w, h int) *image.Alpha {
	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	for i := range mask.Pix {
		mask.Pix[i] = 255
	}
	return mask
}

func TestLocal_EndToEnd(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	seg := mocks.NewMockSegmenter(ctrl)
	seg.EXPECT().
		Segment(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, img *image.NRGBA, _ segment.Options) (*image.Alpha, error) {
			assert.Equal(t, image.Rect(0, 0, 1200, 600), img.Bounds())
			return fullMask(1200, 600), nil
		})

	l := NewLocal(seg, canvas.DefaultMaxDim, segment.DefaultOptions())
	out, err := l.Remove(context.Background(), &Input{Data: jpegBytes(t, 2000, 1000)})
	require.NoError(t, err)
	assert.Equal(t, "image/png", out.ContentType)

	decoded, err := png.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 1200, 600), decoded.Bounds())
	for y := 0; y < 600; y += 7 {
		for x := 0; x < 1200; x += 11 {
			_, _, _, a := decoded.At(x, y).RGBA()
			require.Equal(t, uint32(0xffff), a, "pixel %d,%d", x, y)
		}
	}
}

func TestLocal_Composite_KeepsSource(t *testing.T) {
	t.Parallel()

	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	copy(src.Pix, []uint8{1, 2, 3, 255, 4, 5, 6, 255})
	in := &canvas.Image{Pix: src, OrigWidth: 2, OrigHeight: 1}

	mask := image.NewAlpha(image.Rect(0, 0, 2, 1))
	copy(mask.Pix, []uint8{0, 255})

	ctrl := gomock.NewController(t)
	seg := mocks.NewMockSegmenter(ctrl)
	seg.EXPECT().Segment(gomock.Any(), src, gomock.Any()).Return(mask, nil)

	res, err := NewLocal(seg, 0, segment.DefaultOptions()).Composite(context.Background(), in, segment.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []uint8{1, 2, 3, 0, 4, 5, 6, 255}, res.Composite.Pix)
	assert.Equal(t, []uint8{1, 2, 3, 255, 4, 5, 6, 255}, src.Pix)
	assert.True(t, res.HasForeground)
	assert.Equal(t, image.Rect(1, 0, 2, 1), res.Foreground)
	assert.Equal(t, 2, res.Width())
	assert.Equal(t, 1, res.Height())
}

func TestLocal_Errors(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	seg := mocks.NewMockSegmenter(ctrl)
	l := NewLocal(seg, 100, segment.DefaultOptions())

	// 解码失败时不会调用分割
	_, err := l.Run(context.Background(), []byte("garbage"), segment.DefaultOptions())
	assert.ErrorIs(t, err, canvas.ErrDecode)

	seg.EXPECT().Segment(gomock.Any(), gomock.Any(), gomock.Any()).Return(fullMask(3, 3), nil)
	_, err = l.Run(context.Background(), jpegBytes(t, 40, 20), segment.DefaultOptions())
	assert.ErrorIs(t, err, composite.ErrDimensionMismatch)

	modelErr := &segment.Error{Op: "segment", Err: errors.New("model crashed")}
	seg.EXPECT().Segment(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, modelErr)
	_, err = l.Run(context.Background(), jpegBytes(t, 40, 20), segment.DefaultOptions())
	var segErr *segment.Error
	assert.True(t, errors.As(err, &segErr))
}

func TestLocal_WithAlphaMatte(t *testing.T) {
	t.Parallel()

	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := range src.Pix {
		src.Pix[i] = 255
	}
	src.SetNRGBA(0, 0, color.NRGBA{R: 9, G: 9, B: 9, A: 10})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	l := NewLocal(segment.NewGate(segment.NewAlphaMatte()), 0, segment.DefaultOptions())
	res, err := l.Run(context.Background(), buf.Bytes(), segment.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, color.NRGBA{R: 9, G: 9, B: 9, A: 0}, res.Composite.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, res.Composite.NRGBAAt(3, 3))
	assert.Equal(t, canvas.DefaultMaxDim, l.MaxDim())
}
