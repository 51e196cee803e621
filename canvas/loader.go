package canvas

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultMaxDim 最长边上限
const DefaultMaxDim = 1200

// ErrDecode 输入无法解码为图片
var ErrDecode = errors.New("cannot decode image")

// Image 解码并缩放后的源图
type Image struct {
	Pix    *image.NRGBA
	Format string

	// 缩放前的尺寸
	OrigWidth  int
	OrigHeight int
}

func (i *Image) Width() int  { return i.Pix.Bounds().Dx() }
func (i *Image) Height() int { return i.Pix.Bounds().Dy() }

// Scaled 是否发生了缩放
func (i *Image) Scaled() bool {
	return i.Width() != i.OrigWidth || i.Height() != i.OrigHeight
}

// Load 解码图片，转为 NRGBA 并把最长边缩放到 maxDim 以内
func Load(r io.Reader, maxDim int) (*Image, error) {
	src, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	b := src.Bounds()
	pix := ResizeWithinMax(ToNRGBA(src), maxDim)

	return &Image{
		Pix:        pix,
		Format:     format,
		OrigWidth:  b.Dx(),
		OrigHeight: b.Dy(),
	}, nil
}

// LoadBytes Load 的字节版本
func LoadBytes(data []byte, maxDim int) (*Image, error) {
	return Load(bytes.NewReader(data), maxDim)
}

// ToNRGBA 转为原点在 (0,0) 的 NRGBA
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if nrgba, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return nrgba
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// HasUsefulAlpha 只要存在非 255 的 alpha，就认为已经抠过图
func HasUsefulAlpha(img *image.NRGBA) bool {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for i := 3; i < len(row); i += 4 {
			if row[i] != 255 {
				return true
			}
		}
	}
	return false
}
