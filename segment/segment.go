// Package segment 定义分割模型的调用边界以及掩码的阈值化与合并
package segment

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/chaos-io/nobg/composite"
)

//go:generate mockgen -destination=mocks/segmenter.go -package=mocks . Segmenter
type Segmenter interface {
	// Segment 返回与 img 同尺寸的前景掩码，alpha 255 为前景，0 为背景
	Segment(ctx context.Context, img *image.NRGBA, opts Options) (*image.Alpha, error)
}

// Preparer 需要预先加载模型的分割器
type Preparer interface {
	Prepare(ctx context.Context) error
}

// Error 分割调用失败
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("segmentation %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrap(op string, err error) error {
	var segErr *Error
	if errors.As(err, &segErr) {
		return err
	}
	return &Error{Op: op, Err: err}
}

// ProbabilityMap 把模型输出转为灰度概率图。
// 带透明信息的图使用 alpha 通道，不透明的图使用亮度。
func ProbabilityMap(img image.Image) *image.Gray {
	b := img.Bounds()
	if g, ok := img.(*image.Gray); ok && b.Min == (image.Point{}) {
		return g
	}

	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	if o, ok := img.(interface{ Opaque() bool }); ok && !o.Opaque() {
		alpha := composite.MaskFromImage(img)
		for y := 0; y < h; y++ {
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+w], alpha.Pix[y*alpha.Stride:y*alpha.Stride+w])
		}
		return dst
	}
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// Threshold 概率 p/255 >= t 的像素判为前景
func Threshold(prob *image.Gray, t float64) *image.Alpha {
	var lut [256]uint8
	for p := 0; p < 256; p++ {
		if float64(p) >= t*255 {
			lut[p] = 255
		}
	}

	w, h := prob.Bounds().Dx(), prob.Bounds().Dy()
	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		src := prob.Pix[y*prob.Stride : y*prob.Stride+w]
		dst := mask.Pix[y*mask.Stride : y*mask.Stride+w]
		for x, p := range src {
			dst[x] = lut[p]
		}
	}
	return mask
}

// Union 多主体掩码取并集
func Union(masks ...*image.Alpha) (*image.Alpha, error) {
	if len(masks) == 0 {
		return nil, errors.New("no masks to merge")
	}

	w, h := masks[0].Bounds().Dx(), masks[0].Bounds().Dy()
	out := image.NewAlpha(image.Rect(0, 0, w, h))
	for i, m := range masks {
		if m.Bounds().Dx() != w || m.Bounds().Dy() != h {
			return nil, fmt.Errorf("%w: subject %d is %dx%d, want %dx%d",
				composite.ErrDimensionMismatch, i, m.Bounds().Dx(), m.Bounds().Dy(), w, h)
		}
		for y := 0; y < h; y++ {
			src := m.Pix[y*m.Stride : y*m.Stride+w]
			dst := out.Pix[y*out.Stride : y*out.Stride+w]
			for x, v := range src {
				if v != 0 {
					dst[x] = 255
				}
			}
		}
	}
	return out, nil
}

// Reduce 按模式把各主体掩码合并为一个：单主体取第一个，多主体取并集
func Reduce(mode Mode, masks []*image.Alpha, w, h int) (*image.Alpha, error) {
	if len(masks) == 0 {
		return image.NewAlpha(image.Rect(0, 0, w, h)), nil
	}
	if mode == ModeSingle {
		masks = masks[:1]
	}
	return Union(masks...)
}
