package segment

import (
	"context"
	"image"

	"github.com/chaos-io/nobg/composite"
)

// AlphaMatte 直接使用源图自带的 alpha 作为概率图，适用于已经抠过图的输入
type AlphaMatte struct{}

func NewAlphaMatte() *AlphaMatte {
	return &AlphaMatte{}
}

func (a *AlphaMatte) Segment(ctx context.Context, img *image.NRGBA, opts Options) (*image.Alpha, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	alpha := composite.MaskFromImage(img)
	prob := &image.Gray{Pix: alpha.Pix, Stride: alpha.Stride, Rect: alpha.Rect}
	return Threshold(prob, opts.Threshold), nil
}
