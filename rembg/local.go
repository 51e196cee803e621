package rembg

import (
	"context"
	"fmt"
	"image"
	"image/draw"

	"github.com/chaos-io/nobg/canvas"
	"github.com/chaos-io/nobg/composite"
	"github.com/chaos-io/nobg/export"
	"github.com/chaos-io/nobg/segment"
	"github.com/chaos-io/nobg/util"
	"go.uber.org/zap"
)

// Local 本地推理：解码缩放 -> 分割 -> 合成 alpha -> 导出 PNG
type Local struct {
	seg    segment.Segmenter
	maxDim int
	opts   segment.Options
}

func NewLocal(seg segment.Segmenter, maxDim int, opts segment.Options) *Local {
	if maxDim <= 0 {
		maxDim = canvas.DefaultMaxDim
	}
	return &Local{
		seg:    seg,
		maxDim: maxDim,
		opts:   opts,
	}
}

func (l *Local) MaxDim() int { return l.maxDim }

func (l *Local) Options() segment.Options { return l.opts }

// Result 一次合成的结果
type Result struct {
	Composite *image.NRGBA
	PNG       []byte
	Options   segment.Options

	// 前景包围盒，HasForeground 为 false 时无意义
	Foreground    image.Rectangle
	HasForeground bool
}

func (r *Result) Width() int  { return r.Composite.Bounds().Dx() }
func (r *Result) Height() int { return r.Composite.Bounds().Dy() }

func (l *Local) Remove(ctx context.Context, in *Input) (*Output, error) {
	res, err := l.Run(ctx, in.Data, l.opts)
	if err != nil {
		return nil, err
	}
	return &Output{Data: res.PNG, ContentType: export.ContentType}, nil
}

// Run 从原始字节开始处理
func (l *Local) Run(ctx context.Context, data []byte, opts segment.Options) (*Result, error) {
	src, err := l.Load(data)
	if err != nil {
		return nil, err
	}
	return l.Composite(ctx, src, opts)
}

func (l *Local) Load(data []byte) (*canvas.Image, error) {
	return canvas.LoadBytes(data, l.maxDim)
}

// Composite 对已加载的源图做分割与合成，源图本身不会被修改
func (l *Local) Composite(ctx context.Context, src *canvas.Image, opts segment.Options) (*Result, error) {
	defer util.Trace("composite")()

	mask, err := l.seg.Segment(ctx, src.Pix, opts)
	if err != nil {
		return nil, err
	}

	b := src.Pix.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), src.Pix, b.Min, draw.Src)
	if err := composite.Apply(out, mask); err != nil {
		return nil, err
	}

	data, err := export.Bytes(out)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	bbox, found := composite.ForegroundBounds(mask)
	util.Logger.Debug("composited",
		zap.Int("width", out.Bounds().Dx()),
		zap.Int("height", out.Bounds().Dy()),
		zap.Bool("has_foreground", found),
		zap.Stringer("options", opts))

	return &Result{
		Composite:     out,
		PNG:           data,
		Options:       opts,
		Foreground:    bbox,
		HasForeground: found,
	}, nil
}
