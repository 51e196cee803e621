package segment

import (
	"context"
	"image"
	"sync"

	"github.com/chaos-io/nobg/util"
	"go.uber.org/zap"
)

// Gate 模型只加载一次，加载完成前所有分割请求都会阻塞
type Gate struct {
	s     Segmenter
	once  sync.Once
	ready chan struct{}
	err   error
}

func NewGate(s Segmenter) *Gate {
	return &Gate{
		s:     s,
		ready: make(chan struct{}),
	}
}

// Start 在后台加载模型，重复调用无效
func (g *Gate) Start(ctx context.Context) {
	g.once.Do(func() {
		go func() {
			defer close(g.ready)
			defer util.Trace("segmenter load")()

			p, ok := g.s.(Preparer)
			if !ok {
				return
			}
			if err := p.Prepare(ctx); err != nil {
				g.err = err
				util.Logger.Error("segmenter load failed", zap.Error(err))
				return
			}
			util.Logger.Info("segmenter ready")
		}()
	})
}

func (g *Gate) Ready() <-chan struct{} {
	return g.ready
}

// Wait 等待加载结束，返回加载错误
func (g *Gate) Wait(ctx context.Context) error {
	g.Start(context.WithoutCancel(ctx))
	select {
	case <-g.ready:
	case <-ctx.Done():
		return ctx.Err()
	}
	if g.err != nil {
		return &Error{Op: "load", Err: g.err}
	}
	return nil
}

func (g *Gate) Segment(ctx context.Context, img *image.NRGBA, opts Options) (*image.Alpha, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := g.Wait(ctx); err != nil {
		return nil, wrap("load", err)
	}

	mask, err := g.s.Segment(ctx, img, opts)
	if err != nil {
		return nil, wrap("segment", err)
	}
	return mask, nil
}
