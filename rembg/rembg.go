package rembg

import (
	"context"
)

// Input 待处理的原始图片
type Input struct {
	Data        []byte
	Filename    string
	ContentType string
}

// Output 去背景后的图片
type Output struct {
	Data        []byte
	ContentType string
}

type Remover interface {
	Remove(ctx context.Context, in *Input) (*Output, error)
}
