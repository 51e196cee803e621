package model

import "image"

// ErrorResponse 错误响应
type ErrorResponse struct {
	Error string `json:"error"`
}

// SessionResponse 创建会话
type SessionResponse struct {
	ID string `json:"id"`
}

// ImageResponse 选择图片后的源图信息
type ImageResponse struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	OrigWidth  int    `json:"orig_width"`
	OrigHeight int    `json:"orig_height"`
	Format     string `json:"format"`
	Scaled     bool   `json:"scaled"`
}

// BBox 边界框
type BBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func NewBBox(r image.Rectangle) *BBox {
	return &BBox{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// RunResponse 一次合成的结果信息
type RunResponse struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Threshold  float64 `json:"threshold"`
	Mode       string  `json:"mode"`
	Resolution string  `json:"resolution"`
	Foreground *BBox   `json:"foreground,omitempty"`
	Filename   string  `json:"filename"`
}

// DataURLResponse 以 data URL 返回结果
type DataURLResponse struct {
	Filename string `json:"filename"`
	DataURL  string `json:"data_url"`
}
