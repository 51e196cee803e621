// Package composite 把前景掩码合成到源图的 alpha 通道
package composite

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
)

// ErrDimensionMismatch 掩码与源图尺寸不一致
var ErrDimensionMismatch = errors.New("mask dimensions do not match image")

// Apply 掩码 alpha 为 0 的像素把 dst 的 alpha 置 0，其余像素保持不变。
// 任何非 0 的掩码值都视为前景，没有羽化。尺寸不一致时 dst 不被修改。
func Apply(dst *image.NRGBA, mask *image.Alpha) error {
	if dst == nil || mask == nil {
		return fmt.Errorf("%w: nil buffer", ErrDimensionMismatch)
	}
	db, mb := dst.Bounds(), mask.Bounds()
	if db.Dx() != mb.Dx() || db.Dy() != mb.Dy() {
		return fmt.Errorf("%w: image %dx%d, mask %dx%d",
			ErrDimensionMismatch, db.Dx(), db.Dy(), mb.Dx(), mb.Dy())
	}

	w, h := db.Dx(), db.Dy()
	for y := 0; y < h; y++ {
		drow := dst.Pix[y*dst.Stride : y*dst.Stride+w*4]
		mrow := mask.Pix[y*mask.Stride : y*mask.Stride+w]
		for x, m := range mrow {
			if m == 0 {
				drow[x*4+3] = 0
			}
		}
	}
	return nil
}

// MaskFromImage 取任意图片的 alpha 通道作为掩码
func MaskFromImage(img image.Image) *image.Alpha {
	b := img.Bounds()
	if a, ok := img.(*image.Alpha); ok && b.Min == (image.Point{}) {
		return a
	}
	mask := image.NewAlpha(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(mask, mask.Bounds(), img, b.Min, draw.Src)
	return mask
}

// ForegroundBounds 前景像素的包围盒，没有前景时返回 false
func ForegroundBounds(mask *image.Alpha) (image.Rectangle, bool) {
	w, h := mask.Bounds().Dx(), mask.Bounds().Dy()

	minX, minY := w, h
	maxX, maxY := 0, 0
	found := false

	for y := 0; y < h; y++ {
		row := mask.Pix[y*mask.Stride : y*mask.Stride+w]
		for x, m := range row {
			if m == 0 {
				continue
			}
			found = true
			minX = min(minX, x)
			minY = min(minY, y)
			maxX = max(maxX, x)
			maxY = max(maxY, y)
		}
	}

	if !found {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}
