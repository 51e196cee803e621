package canvas

import (
	"image"
	"math"

	"github.com/nfnt/resize"
)

// FitWithin 计算缩放后的尺寸，最长边不超过 maxDim，不放大
func FitWithin(w, h, maxDim int) (int, int) {
	if maxDim <= 0 {
		maxDim = DefaultMaxDim
	}
	longest := max(w, h)
	if longest <= maxDim {
		return w, h
	}

	scale := float64(maxDim) / float64(longest)
	newW := max(1, int(math.Round(float64(w)*scale)))
	newH := max(1, int(math.Round(float64(h)*scale)))
	return newW, newH
}

// ResizeWithinMax 缩放（最长边 <= maxDim）
func ResizeWithinMax(img *image.NRGBA, maxDim int) *image.NRGBA {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()

	newW, newH := FitWithin(w, h, maxDim)
	if newW == w && newH == h {
		return img
	}

	resized := resize.Resize(uint(newW), uint(newH), img, resize.Lanczos3)
	return ToNRGBA(resized)
}
