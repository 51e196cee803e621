package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/chaos-io/nobg/rembg"
	"github.com/gin-gonic/gin"
)

const (
	imageField = "image"

	// multipart 边界和其它表单字段的余量
	formSlack = 64 * 1024
)

// readUpload 读取表单中的图片字段，超过 maxSize 的请求体不会被完整读入
func readUpload(c *gin.Context, maxSize int64) (*rembg.Input, error) {
	if maxSize > 0 {
		if c.Request.ContentLength > maxSize+formSlack {
			return nil, tooLarge(maxSize)
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize+formSlack)
	}

	file, err := c.FormFile(imageField)
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return nil, tooLarge(maxSize)
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			return nil, errMissingFile
		}
		return nil, fmt.Errorf("%w: %v", errMissingFile, err)
	}
	if maxSize > 0 && file.Size > maxSize {
		return nil, tooLarge(maxSize)
	}

	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	return &rembg.Input{
		Data:        data,
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
	}, nil
}

func tooLarge(maxSize int64) error {
	return fmt.Errorf("%w (limit %d MB)", errTooLarge, maxSize/(1024*1024))
}
