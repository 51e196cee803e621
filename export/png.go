package export

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"
)

// Filename 下载时建议的文件名
const Filename = "no-bg.png"

const ContentType = "image/png"

// PNG 编码为 PNG，不提供压缩级别配置
func PNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("png encode: %w", err)
	}
	return nil
}

func Bytes(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := PNG(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DataURL 编码为 data:image/png;base64,...
func DataURL(img image.Image) (string, error) {
	data, err := Bytes(img)
	if err != nil {
		return "", err
	}
	return "data:" + ContentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func ContentDisposition() string {
	return fmt.Sprintf("attachment; filename=%q", Filename)
}
