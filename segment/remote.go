package segment

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"

	"github.com/chaos-io/nobg/util"
	nhttp "github.com/chaos-io/nobg/util/http"
	"go.uber.org/zap"
)

// Remote 通过 HTTP 调用外部人像分割服务
//
//	curl -X POST "$ENDPOINT" \
//	  -F "image=@image.png" \
//	  -F "internal_resolution=medium" \
//	  -F "mode=multi"
//
//	{"width": 640, "height": 480, "masks": ["<base64 png>", ...]}
//
// 每个 mask 是一张概率图，按置信度从高到低排列。
type Remote struct {
	endpoint  string
	healthURL string
	cli       nhttp.IClient
}

func NewRemote(endpoint, healthURL string, cli nhttp.IClient) *Remote {
	if cli == nil {
		cli = nhttp.NewHTTPClient()
	}
	return &Remote{
		endpoint:  endpoint,
		healthURL: healthURL,
		cli:       cli,
	}
}

type segmentResp struct {
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Masks  []string `json:"masks"`
}

// Prepare 等待分割服务就绪
func (r *Remote) Prepare(ctx context.Context) error {
	if r.healthURL == "" {
		return nil
	}
	err := r.cli.DoHTTPRequest(ctx, &nhttp.RequestParam{
		RequestURI: r.healthURL,
		Method:     http.MethodGet,
	})
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	return nil
}

func (r *Remote) Segment(ctx context.Context, img *image.NRGBA, opts Options) (*image.Alpha, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("image", "image.png")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if err := png.Encode(part, img); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	_ = writer.WriteField("internal_resolution", string(opts.Resolution))
	_ = writer.WriteField("mode", string(opts.Mode))
	_ = writer.Close()

	resp := &segmentResp{}
	reqParam := &nhttp.RequestParam{
		RequestURI: r.endpoint,
		Method:     http.MethodPost,
		Header:     map[string]string{"Content-Type": writer.FormDataContentType()},
		Body:       body,
		Response:   resp,
	}
	if err := r.cli.DoHTTPRequest(ctx, reqParam); err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	util.Logger.Debug("segmentation response",
		zap.Int("width", resp.Width),
		zap.Int("height", resp.Height),
		zap.Int("subjects", len(resp.Masks)),
		zap.Stringer("options", opts))

	w, h := resp.Width, resp.Height
	if w == 0 && h == 0 {
		w, h = img.Bounds().Dx(), img.Bounds().Dy()
	}

	masks := make([]*image.Alpha, 0, len(resp.Masks))
	for i, encoded := range resp.Masks {
		mask, err := decodeMask(encoded, opts.Threshold)
		if err != nil {
			return nil, fmt.Errorf("decode mask %d: %w", i, err)
		}
		masks = append(masks, mask)
		if opts.Mode == ModeSingle {
			break
		}
	}

	return Reduce(opts.Mode, masks, w, h)
}

func decodeMask(encoded string, threshold float64) (*image.Alpha, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return Threshold(ProbabilityMap(img), threshold), nil
}
