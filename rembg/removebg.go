package rembg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	nhttp "github.com/chaos-io/nobg/util/http"
)

const (
	DefaultEndpoint = "https://api.remove.bg/v1.0/removebg"

	defaultFilename    = "upload.jpg"
	defaultContentType = "image/jpeg"
	defaultResultType  = "image/png"
)

// ErrNotConfigured 没有配置 remove.bg 的 API key
var ErrNotConfigured = errors.New("server not configured with REMOVE_BG_API_KEY")

// UpstreamError remove.bg 返回了非 200 状态码
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string { return e.Message }

// NetworkError 请求 remove.bg 时的传输错误
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "error while contacting remove.bg API: " + e.Err.Error() }

func (e *NetworkError) Unwrap() error { return e.Err }

// RemoveBG 把图片转发给 remove.bg
type RemoveBG struct {
	apiKey   string
	endpoint string
	timeout  time.Duration
	cli      nhttp.IClient
}

func NewRemoveBG(apiKey, endpoint string, timeout time.Duration, cli nhttp.IClient) *RemoveBG {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if cli == nil {
		cli = nhttp.NewHTTPClientWithTimeout(timeout)
	}
	return &RemoveBG{
		apiKey:   apiKey,
		endpoint: endpoint,
		timeout:  timeout,
		cli:      cli,
	}
}

func (r *RemoveBG) Configured() bool {
	return r.apiKey != ""
}

/*
	curl -X POST "https://api.remove.bg/v1.0/removebg" \
	  -H "X-Api-Key: $REMOVE_BG_API_KEY" \
	  -F "image_file=@photo.jpg" \
	  -F "size=auto"
*/
func (r *RemoveBG) Remove(ctx context.Context, in *Input) (*Output, error) {
	if !r.Configured() {
		return nil, ErrNotConfigured
	}

	body, contentType, err := r.buildForm(in)
	if err != nil {
		return nil, err
	}

	var raw []byte
	reqParam := &nhttp.RequestParam{
		RequestURI: r.endpoint,
		Method:     http.MethodPost,
		Header: map[string]string{
			"Content-Type": contentType,
			"X-Api-Key":    r.apiKey,
		},
		Body:     body,
		Response: &raw,
		Timeout:  r.timeout,
	}

	err = r.cli.DoHTTPRequest(ctx, reqParam)
	var statusErr *nhttp.StatusError
	switch {
	case errors.As(err, &statusErr):
		return nil, upstreamError(statusErr.StatusCode, statusErr.Body)
	case err != nil:
		return nil, &NetworkError{Err: err}
	case reqParam.StatusCode != http.StatusOK:
		return nil, upstreamError(reqParam.StatusCode, raw)
	}

	resultType := reqParam.ResponseHeader.Get("Content-Type")
	if resultType == "" {
		resultType = defaultResultType
	}
	return &Output{Data: raw, ContentType: resultType}, nil
}

func (r *RemoveBG) buildForm(in *Input) (*bytes.Buffer, string, error) {
	filename := in.Filename
	if filename == "" {
		filename = defaultFilename
	}
	fileType := in.ContentType
	if fileType == "" {
		fileType = defaultContentType
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image_file"; filename=%q`, filename))
	h.Set("Content-Type", fileType)
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(in.Data); err != nil {
		return nil, "", fmt.Errorf("write form file: %w", err)
	}

	_ = writer.WriteField("size", "auto")
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

func upstreamError(status int, body []byte) *UpstreamError {
	msg := fmt.Sprintf("remove.bg returned status %d", status)
	if len(body) > 0 {
		msg += ": " + string(body)
	}
	return &UpstreamError{Status: status, Message: msg}
}
