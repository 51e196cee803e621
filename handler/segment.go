package handler

import (
	"net/http"

	"github.com/chaos-io/nobg/export"
	"github.com/chaos-io/nobg/model"
	"github.com/chaos-io/nobg/rembg"
	"github.com/chaos-io/nobg/segment"
	"github.com/gin-gonic/gin"
)

// SegmentHandler 本地推理，一次请求完成加载、分割、合成与导出
type SegmentHandler struct {
	local   *rembg.Local
	maxSize int64
}

func NewSegmentHandler(local *rembg.Local, maxSize int64) *SegmentHandler {
	return &SegmentHandler{local: local, maxSize: maxSize}
}

// Segment POST /segment
func (h *SegmentHandler) Segment(c *gin.Context) {
	in, err := readUpload(c, h.maxSize)
	if err != nil {
		abortWithError(c, err)
		return
	}

	opts, err := parseOptions(c, h.local.Options())
	if err != nil {
		abortWithError(c, err)
		return
	}

	res, err := h.local.Run(c.Request.Context(), in.Data, opts)
	if err != nil {
		abortWithError(c, err)
		return
	}

	writePNG(c, res.PNG)
}

func parseOptions(c *gin.Context, base segment.Options) (segment.Options, error) {
	return segment.ParseOptions(
		c.PostForm("threshold"),
		c.PostForm("mode"),
		c.PostForm("resolution"),
		base,
	)
}

func writePNG(c *gin.Context, data []byte) {
	c.Header("Content-Disposition", export.ContentDisposition())
	c.Data(http.StatusOK, export.ContentType, data)
}

func runResponse(res *rembg.Result) model.RunResponse {
	resp := model.RunResponse{
		Width:      res.Width(),
		Height:     res.Height(),
		Threshold:  res.Options.Threshold,
		Mode:       string(res.Options.Mode),
		Resolution: string(res.Options.Resolution),
		Filename:   export.Filename,
	}
	if res.HasForeground {
		resp.Foreground = model.NewBBox(res.Foreground)
	}
	return resp
}
