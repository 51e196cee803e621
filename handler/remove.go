package handler

import (
	"net/http"

	"github.com/chaos-io/nobg/rembg"
	"github.com/chaos-io/nobg/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RemoveHandler 把上传的图片转发给第三方去背景服务
type RemoveHandler struct {
	remover rembg.Remover
	maxSize int64
}

func NewRemoveHandler(remover rembg.Remover, maxSize int64) *RemoveHandler {
	return &RemoveHandler{remover: remover, maxSize: maxSize}
}

// Remove POST /remove
func (h *RemoveHandler) Remove(c *gin.Context) {
	if cfg, ok := h.remover.(interface{ Configured() bool }); ok && !cfg.Configured() {
		abortWithError(c, rembg.ErrNotConfigured)
		return
	}

	in, err := readUpload(c, h.maxSize)
	if err != nil {
		abortWithError(c, err)
		return
	}

	util.Logger.Info("file uploaded",
		zap.String("filename", in.Filename),
		zap.String("content_type", in.ContentType),
		zap.Int("size", len(in.Data)))

	out, err := h.remover.Remove(c.Request.Context(), in)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Data(http.StatusOK, out.ContentType, out.Data)
}
