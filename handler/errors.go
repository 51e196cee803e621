package handler

import (
	"errors"
	"net/http"

	"github.com/chaos-io/nobg/canvas"
	"github.com/chaos-io/nobg/composite"
	"github.com/chaos-io/nobg/model"
	"github.com/chaos-io/nobg/rembg"
	"github.com/chaos-io/nobg/segment"
	"github.com/chaos-io/nobg/session"
	"github.com/chaos-io/nobg/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	errMissingFile = errors.New(`no image uploaded, form field name must be "image"`)
	errTooLarge    = errors.New("uploaded file is too large")
)

// statusFor 把错误映射为状态码和返回给客户端的信息
func statusFor(err error) (int, string) {
	var (
		upstream *rembg.UpstreamError
		network  *rembg.NetworkError
		segErr   *segment.Error
	)

	switch {
	case errors.Is(err, errMissingFile),
		errors.Is(err, errTooLarge),
		errors.Is(err, canvas.ErrDecode),
		errors.Is(err, segment.ErrInvalidOptions):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, rembg.ErrNotConfigured):
		return http.StatusInternalServerError, err.Error()
	case errors.As(err, &upstream):
		return http.StatusBadGateway, upstream.Message
	case errors.As(err, &network):
		return http.StatusInternalServerError, "error while contacting remove.bg API"
	case errors.Is(err, composite.ErrDimensionMismatch):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.As(err, &segErr):
		return http.StatusBadGateway, err.Error()
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, session.ErrNoImage),
		errors.Is(err, session.ErrBusy),
		errors.Is(err, session.ErrStale):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func abortWithError(c *gin.Context, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		util.Logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	} else {
		util.Logger.Debug("request rejected", zap.String("path", c.FullPath()), zap.Error(err))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, model.ErrorResponse{Error: msg})
}
