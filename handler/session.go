package handler

import (
	"errors"
	"net/http"

	"github.com/chaos-io/nobg/export"
	"github.com/chaos-io/nobg/model"
	"github.com/chaos-io/nobg/rembg"
	"github.com/chaos-io/nobg/session"
	"github.com/chaos-io/nobg/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var errNoResult = errors.New("no result yet")

// SessionHandler 会话式的本地推理：选择图片后可以用不同参数多次运行
type SessionHandler struct {
	store   *session.Store
	local   *rembg.Local
	maxSize int64
}

func NewSessionHandler(store *session.Store, local *rembg.Local, maxSize int64) *SessionHandler {
	return &SessionHandler{store: store, local: local, maxSize: maxSize}
}

// Create POST /api/v1/sessions
func (h *SessionHandler) Create(c *gin.Context) {
	s := h.store.Create()
	c.JSON(http.StatusCreated, model.SessionResponse{ID: s.ID})
}

// Delete DELETE /api/v1/sessions/:id
func (h *SessionHandler) Delete(c *gin.Context) {
	if err := h.store.Delete(c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SelectImage PUT /api/v1/sessions/:id/image
func (h *SessionHandler) SelectImage(c *gin.Context) {
	s, err := h.store.Get(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	in, err := readUpload(c, h.maxSize)
	if err != nil {
		abortWithError(c, err)
		return
	}

	img, err := h.local.Load(in.Data)
	if err != nil {
		abortWithError(c, err)
		return
	}
	s.Select(img)

	c.JSON(http.StatusOK, model.ImageResponse{
		Width:      img.Width(),
		Height:     img.Height(),
		OrigWidth:  img.OrigWidth,
		OrigHeight: img.OrigHeight,
		Format:     img.Format,
		Scaled:     img.Scaled(),
	})
}

// Run POST /api/v1/sessions/:id/run
func (h *SessionHandler) Run(c *gin.Context) {
	s, err := h.store.Get(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	opts, err := parseOptions(c, h.local.Options())
	if err != nil {
		abortWithError(c, err)
		return
	}

	ticket, err := s.Begin()
	if err != nil {
		abortWithError(c, err)
		return
	}

	res, err := h.local.Composite(c.Request.Context(), ticket.Image, opts)
	if err != nil {
		s.Abort(ticket)
		abortWithError(c, err)
		return
	}

	if err := s.Finish(ticket, res); err != nil {
		util.Logger.Info("discarded stale result", zap.String("session", s.ID))
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, runResponse(res))
}

// Result GET /api/v1/sessions/:id/result[?format=dataurl]
func (h *SessionHandler) Result(c *gin.Context) {
	s, err := h.store.Get(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	res := s.Result()
	if res == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, model.ErrorResponse{Error: errNoResult.Error()})
		return
	}

	if c.Query("format") == "dataurl" {
		url, err := export.DataURL(res.Composite)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, model.DataURLResponse{Filename: export.Filename, DataURL: url})
		return
	}

	writePNG(c, res.PNG)
}
