package handler

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/chaos-io/nobg/middleware"
	"github.com/gin-gonic/gin"
)

// BuildInfo 版本信息
type BuildInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GitCommit string `json:"git_commit"`
}

type RouterOptions struct {
	Remove    *RemoveHandler
	Segment   *SegmentHandler
	Session   *SessionHandler
	StaticDir string
	Build     BuildInfo
}

func NewRouter(opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS())

	if opts.StaticDir != "" {
		if _, err := os.Stat(opts.StaticDir); err == nil {
			r.Static("/static", opts.StaticDir)
			r.StaticFile("/", filepath.Join(opts.StaticDir, "index.html"))
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"version": opts.Build.Version,
		})
	})
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, opts.Build)
	})

	if opts.Remove != nil {
		r.POST("/remove", opts.Remove.Remove)
	}
	if opts.Segment != nil {
		r.POST("/segment", opts.Segment.Segment)
	}

	if opts.Session != nil {
		api := r.Group("/api/v1")
		{
			api.POST("/sessions", opts.Session.Create)
			api.DELETE("/sessions/:id", opts.Session.Delete)
			api.PUT("/sessions/:id/image", opts.Session.SelectImage)
			api.POST("/sessions/:id/run", opts.Session.Run)
			api.GET("/sessions/:id/result", opts.Session.Result)
		}
	}

	return r
}
