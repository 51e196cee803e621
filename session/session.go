// Package session 保存每个客户端当前选择的图片和最近一次结果。
//
// 每次选择新图片都会使旧图片上进行中的任务失效，任务完成时若已过期则丢弃结果。
// 同一会话同时只允许一个进行中的任务。
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/chaos-io/nobg/canvas"
	"github.com/chaos-io/nobg/rembg"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrNoImage  = errors.New("no image selected")
	ErrBusy     = errors.New("a run is already in progress")
	ErrStale    = errors.New("image was replaced while the run was in progress")
)

type Session struct {
	ID      string
	Created time.Time

	mu         sync.Mutex
	image      *canvas.Image
	result     *rembg.Result
	generation uint64
	busy       bool
	lastUsed   time.Time
}

// Ticket 一次进行中的任务
type Ticket struct {
	Image      *canvas.Image
	generation uint64
}

func newSession(id string, now time.Time) *Session {
	return &Session{ID: id, Created: now, lastUsed: now}
}

// Select 替换当前图片，丢弃旧的结果
func (s *Session) Select(img *canvas.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.image = img
	s.result = nil
	s.generation++
	s.lastUsed = time.Now()
}

// Begin 开始一次任务
func (s *Session) Begin() (*Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.image == nil {
		return nil, ErrNoImage
	}
	if s.busy {
		return nil, ErrBusy
	}
	s.busy = true
	s.lastUsed = time.Now()
	return &Ticket{Image: s.image, generation: s.generation}, nil
}

// Finish 结束任务，图片已被替换时结果被丢弃并返回 ErrStale
func (s *Session) Finish(t *Ticket, res *rembg.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.busy = false
	s.lastUsed = time.Now()
	if t.generation != s.generation {
		return ErrStale
	}
	s.result = res
	return nil
}

// Abort 任务失败，只释放占用
func (s *Session) Abort(t *Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.busy = false
	s.lastUsed = time.Now()
}

func (s *Session) Image() *canvas.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.image
}

func (s *Session) Result() *rembg.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

func (s *Session) idleSince() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed, s.busy
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastUsed = time.Now()
	s.mu.Unlock()
}
