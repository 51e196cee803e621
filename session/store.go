package session

import (
	"sync"
	"time"

	"github.com/chaos-io/nobg/util"
	"github.com/robfig/cron/v3"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
)

type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	cron     *cron.Cron
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
	}
}

func (st *Store) Create() *Session {
	s := newSession(ksuid.New().String(), time.Now())

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	s.touch()
	return s, nil
}

func (st *Store) Delete(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(st.sessions, id)
	return nil
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Evict 删除空闲超过 idle 的会话，进行中的会话不删除
func (st *Store) Evict(now time.Time, idle time.Duration) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	n := 0
	for id, s := range st.sessions {
		last, busy := s.idleSince()
		if busy || now.Sub(last) < idle {
			continue
		}
		delete(st.sessions, id)
		n++
	}
	return n
}

// StartJanitor 按 cron 表达式定期清理空闲会话，例如 "@every 1m"
func (st *Store) StartJanitor(spec string, idle time.Duration) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if n := st.Evict(time.Now(), idle); n > 0 {
			util.Logger.Info("evicted idle sessions", zap.Int("count", n), zap.Int("remaining", st.Len()))
		}
	})
	if err != nil {
		return err
	}

	st.mu.Lock()
	st.cron = c
	st.mu.Unlock()

	c.Start()
	return nil
}

// Stop 停止清理任务
func (st *Store) Stop() {
	st.mu.Lock()
	c := st.cron
	st.cron = nil
	st.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}
