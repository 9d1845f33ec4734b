package server

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/menta2k/agri-assistant/pkg/presenter"
	"github.com/menta2k/agri-assistant/pkg/types"
)

const (
	sessionCookie = "agri_session"
	sessionTTL    = time.Hour
)

// session is the state of one browser: one presenter per view
type session struct {
	soil *presenter.Presenter[types.SoilAnalysisResult]
	pest *presenter.Presenter[types.PestAnalysisResult]

	mu       sync.Mutex
	active   types.AnalysisKind
	lastSeen time.Time
}

func (s *session) busy() bool {
	return s.soil.Busy() || s.pest.Busy()
}

// activate switches the visible view. Leaving a view discards its state.
func (s *session) activate(kind types.AnalysisKind) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == kind {
		return
	}
	switch s.active {
	case types.KindSoil:
		s.soil.Reset()
	case types.KindPest:
		s.pest.Reset()
	}
	s.active = kind
}

// sessionStore holds at most limit sessions; the least recently seen one is
// evicted to make room for a new one.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
	limit    int
	create   func() *session
	now      func() time.Time
}

func newSessionStore(limit int, create func() *session) *sessionStore {
	return &sessionStore{
		sessions: make(map[string]*session),
		limit:    limit,
		create:   create,
		now:      time.Now,
	}
}

// get returns the caller's session, creating it and setting the cookie when needed
func (st *sessionStore) get(c *gin.Context) *session {
	id, err := c.Cookie(sessionCookie)

	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	st.prune(now)

	if err == nil {
		if s, ok := st.sessions[id]; ok {
			s.lastSeen = now
			return s
		}
	}

	for len(st.sessions) >= st.limit {
		st.evictOldest()
	}

	id = uuid.NewString()
	s := st.create()
	s.lastSeen = now
	st.sessions[id] = s
	c.SetCookie(sessionCookie, id, int(sessionTTL.Seconds()), "/", "", false, true)
	return s
}

// prune drops idle sessions. Sessions with a request in flight are kept.
func (st *sessionStore) prune(now time.Time) {
	for id, s := range st.sessions {
		if now.Sub(s.lastSeen) < sessionTTL {
			continue
		}
		if s.busy() {
			continue
		}
		delete(st.sessions, id)
	}
}

// evictOldest removes the least recently seen session, preferring ones
// without a request in flight. An evicted busy session still finishes its
// request; only the answer is lost.
func (st *sessionStore) evictOldest() {
	var oldestID string
	var oldest *session
	for id, s := range st.sessions {
		if oldest == nil || older(s, oldest) {
			oldestID, oldest = id, s
		}
	}
	if oldest != nil {
		delete(st.sessions, oldestID)
	}
}

// older orders idle sessions before busy ones, then by last use
func older(a, b *session) bool {
	if ab, bb := a.busy(), b.busy(); ab != bb {
		return !ab
	}
	return a.lastSeen.Before(b.lastSeen)
}

func (st *sessionStore) len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
