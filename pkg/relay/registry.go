package relay

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// bridge is one bridged assistant session.
type bridge struct {
	ID      string
	Started time.Time

	framesUp   atomic.Uint64
	framesDown atomic.Uint64
}

// SessionInfo describes an active bridge.
type SessionInfo struct {
	ID         string    `json:"id"`
	Started    time.Time `json:"started"`
	FramesUp   uint64    `json:"frames_up"`
	FramesDown uint64    `json:"frames_down"`
}

// registry tracks active bridges by id.
type registry struct {
	mu       sync.RWMutex
	sessions map[string]*bridge
}

func newRegistry() *registry {
	return &registry{sessions: make(map[string]*bridge)}
}

// add registers a bridge. An empty or taken id gets a fresh uuid.
func (r *registry) add(id string) *bridge {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.sessions[id]; id == "" || taken {
		id = uuid.NewString()
	}
	b := &bridge{ID: id, Started: time.Now()}
	r.sessions[id] = b
	return b
}

func (r *registry) remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

func (r *registry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// list returns active bridges, oldest first.
func (r *registry) list() []SessionInfo {
	r.mu.RLock()
	infos := make([]SessionInfo, 0, len(r.sessions))
	for _, b := range r.sessions {
		infos = append(infos, SessionInfo{
			ID:         b.ID,
			Started:    b.Started,
			FramesUp:   b.framesUp.Load(),
			FramesDown: b.framesDown.Load(),
		})
	}
	r.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool { return infos[i].Started.Before(infos[j].Started) })
	return infos
}
