package jobs

import (
	"sync"

	"github.com/google/uuid"
)

// PluginSessionID identifies one plugin-host worker session
// (SPEC_FULL.md §C.3: "the job coordinator still owns session lifecycle
// bookkeeping ... that a future VST3/CLAP bridge would attach to").
type PluginSessionID string

// PluginSessionState is the lifecycle state of a plugin session.
type PluginSessionState int

const (
	PluginSessionStarting PluginSessionState = iota
	PluginSessionAlive
	PluginSessionStopped
)

type pluginSession struct {
	id    PluginSessionID
	state PluginSessionState
}

// PluginSessions tracks plugin-host worker sessions. The actual audio
// processing a VST3/CLAP bridge would perform is out of scope; Process here
// is a passthrough so the concurrency story (start, process, stop,
// liveness) is exercised end to end without a real plugin host attached.
type PluginSessions struct {
	mu       sync.Mutex
	sessions map[PluginSessionID]*pluginSession
}

// NewPluginSessions returns an empty session registry.
func NewPluginSessions() *PluginSessions {
	return &PluginSessions{sessions: make(map[PluginSessionID]*pluginSession)}
}

// Start registers a new session, returning its id.
func (p *PluginSessions) Start() PluginSessionID {
	id := PluginSessionID(uuid.NewString())
	p.mu.Lock()
	p.sessions[id] = &pluginSession{id: id, state: PluginSessionAlive}
	p.mu.Unlock()
	return id
}

// Stop marks a session stopped and releases its bookkeeping entry.
func (p *PluginSessions) Stop(id PluginSessionID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.sessions[id]; ok {
		s.state = PluginSessionStopped
		delete(p.sessions, id)
	}
}

// Alive reports whether id names a currently live session.
func (p *PluginSessions) Alive(id PluginSessionID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[id]
	return ok && s.state == PluginSessionAlive
}

// Process passes channels through unchanged. A real plugin bridge would
// render the block through the hosted plugin's audio thread; this
// placeholder exists so callers can wire the session into a processing
// chain today and swap in a real bridge later without reshaping the call
// site.
func (p *PluginSessions) Process(id PluginSessionID, channels [][]float32) [][]float32 {
	if !p.Alive(id) {
		return channels
	}
	return channels
}

// Count reports the number of currently live sessions.
func (p *PluginSessions) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}
