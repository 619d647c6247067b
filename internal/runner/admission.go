package runner

import "sync"

// admissionSet marks sessions with an execution in flight, from acceptance
// until the terminal result is emitted. It covers the compile window too,
// which the process registry cannot: nothing is tracked there until a run
// process exists. A second submission against a marked session is rejected
// rather than superseding the first.
type admissionSet struct {
	mu       sync.Mutex
	sessions map[string]struct{}
}

func newAdmissionSet() *admissionSet {
	return &admissionSet{sessions: make(map[string]struct{})}
}

// tryAcquire marks the session, returning false if it is already marked.
func (a *admissionSet) tryAcquire(sessionID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, busy := a.sessions[sessionID]; busy {
		return false
	}
	a.sessions[sessionID] = struct{}{}
	return true
}

func (a *admissionSet) release(sessionID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.sessions, sessionID)
}

func (a *admissionSet) list() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.sessions))
	for id := range a.sessions {
		out = append(out, id)
	}
	return out
}
