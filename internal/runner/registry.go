package runner

import (
	"os/exec"
	"sync"
)

// Registry tracks at most one live process per session key. The mutex guards
// only the map itself; it is never held across process waits or stream
// draining, so unrelated sessions never serialize on one another.
//
// Ownership discipline: whoever untracks a process owns its Wait. The
// completion sequencer untracks on the normal path; Kill untracks first, so
// a stopped run's sequencer finds nothing and falls back to the sentinel
// exit code.
type Registry struct {
	mu    sync.Mutex
	procs map[string]*exec.Cmd
}

// NewRegistry creates an empty process registry.
func NewRegistry() *Registry {
	return &Registry{procs: make(map[string]*exec.Cmd)}
}

// Track records cmd as the live process for key.
func (r *Registry) Track(key string, cmd *exec.Cmd) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.procs[key] = cmd
}

// Untrack removes and returns the process for key, transferring Wait
// ownership to the caller.
func (r *Registry) Untrack(key string) (*exec.Cmd, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cmd, ok := r.procs[key]
	if ok {
		delete(r.procs, key)
	}
	return cmd, ok
}

// IsTracked reports whether key currently has a live process.
func (r *Registry) IsTracked(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.procs[key]
	return ok
}

// Kill untracks the process for key and, if one was present, forcibly
// terminates and reaps it. Returns whether a process was found. Idempotent
// for absent keys.
func (r *Registry) Kill(key string) bool {
	cmd, ok := r.Untrack(key)
	if !ok {
		return false
	}
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
	_ = cmd.Wait()
	return true
}
