package runner

import (
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_TrackUntrack(t *testing.T) {
	r := NewRegistry()

	cmd := exec.Command("true")
	r.Track("s1", cmd)
	assert.True(t, r.IsTracked("s1"))

	got, ok := r.Untrack("s1")
	require.True(t, ok)
	assert.Same(t, cmd, got)
	assert.False(t, r.IsTracked("s1"))

	_, ok = r.Untrack("s1")
	assert.False(t, ok)
}

func TestRegistry_KillAbsentKeyIsIdempotent(t *testing.T) {
	r := NewRegistry()

	assert.False(t, r.Kill("nope"))
	assert.False(t, r.Kill("nope"))
}

func TestRegistry_KillLiveProcess(t *testing.T) {
	r := NewRegistry()

	cmd := exec.Command("sleep", "60")
	require.NoError(t, cmd.Start())
	r.Track("s1", cmd)

	start := time.Now()
	assert.True(t, r.Kill("s1"))
	assert.Less(t, time.Since(start), 5*time.Second, "kill should not wait for natural exit")

	// Kill reaped the process, so its state is final.
	require.NotNil(t, cmd.ProcessState)
	assert.False(t, cmd.ProcessState.Success())

	// Already untracked; a second kill finds nothing.
	assert.False(t, r.Kill("s1"))
}

func TestRegistry_SessionsAreIndependent(t *testing.T) {
	r := NewRegistry()

	a := exec.Command("true")
	b := exec.Command("true")
	r.Track("a", a)
	r.Track("b", b)

	got, ok := r.Untrack("a")
	require.True(t, ok)
	assert.Same(t, a, got)
	assert.True(t, r.IsTracked("b"))
}
