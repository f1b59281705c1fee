//go:build unix

package decoder

import (
	"os/exec"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prop-sound/internal/procctl"
)

func shSpawner(t *testing.T, script string) *Spawner {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	r := NewRegistry()
	// The sound path becomes $0 of the script.
	r.Register(NewExecBackend("sh", "sh", []string{"-c", script}))
	return NewSpawner(r, "sh", procctl.New())
}

func TestSpawner_CleanExit(t *testing.T) {
	p, err := shSpawner(t, "echo playing; exit 0").Spawn("/sounds/a.mp3")
	require.NoError(t, err)
	assert.Positive(t, p.Pid())

	exit := p.Wait()
	assert.Equal(t, 0, exit.Code)
	assert.False(t, exit.Signaled())
	assert.NoError(t, exit.Err)
}

func TestSpawner_ErrorExitCapturesStderr(t *testing.T) {
	p, err := shSpawner(t, "echo 'first' >&2; echo 'cannot open file' >&2; exit 3").Spawn("/sounds/a.mp3")
	require.NoError(t, err)

	exit := p.Wait()
	assert.Equal(t, 3, exit.Code)
	assert.Equal(t, "cannot open file", exit.Stderr)
}

func TestSpawner_Signaled(t *testing.T) {
	p, err := shSpawner(t, "kill -TERM $$; sleep 5").Spawn("/sounds/a.mp3")
	require.NoError(t, err)

	exit := p.Wait()
	assert.True(t, exit.Signaled())
	assert.Equal(t, syscall.SIGTERM, exit.Signal)
	assert.Equal(t, -1, exit.Code)
}

func TestSpawner_MissingBinary(t *testing.T) {
	r := NewRegistry()
	r.Register(NewExecBackend("ghost", "definitely-not-a-decoder-binary", nil))

	_, err := NewSpawner(r, "ghost", procctl.New()).Spawn("/sounds/a.mp3")
	assert.Error(t, err)
}

func TestTailBuffer(t *testing.T) {
	tb := newTailBuffer(8)
	tb.Write([]byte("abc\n"))
	tb.Write([]byte("defghij\n\n"))
	assert.Equal(t, "efghij", tb.LastLine())
}
