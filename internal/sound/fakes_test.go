package sound

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"prop-sound/internal/sound/soundtest"
)

type completions chan Completion

func (c completions) Completed(comp Completion) { c <- comp }

func (c completions) next(t *testing.T) Completion {
	t.Helper()
	select {
	case comp := <-c:
		return comp
	case <-time.After(5 * time.Second):
		t.Fatal("no completion reported")
		return Completion{}
	}
}

type harness struct {
	svc   *Service
	fs    afero.Fs
	sp    *soundtest.Spawner
	ctl   *soundtest.Controller
	comps completions
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/sounds/a.mp3", []byte("ID3 fake audio"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/sounds/b.mp3", []byte("ID3 other audio"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/sounds/empty.mp3", nil, 0o644))
	require.NoError(t, fs.MkdirAll("/sounds/dir.mp3", 0o755))

	sp := soundtest.NewSpawner()
	ctl := soundtest.NewController(sp)
	svc := NewService(Config{GracePeriod: 50 * time.Millisecond, Fs: fs}, sp, ctl, zerolog.Nop())
	comps := make(completions, 32)
	svc.SetDefaultNotifier(comps)

	return &harness{svc: svc, fs: fs, sp: sp, ctl: ctl, comps: comps}
}

func (h *harness) play(t *testing.T, msgID, id, path string) *Handle {
	t.Helper()
	handle, err := h.svc.Play(PlayRequest{MessageID: msgID, SoundID: id, Path: path})
	require.NoError(t, err)
	return handle
}
