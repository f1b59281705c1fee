package sound

import (
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"prop-sound/internal/decoder"
)

// Completion reports how one playback ended.
type Completion struct {
	SoundID          string
	MessageID        string
	Path             string
	Duration         time.Duration
	ExpectedDuration *time.Duration
	Exit             decoder.Exit
	Failed           bool
}

// Notifier receives terminal playback events.
type Notifier interface {
	Completed(Completion)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Completion)

func (f NotifierFunc) Completed(c Completion) { f(c) }

// Exit codes a shell reports for children killed by SIGTERM or SIGKILL.
const (
	exitCodeTerm = 128 + 15
	exitCodeKill = 128 + 9
)

// stoppedBySignal reports whether exit matches the signals Stop sends.
func stoppedBySignal(exit decoder.Exit) bool {
	if exit.Signaled() {
		return exit.Signal == syscall.SIGTERM || exit.Signal == syscall.SIGKILL
	}
	return exit.Code == exitCodeTerm || exit.Code == exitCodeKill
}

// failed classifies an exit. A clean exit or one caused by our own stop
// signals is not an error.
func failed(exit decoder.Exit) bool {
	if exit.Err != nil {
		return true
	}
	return exit.Code != 0 && !stoppedBySignal(exit)
}

// watch blocks until h's decoder exits, drops h from the registry if it is
// still the registered handle for its id, then reports the outcome.
func (s *Service) watch(h *Handle) {
	defer s.watchers.Done()

	exit := h.proc.Wait()
	elapsed := s.now().Sub(h.StartTime)
	bad := failed(exit)
	h.exited(exit, bad)

	removed := s.registry.RemoveIf(h.SoundID, h)

	lvl := zerolog.InfoLevel
	if bad {
		lvl = zerolog.WarnLevel
	}
	s.watchLog.WithLevel(lvl).
		Str("sound_id", h.SoundID).
		Int("pid", h.Pid()).
		Int("exit_code", exit.Code).
		Dur("duration", elapsed).
		Bool("removed", removed).
		Msg("decoder exited")

	h.notify.Completed(Completion{
		SoundID:          h.SoundID,
		MessageID:        h.MessageID,
		Path:             h.Path,
		Duration:         elapsed,
		ExpectedDuration: h.ExpectedDuration,
		Exit:             exit,
		Failed:           bad,
	})
}
