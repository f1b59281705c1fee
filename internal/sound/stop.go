package sound

import (
	"errors"
	"time"

	"prop-sound/internal/procctl"
)

// StopOutcome is the result of stopping one sound during StopAll.
type StopOutcome struct {
	SoundID string
	Err     error
}

// Stop removes id from the registry and terminates its decoder: a graceful
// signal first, then after the grace period a kill of the decoder and all
// of its descendants.
//
// Stop returns a *NotFoundError when id is not live. A *ProcessError means
// the signals could not be delivered; the sound is removed all the same.
// The handle's watcher still reports its own Completion afterwards.
func (s *Service) Stop(id string) (*Handle, error) {
	h := s.registry.Remove(id)
	if h == nil {
		return nil, &NotFoundError{SoundID: id, Reason: "sound not found or already stopped"}
	}
	s.log.Debug().Str("sound_id", id).Msg("removed for stop")

	if !h.markStopping() {
		return h, nil
	}
	return h, s.terminate(h)
}

// StopAll stops every sound live at the time of the call, one at a time.
// Sounds that finish on their own during the sweep report ErrNotFound.
func (s *Service) StopAll() []StopOutcome {
	ids := s.registry.IDs()
	out := make([]StopOutcome, 0, len(ids))
	for _, id := range ids {
		_, err := s.Stop(id)
		out = append(out, StopOutcome{SoundID: id, Err: err})
	}
	return out
}

func (s *Service) terminate(h *Handle) error {
	pid := h.Pid()
	log := s.stopLog.With().Str("sound_id", h.SoundID).Int("pid", pid).Logger()

	if err := s.ctl.Terminate(pid); err != nil {
		if errors.Is(err, procctl.ErrProcessGone) {
			log.Warn().Err(err).Msg("decoder already gone")
			return &ProcessError{SoundID: h.SoundID, Pid: pid, Op: "terminate", Err: err}
		}
		log.Warn().Err(err).Msg("graceful stop failed, killing")
	} else {
		timer := time.NewTimer(s.cfg.GracePeriod)
		defer timer.Stop()
		select {
		case <-h.Done():
			log.Info().Msg("decoder stopped")
			return nil
		case <-timer.C:
			log.Info().Dur("grace", s.cfg.GracePeriod).Msg("decoder ignored stop, killing")
		}
	}

	if err := s.ctl.Kill(pid); err != nil {
		log.Warn().Err(err).Msg("kill failed")
		return &ProcessError{SoundID: h.SoundID, Pid: pid, Op: "kill", Err: err}
	}
	return nil
}
