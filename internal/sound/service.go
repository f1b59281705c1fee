package sound

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"prop-sound/internal/decoder"
	"prop-sound/internal/logging"
	"prop-sound/internal/probe"
	"prop-sound/internal/procctl"
)

// DefaultGracePeriod is how long Stop waits after the graceful signal
// before killing the decoder.
const DefaultGracePeriod = 2 * time.Second

// Spawner starts a decoder process for a sound file.
type Spawner interface {
	Spawn(path string) (decoder.Process, error)
}

// Config holds service configuration. Zero fields take defaults.
type Config struct {
	GracePeriod time.Duration
	Fs          afero.Fs     // filesystem used to validate sound files
	Prober      probe.Prober // expected duration probe; nil disables probing
}

// DefaultConfig returns the default service configuration.
func DefaultConfig() Config {
	return Config{
		GracePeriod: DefaultGracePeriod,
		Fs:          afero.NewOsFs(),
		Prober:      probe.New(),
	}
}

// PlayRequest asks the service to start one sound.
type PlayRequest struct {
	MessageID string
	SoundID   string
	Path      string
	Notify    Notifier // receives the terminal Completion; nil uses the default
}

// Service owns the registry and every decoder process it launched.
type Service struct {
	cfg      Config
	registry *Registry
	spawner  Spawner
	ctl      procctl.Controller
	notify   Notifier
	now      func() time.Time
	watchers sync.WaitGroup

	log       zerolog.Logger
	launchLog zerolog.Logger
	watchLog  zerolog.Logger
	stopLog   zerolog.Logger
}

// NewService creates a playback service.
func NewService(cfg Config, spawner Spawner, ctl procctl.Controller, logger zerolog.Logger) *Service {
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = DefaultGracePeriod
	}
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	return &Service{
		cfg:       cfg,
		registry:  NewRegistry(),
		spawner:   spawner,
		ctl:       ctl,
		notify:    NotifierFunc(func(Completion) {}),
		now:       time.Now,
		log:       logging.Component(logger, "registry"),
		launchLog: logging.Component(logger, "launcher"),
		watchLog:  logging.Component(logger, "watcher"),
		stopLog:   logging.Component(logger, "stop"),
	}
}

// SetDefaultNotifier sets the notifier for requests that carry none.
func (s *Service) SetDefaultNotifier(n Notifier) {
	s.notify = n
}

// Registry exposes the live sound registry.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Play validates req, starts its decoder and registers the handle. It
// returns as soon as the decoder is running; completion is reported later
// through the request's Notifier.
//
// A live handle with the same sound id is replaced without being stopped;
// its decoder keeps playing untracked.
func (s *Service) Play(req PlayRequest) (*Handle, error) {
	if req.SoundID == "" {
		return nil, fmt.Errorf("%w: sound id is required", ErrInvalidRequest)
	}
	if req.Path == "" {
		return nil, fmt.Errorf("%w: file path is required", ErrInvalidRequest)
	}

	info, err := s.cfg.Fs.Stat(req.Path)
	if err != nil || info.IsDir() {
		return nil, &NotFoundError{SoundID: req.SoundID, Path: req.Path, Reason: "file not found"}
	}
	if info.Size() == 0 {
		return nil, &NotFoundError{SoundID: req.SoundID, Path: req.Path, Reason: "file is empty"}
	}

	if req.Notify == nil {
		req.Notify = s.notify
	}
	h := newHandle(req, s.probe(req.Path))

	h.StartTime = s.now()
	proc, err := s.spawner.Spawn(req.Path)
	if err != nil {
		s.launchLog.Error().Err(err).Str("sound_id", req.SoundID).Str("path", req.Path).Msg("decoder failed to start")
		return nil, &LaunchError{SoundID: req.SoundID, Path: req.Path, Err: err}
	}
	h.proc = proc
	h.setStatus(StatusPlaying)

	if prev := s.registry.Put(h); prev != nil {
		s.launchLog.Warn().
			Str("sound_id", req.SoundID).
			Int("orphaned_pid", prev.Pid()).
			Msg("sound id reused while playing; previous decoder is no longer tracked")
	}

	s.launchLog.Info().
		Str("sound_id", req.SoundID).
		Str("message_id", req.MessageID).
		Str("path", req.Path).
		Int("pid", proc.Pid()).
		Msg("playing")

	s.watchers.Add(1)
	go s.watch(h)

	return h, nil
}

// Status returns a snapshot of the live handle for id.
func (s *Service) Status(id string) (Snapshot, bool) {
	h := s.registry.Get(id)
	if h == nil {
		return Snapshot{}, false
	}
	return h.snapshot(s.now()), true
}

// List returns snapshots of every live handle.
func (s *Service) List() []Snapshot {
	now := s.now()
	handles := s.registry.All()
	out := make([]Snapshot, len(handles))
	for i, h := range handles {
		out[i] = h.snapshot(now)
	}
	return out
}

// Wait blocks until every watcher started so far has reported.
func (s *Service) Wait() {
	s.watchers.Wait()
}

// probe returns the expected duration of path, or nil when it cannot be
// determined. A prober that panics is treated as a failed probe.
func (s *Service) probe(path string) (expected *time.Duration) {
	if s.cfg.Prober == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			s.launchLog.Warn().Interface("panic", r).Str("path", path).Msg("duration probe panicked")
			expected = nil
		}
	}()

	d, err := s.cfg.Prober.Duration(path)
	if err != nil {
		s.launchLog.Debug().Err(err).Str("path", path).Msg("duration probe failed")
		return nil
	}
	return &d
}
