// Package sound tracks concurrently playing sound clips, each backed by its
// own decoder process.
package sound

import (
	"sync"
	"time"

	"prop-sound/internal/decoder"
)

// Status is the lifecycle state of a Handle.
type Status int

const (
	StatusStarting Status = iota
	StatusPlaying
	StatusStopping
	StatusStopped
	StatusFinished
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusStarting:
		return "starting"
	case StatusPlaying:
		return "playing"
	case StatusStopping:
		return "stopping"
	case StatusStopped:
		return "stopped"
	case StatusFinished:
		return "finished"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Handle is one playback attempt. It exclusively owns its decoder process.
type Handle struct {
	SoundID          string
	MessageID        string
	Path             string
	ExpectedDuration *time.Duration
	StartTime        time.Time

	proc   decoder.Process
	notify Notifier
	done   chan struct{}

	mu     sync.Mutex
	status Status
	exit   decoder.Exit
}

func newHandle(req PlayRequest, expected *time.Duration) *Handle {
	return &Handle{
		SoundID:          req.SoundID,
		MessageID:        req.MessageID,
		Path:             req.Path,
		ExpectedDuration: expected,
		notify:           req.Notify,
		done:             make(chan struct{}),
		status:           StatusStarting,
	}
}

// Pid returns the decoder process id, or 0 before launch.
func (h *Handle) Pid() int {
	if h.proc == nil {
		return 0
	}
	return h.proc.Pid()
}

// Status returns the current lifecycle state.
func (h *Handle) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// Done is closed once the decoder process has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Exit returns the decoder's exit description. Valid after Done is closed.
func (h *Handle) Exit() decoder.Exit {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exit
}

func (h *Handle) setStatus(s Status) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.status = s
}

// markStopping moves a live handle to Stopping. It returns false if the
// process already exited.
func (h *Handle) markStopping() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch h.status {
	case StatusFinished, StatusError, StatusStopped:
		return false
	}
	h.status = StatusStopping
	return true
}

// exited records the exit and closes Done. A handle being stopped ends in
// Stopped regardless of the exit status.
func (h *Handle) exited(exit decoder.Exit, failed bool) {
	h.mu.Lock()
	h.exit = exit
	switch {
	case h.status == StatusStopping:
		h.status = StatusStopped
	case failed:
		h.status = StatusError
	default:
		h.status = StatusFinished
	}
	h.mu.Unlock()
	close(h.done)
}

// Snapshot is a point-in-time view of a live handle.
type Snapshot struct {
	SoundID          string
	MessageID        string
	Path             string
	Pid              int
	Status           Status
	StartTime        time.Time
	Elapsed          time.Duration
	ExpectedDuration *time.Duration
}

func (h *Handle) snapshot(now time.Time) Snapshot {
	return Snapshot{
		SoundID:          h.SoundID,
		MessageID:        h.MessageID,
		Path:             h.Path,
		Pid:              h.Pid(),
		Status:           h.Status(),
		StartTime:        h.StartTime,
		Elapsed:          now.Sub(h.StartTime),
		ExpectedDuration: h.ExpectedDuration,
	}
}
