package decoder

import (
	"errors"
	"fmt"
	"os/exec"
	"syscall"
	"time"

	"prop-sound/internal/procctl"
)

// stderrTail bounds how much decoder stderr is kept for error reports.
const stderrTail = 4096

// waitDelay bounds how long Wait keeps reading stderr after the decoder
// exits, in case a helper it forked still holds the pipe.
const waitDelay = 500 * time.Millisecond

// Process is one running decoder.
type Process interface {
	// Pid returns the OS process id.
	Pid() int

	// Wait blocks until the process exits. It must be called exactly once.
	Wait() Exit
}

// Exit describes how a decoder process ended.
type Exit struct {
	Code   int            // exit code, -1 when terminated by a signal
	Signal syscall.Signal // terminating signal, 0 if none
	Stderr string         // last stderr line written by the decoder
	Err    error          // wait failure unrelated to the exit status
}

// Signaled reports whether the process was terminated by a signal.
func (e Exit) Signaled() bool {
	return e.Signal != 0
}

// Spawner starts decoder processes for sound files.
type Spawner struct {
	registry *Registry
	decoder  string
	ctl      procctl.Controller
}

// NewSpawner creates a spawner using the named decoder (or Auto).
func NewSpawner(registry *Registry, decoder string, ctl procctl.Controller) *Spawner {
	return &Spawner{
		registry: registry,
		decoder:  decoder,
		ctl:      ctl,
	}
}

// Decoder returns the configured decoder name.
func (s *Spawner) Decoder() string {
	return s.decoder
}

// Spawn starts the decoder for path. Stdout is discarded and stderr is
// captured, so nothing the decoder prints reaches the protocol stream.
func (s *Spawner) Spawn(path string) (Process, error) {
	backend, err := s.registry.Resolve(s.decoder, path)
	if err != nil {
		return nil, err
	}

	cmd := backend.Command(path)
	tail := newTailBuffer(stderrTail)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = tail
	cmd.WaitDelay = waitDelay
	if s.ctl != nil {
		s.ctl.Prepare(cmd)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", backend.Name(), err)
	}

	return &execProcess{cmd: cmd, stderr: tail}, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	stderr *tailBuffer
}

func (p *execProcess) Pid() int {
	return p.cmd.Process.Pid
}

func (p *execProcess) Wait() Exit {
	err := p.cmd.Wait()
	exit := Exit{Stderr: p.stderr.LastLine()}

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) && !errors.Is(err, exec.ErrWaitDelay) {
		exit.Err = err
	}

	state := p.cmd.ProcessState
	if state == nil {
		exit.Code = -1
		return exit
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		exit.Code = -1
		exit.Signal = ws.Signal()
		return exit
	}
	exit.Code = state.ExitCode()
	return exit
}
