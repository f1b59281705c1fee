// Package soundtest provides in-memory decoder processes and a matching
// process controller for tests.
package soundtest

import (
	"os/exec"
	"sync"
	"syscall"

	"prop-sound/internal/decoder"
	"prop-sound/internal/procctl"
)

// FirstPid is the pid given to the first spawned process.
const FirstPid = 1001

// Process is a fake decoder that runs until Finish is called.
type Process struct {
	pid    int
	Path   string
	exitCh chan decoder.Exit
	once   sync.Once
}

func (p *Process) Pid() int           { return p.pid }
func (p *Process) Wait() decoder.Exit { return <-p.exitCh }

// Finish ends the process with e. Only the first call has an effect; it
// reports whether this call ended the process.
func (p *Process) Finish(e decoder.Exit) bool {
	sent := false
	p.once.Do(func() {
		p.exitCh <- e
		sent = true
	})
	return sent
}

// Spawner hands out fake processes with increasing pids.
type Spawner struct {
	mu    sync.Mutex
	procs map[int]*Process
	order []*Process
	next  int
	err   error
}

// NewSpawner creates a spawner.
func NewSpawner() *Spawner {
	return &Spawner{procs: make(map[int]*Process), next: FirstPid}
}

// FailWith makes subsequent spawns fail with err (nil to succeed again).
func (s *Spawner) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *Spawner) Spawn(path string) (decoder.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	p := &Process{pid: s.next, Path: path, exitCh: make(chan decoder.Exit, 1)}
	s.next++
	s.procs[p.pid] = p
	s.order = append(s.order, p)
	return p, nil
}

// Proc returns the process with pid, or nil.
func (s *Spawner) Proc(pid int) *Process {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.procs[pid]
}

// Spawned returns every process spawned so far, oldest first.
func (s *Spawner) Spawned() []*Process {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Process(nil), s.order...)
}

// FinishAll ends every process still running with a clean exit.
func (s *Spawner) FinishAll() {
	for _, p := range s.Spawned() {
		p.Finish(decoder.Exit{Code: 0})
	}
}

// Controller ends fake processes the way SIGTERM and SIGKILL would.
type Controller struct {
	sp *Spawner

	mu         sync.Mutex
	stubborn   map[int]bool
	terminated []int
	killed     []int
	termErr    error
}

// NewController creates a controller for processes from sp.
func NewController(sp *Spawner) *Controller {
	return &Controller{sp: sp, stubborn: make(map[int]bool)}
}

// Ignore makes pid ignore Terminate, so only Kill ends it.
func (c *Controller) Ignore(pid int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stubborn[pid] = true
}

// FailTerminate makes Terminate return err.
func (c *Controller) FailTerminate(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.termErr = err
}

func (c *Controller) Prepare(*exec.Cmd) {}

func (c *Controller) Terminate(pid int) error {
	c.mu.Lock()
	c.terminated = append(c.terminated, pid)
	stubborn := c.stubborn[pid]
	termErr := c.termErr
	c.mu.Unlock()

	if termErr != nil {
		return termErr
	}
	p := c.sp.Proc(pid)
	if p == nil {
		return procctl.ErrProcessGone
	}
	if !stubborn {
		p.Finish(decoder.Exit{Code: -1, Signal: syscall.SIGTERM})
	}
	return nil
}

func (c *Controller) Kill(pid int) error {
	c.mu.Lock()
	c.killed = append(c.killed, pid)
	c.mu.Unlock()

	p := c.sp.Proc(pid)
	if p == nil || !p.Finish(decoder.Exit{Code: -1, Signal: syscall.SIGKILL}) {
		return procctl.ErrProcessGone
	}
	return nil
}

// Terminated returns the pids Terminate was called with.
func (c *Controller) Terminated() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.terminated...)
}

// Killed returns the pids Kill was called with.
func (c *Controller) Killed() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.killed...)
}
