//go:build !unix

package procctl

import (
	"errors"
	"os"
	"os/exec"
)

// BasicController kills processes through os.Process. There is no graceful
// signal and no descendant enumeration on these hosts.
type BasicController struct{}

// New returns the controller for this host.
func New() *BasicController {
	return &BasicController{}
}

func (c *BasicController) Prepare(cmd *exec.Cmd) {}

func (c *BasicController) Terminate(pid int) error {
	return c.Kill(pid)
}

func (c *BasicController) Kill(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return ErrProcessGone
	}
	if err := p.Kill(); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			return ErrProcessGone
		}
		return err
	}
	return nil
}
