//go:build unix

package procctl

import (
	"errors"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// UnixController signals processes with SIGTERM/SIGKILL. Each decoder runs in
// its own process group so the group can be killed as one.
type UnixController struct {
	tree *Tree
}

// New returns the controller for this host.
func New() *UnixController {
	return &UnixController{tree: NewTree()}
}

// NewWithTree returns a controller that enumerates descendants through tree.
func NewWithTree(tree *Tree) *UnixController {
	return &UnixController{tree: tree}
}

func (c *UnixController) Prepare(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

func (c *UnixController) Terminate(pid int) error {
	return signalErr(unix.Kill(pid, unix.SIGTERM))
}

func (c *UnixController) Kill(pid int) error {
	// Enumerate before killing the parent; orphans get reparented and
	// would no longer be reachable from pid.
	var descendants []int
	var errs []error
	if c.tree != nil {
		d, err := c.tree.Descendants(pid)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
		descendants = d
	}

	for _, d := range descendants {
		if err := signalErr(unix.Kill(d, unix.SIGKILL)); err != nil && !errors.Is(err, ErrProcessGone) {
			errs = append(errs, err)
		}
	}

	// pgid == pid because of Setpgid in Prepare.
	if err := signalErr(unix.Kill(-pid, unix.SIGKILL)); err != nil && !errors.Is(err, ErrProcessGone) {
		errs = append(errs, err)
	}

	err := signalErr(unix.Kill(pid, unix.SIGKILL))
	if err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func signalErr(err error) error {
	if errors.Is(err, unix.ESRCH) {
		return ErrProcessGone
	}
	return err
}
