// Package procctl provides the host capability for stopping decoder processes:
// a graceful termination request and a forceful kill that also reaches every
// process the decoder spawned.
package procctl

import (
	"errors"
	"os/exec"
)

// ErrProcessGone is returned when the target process no longer exists.
var ErrProcessGone = errors.New("process already exited")

// Controller signals decoder processes.
type Controller interface {
	// Prepare configures cmd before Start so that it can later be killed
	// together with its descendants.
	Prepare(cmd *exec.Cmd)

	// Terminate asks the process to exit.
	Terminate(pid int) error

	// Kill forcefully kills the process, its process group and every
	// descendant that can be enumerated.
	Kill(pid int) error
}
