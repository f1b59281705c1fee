// Package deps probes for the external executables the service shells out to.
package deps

import (
	"fmt"
	"os/exec"

	"github.com/rs/zerolog"
)

// Checker verifies that external executables are available in PATH.
type Checker struct {
	dependencies []string
	lookPath     func(string) (string, error)
}

// NewChecker creates a new dependency checker with the given dependencies.
func NewChecker(deps ...string) *Checker {
	return &Checker{dependencies: deps, lookPath: exec.LookPath}
}

// CheckAll verifies all dependencies are available.
// Returns an error listing all missing dependencies.
func (c *Checker) CheckAll() error {
	var missing []string

	for _, dep := range c.dependencies {
		if !c.IsAvailable(dep) {
			missing = append(missing, dep)
		}
	}

	if len(missing) > 0 {
		return &MissingDepsError{Dependencies: missing}
	}

	return nil
}

// IsAvailable checks if a single dependency is available in PATH.
func (c *Checker) IsAvailable(name string) bool {
	_, err := c.lookPath(name)
	return err == nil
}

// Available returns the dependencies found in PATH, in order.
func (c *Checker) Available() []string {
	var found []string
	for _, dep := range c.dependencies {
		if c.IsAvailable(dep) {
			found = append(found, dep)
		}
	}
	return found
}

// CheckAndLog checks all dependencies and logs each result. Missing
// dependencies are logged as warnings and returned as an error; callers
// decide whether that is fatal.
func (c *Checker) CheckAndLog(log zerolog.Logger) error {
	var missing []string

	for _, dep := range c.dependencies {
		if c.IsAvailable(dep) {
			log.Info().Str("dependency", dep).Msg("found in PATH")
		} else {
			log.Warn().Str("dependency", dep).Msg("not found in PATH; playback will fail until it is installed")
			missing = append(missing, dep)
		}
	}

	if len(missing) > 0 {
		return &MissingDepsError{Dependencies: missing}
	}

	return nil
}

// MissingDepsError is returned when required dependencies are missing.
type MissingDepsError struct {
	Dependencies []string
}

func (e *MissingDepsError) Error() string {
	return fmt.Sprintf("missing dependencies: %v", e.Dependencies)
}
