// Package decoder runs external command-line audio decoders, one OS process
// per sound.
package decoder

import (
	"os/exec"
	"path/filepath"
	"strings"
)

// Backend describes one command-line decoder.
type Backend interface {
	// Name returns the backend name (e.g. "mpg123").
	Name() string

	// Binary returns the executable looked up in PATH.
	Binary() string

	// CanHandle returns true if this backend plays files like path.
	CanHandle(path string) bool

	// Command builds the command that plays path to completion.
	Command(path string) *exec.Cmd
}

// ExecBackend is a Backend defined by a binary, fixed arguments and the
// file extensions it handles. An empty extension list handles everything.
type ExecBackend struct {
	name       string
	binary     string
	args       []string
	extensions []string
}

// NewExecBackend creates an ExecBackend. Extensions include the dot.
func NewExecBackend(name, binary string, args []string, extensions ...string) *ExecBackend {
	return &ExecBackend{
		name:       name,
		binary:     binary,
		args:       args,
		extensions: extensions,
	}
}

func (b *ExecBackend) Name() string   { return b.name }
func (b *ExecBackend) Binary() string { return b.binary }

func (b *ExecBackend) CanHandle(path string) bool {
	if len(b.extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range b.extensions {
		if e == ext {
			return true
		}
	}
	return false
}

func (b *ExecBackend) Command(path string) *exec.Cmd {
	args := make([]string, 0, len(b.args)+1)
	args = append(args, b.args...)
	args = append(args, path)
	return exec.Command(b.binary, args...)
}

// MPG123 plays mp3 files quietly.
func MPG123() *ExecBackend {
	return NewExecBackend("mpg123", "mpg123", []string{"-q"}, ".mp3")
}

// Aplay plays wav files through ALSA.
func Aplay() *ExecBackend {
	return NewExecBackend("aplay", "aplay", []string{"-q"}, ".wav")
}

// FFplay plays anything FFmpeg can decode, without a window.
func FFplay() *ExecBackend {
	return NewExecBackend("ffplay", "ffplay", []string{"-nodisp", "-autoexit", "-loglevel", "quiet"})
}
