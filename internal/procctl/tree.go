package procctl

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/afero"
)

// Tree enumerates processes by reading a procfs mount.
type Tree struct {
	fs   afero.Fs
	root string
}

// NewTree returns a Tree over the host's /proc.
func NewTree() *Tree {
	return NewTreeFs(afero.NewOsFs(), "/proc")
}

// NewTreeFs returns a Tree reading procfs from fs at root.
func NewTreeFs(fs afero.Fs, root string) *Tree {
	return &Tree{fs: fs, root: root}
}

// Descendants returns the pids of all transitive children of pid,
// parents before children.
func (t *Tree) Descendants(pid int) ([]int, error) {
	children, err := t.childMap()
	if err != nil {
		return nil, err
	}

	var out []int
	queue := []int{pid}
	seen := map[int]bool{pid: true}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, c := range children[cur] {
			if seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, c)
			queue = append(queue, c)
		}
	}
	return out, nil
}

func (t *Tree) childMap() (map[int][]int, error) {
	entries, err := afero.ReadDir(t.fs, t.root)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", t.root, err)
	}

	children := make(map[int][]int)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		// Processes may exit between ReadDir and ReadFile.
		data, err := afero.ReadFile(t.fs, filepath.Join(t.root, e.Name(), "stat"))
		if err != nil {
			continue
		}
		ppid, ok := parsePPID(data)
		if !ok {
			continue
		}
		children[ppid] = append(children[ppid], pid)
	}
	return children, nil
}

// parsePPID extracts the parent pid from a /proc/<pid>/stat line:
// "pid (comm) state ppid ...". comm may itself contain spaces and parens.
func parsePPID(stat []byte) (int, bool) {
	end := bytes.LastIndexByte(stat, ')')
	if end < 0 {
		return 0, false
	}
	fields := bytes.Fields(stat[end+1:])
	if len(fields) < 2 {
		return 0, false
	}
	ppid, err := strconv.Atoi(string(fields[1]))
	if err != nil {
		return 0, false
	}
	return ppid, true
}
