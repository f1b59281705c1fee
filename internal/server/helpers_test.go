package server

import (
	"bufio"
	"bytes"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"prop-sound/internal/sound"
	"prop-sound/internal/sound/soundtest"
)

func newTestService(t *testing.T) (*sound.Service, *soundtest.Spawner, *soundtest.Controller) {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/sounds/a.mp3", []byte("ID3 fake"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fs, "/sounds/b.mp3", []byte("ID3 fake"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fs, "/sounds/empty.mp3", nil, 0o644); err != nil {
		t.Fatal(err)
	}

	sp := soundtest.NewSpawner()
	ctl := soundtest.NewController(sp)
	svc := sound.NewService(sound.Config{GracePeriod: 50 * time.Millisecond, Fs: fs}, sp, ctl, zerolog.Nop())
	return svc, sp, ctl
}

func fixedID() string { return "legacy-test" }

// syncBuffer is safe for the concurrent writes of dispatcher and watchers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) lines(t *testing.T) []map[string]any {
	t.Helper()
	b.mu.Lock()
	data := append([]byte(nil), b.buf.Bytes()...)
	b.mu.Unlock()

	var out []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("invalid JSON line %q: %v", sc.Text(), err)
		}
		out = append(out, m)
	}
	return out
}

// waitLines polls until at least n lines were written.
func (b *syncBuffer) waitLines(t *testing.T, n int) []map[string]any {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		lines := b.lines(t)
		if len(lines) >= n {
			return lines
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected %d lines, got %d: %v", n, len(lines), lines)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
