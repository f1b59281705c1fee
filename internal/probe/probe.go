// Package probe estimates the playback length of a sound file without
// playing it.
package probe

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/spf13/afero"
)

// ErrUnsupported is returned for formats no prober understands.
var ErrUnsupported = errors.New("unsupported format")

// MaxScanBytes bounds how much of an mp3 is scanned for frames. Longer
// files are estimated from the bitrate of that prefix.
const MaxScanBytes = 1 << 20

// Prober reports the expected duration of an audio file.
type Prober interface {
	Duration(path string) (time.Duration, error)
}

// FileProber probes mp3 and wav files read from fs.
type FileProber struct {
	fs afero.Fs
}

// New returns a FileProber over the OS filesystem.
func New() *FileProber {
	return NewFs(afero.NewOsFs())
}

// NewFs returns a FileProber over fs.
func NewFs(fs afero.Fs) *FileProber {
	return &FileProber{fs: fs}
}

// Duration returns the decoded length of path. Malformed files yield an
// error, including ones that make a decoder panic.
func (p *FileProber) Duration(path string) (d time.Duration, err error) {
	defer func() {
		if r := recover(); r != nil {
			d, err = 0, fmt.Errorf("decode %s: %v", filepath.Base(path), r)
		}
	}()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return p.mp3Duration(path)
	case ".wav":
		return p.wavDuration(path)
	default:
		return 0, ErrUnsupported
	}
}

func (p *FileProber) mp3Duration(path string) (time.Duration, error) {
	f, err := p.fs.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	size := info.Size()
	scanned := min(size, MaxScanBytes)

	// go-mp3 walks every frame of a seekable reader to compute Length.
	d, err := mp3.NewDecoder(io.NewSectionReader(f, 0, scanned))
	if err != nil {
		return 0, fmt.Errorf("decode mp3 header: %w", err)
	}
	// Length is in bytes of 16-bit stereo PCM.
	samples := d.Length() / 4
	if samples <= 0 || d.SampleRate() <= 0 {
		return 0, fmt.Errorf("mp3 length unknown")
	}
	length := time.Duration(samples) * time.Second / time.Duration(d.SampleRate())
	if scanned < size {
		length = time.Duration(float64(length) * float64(size) / float64(scanned))
	}
	return length, nil
}

func (p *FileProber) wavDuration(path string) (time.Duration, error) {
	f, err := p.fs.Open(path)
	if err != nil {
		return 0, err
	}

	s, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return 0, fmt.Errorf("decode wav header: %w", err)
	}
	defer s.Close()

	if format.SampleRate <= 0 {
		return 0, fmt.Errorf("decode wav header: invalid sample rate %d", format.SampleRate)
	}
	return format.SampleRate.D(s.Len()), nil
}
