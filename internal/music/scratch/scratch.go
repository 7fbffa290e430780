// Package scratch hands out per-track temporary directories. A Dir is released
// exactly once no matter how many exit paths try to release it.
package scratch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const dirPrefix = "yt_"

// Dir is a scratch directory owned by a single track playback.
type Dir struct {
	path string
	log  zerolog.Logger
	once sync.Once
	err  error
}

// New creates a fresh directory under parent. parent is created if missing.
func New(parent string, log zerolog.Logger) (*Dir, error) {
	if parent == "" {
		parent = os.TempDir()
	}
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch parent: %w", err)
	}
	path := filepath.Join(parent, dirPrefix+uuid.NewString())
	if err := os.Mkdir(path, 0o700); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	return &Dir{path: path, log: log}, nil
}

// Path returns the directory path.
func (d *Dir) Path() string { return d.path }

// Release removes the directory and everything in it. Safe to call many times.
func (d *Dir) Release() error {
	d.once.Do(func() {
		size := dirSize(d.path)
		d.err = os.RemoveAll(d.path)
		if d.err != nil {
			d.log.Warn().Err(d.err).Str("dir", d.path).Msg("failed to remove scratch dir")
			return
		}
		d.log.Debug().Str("dir", d.path).Str("freed", humanize.Bytes(uint64(size))).Msg("scratch dir released")
	})
	return d.err
}

func dirSize(root string) int64 {
	var total int64
	_ = filepath.WalkDir(root, func(_ string, e fs.DirEntry, err error) error {
		if err != nil || e.IsDir() {
			return nil
		}
		if info, err := e.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}
