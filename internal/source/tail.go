package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Tail follows a file that something else is writing, emitting each newly
// appended piece. It watches the parent directory so the file may be created
// or replaced after Stream starts.
type Tail struct {
	Path     string
	Debounce time.Duration
	// FromEnd skips whatever the file already holds.
	FromEnd bool

	truncated bool
}

func (t *Tail) Name() string { return "tail:" + t.Path }

// Truncated reports whether Stream stopped because the file shrank, which
// means the writer started over.
func (t *Tail) Truncated() bool { return t.truncated }

// Stream runs until the context is done, the file shrinks or watching fails.
func (t *Tail) Stream(ctx context.Context, emit func(string)) error {
	path, err := filepath.Abs(t.Path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	t.truncated = false
	var offset int64
	if t.FromEnd {
		if fi, err := os.Stat(path); err == nil {
			offset = fi.Size()
		}
	}

	read := func() error {
		next, err := readFrom(path, offset, emit)
		if errors.Is(err, errTruncated) {
			t.truncated = true
			return nil
		}
		offset = next
		return err
	}

	if err := read(); err != nil || t.truncated {
		return err
	}

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			// Whatever landed since the last read still belongs to the turn.
			if err := read(); err != nil {
				return err
			}
			return ctx.Err()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			fire = time.After(t.Debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watching %s: %w", t.Path, err)

		case <-fire:
			fire = nil
			if err := read(); err != nil || t.truncated {
				return err
			}
		}
	}
}

var errTruncated = errors.New("file truncated")

// readFrom emits everything in path past offset and returns the new offset.
// A missing file is not an error; it may not have been written yet.
func readFrom(path string, offset int64, emit func(string)) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return offset, nil
		}
		return offset, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return offset, err
	}
	if fi.Size() < offset {
		return offset, errTruncated
	}
	if fi.Size() == offset {
		return offset, nil
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return offset, err
	}
	data, err := io.ReadAll(io.LimitReader(f, fi.Size()-offset))
	if err != nil {
		return offset, err
	}
	if len(data) > 0 {
		emit(string(data))
	}
	return offset + int64(len(data)), nil
}
