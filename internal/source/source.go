// Package source delivers model response text to a turn, chunk by chunk, from
// wherever it comes from: a file, stdin, the clipboard, a growing file on
// disk, or a generator process.
package source

import (
	"context"
	"errors"
	"io"
)

// Source streams response text. Stream calls emit with each chunk in order
// on the caller's goroutine and returns once the response is complete, the
// context is done or reading fails.
type Source interface {
	Stream(ctx context.Context, emit func(chunk string)) error
	// Name describes the source for the turn log, e.g. "stdin" or "file:a.md".
	Name() string
}

// Text is a complete response held in memory.
type Text struct {
	Label string
	Body  string
}

func (t Text) Name() string {
	if t.Label == "" {
		return "text"
	}
	return t.Label
}

func (t Text) Stream(ctx context.Context, emit func(string)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.Body != "" {
		emit(t.Body)
	}
	return nil
}

// Reader streams raw text from r as it is read.
type Reader struct {
	Label string
	R     io.Reader
}

func (r Reader) Name() string {
	if r.Label == "" {
		return "reader"
	}
	return r.Label
}

// Stream reads in a background goroutine so that a blocked read (stdin with
// no writer, for one) does not keep the turn from seeing cancellation.
func (r Reader) Stream(ctx context.Context, emit func(string)) error {
	chunks := make(chan string, 16)
	errc := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	go func() {
		defer close(chunks)
		buf := make([]byte, 4096)
		for {
			n, err := r.R.Read(buf)
			if n > 0 {
				select {
				case chunks <- string(buf[:n]):
				case <-done:
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					errc <- err
				}
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunk, ok := <-chunks:
			if !ok {
				select {
				case err := <-errc:
					return err
				default:
					return nil
				}
			}
			emit(chunk)
		}
	}
}
