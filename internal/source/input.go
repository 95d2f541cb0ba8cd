package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
)

var readClipboard = clipboard.ReadAll

// ErrEmptyClipboard is returned when the clipboard holds no text.
var ErrEmptyClipboard = errors.New("clipboard is empty")

// Clipboard reads a complete response from the system clipboard.
type Clipboard struct{}

func (Clipboard) Name() string { return "clipboard" }

func (Clipboard) Stream(ctx context.Context, emit func(string)) error {
	content, err := readClipboard()
	if err != nil {
		return fmt.Errorf("reading clipboard: %w", err)
	}
	if strings.TrimSpace(content) == "" {
		return ErrEmptyClipboard
	}
	return Text{Body: content}.Stream(ctx, emit)
}

// File streams a response saved on disk.
type File struct {
	Path       string
	StreamJSON bool
}

func (f File) Name() string { return "file:" + f.Path }

func (f File) Stream(ctx context.Context, emit func(string)) error {
	fh, err := os.Open(f.Path)
	if err != nil {
		return err
	}
	defer fh.Close()
	return wrap(f.Name(), fh, f.StreamJSON).Stream(ctx, emit)
}

// Input describes where the user asked the response to come from.
type Input struct {
	Arg        string // file path, "-" for stdin, or "" to decide
	Clipboard  bool
	StreamJSON bool
	Stdin      *os.File
}

// FromInput picks the source: the clipboard when asked for, the named file,
// stdin when it is "-" or piped, and the clipboard otherwise.
func FromInput(in Input) (Source, error) {
	if in.Clipboard {
		if in.Arg != "" {
			return nil, fmt.Errorf("cannot read from both clipboard and %q", in.Arg)
		}
		return Clipboard{}, nil
	}
	stdin := in.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	switch {
	case in.Arg == "-":
		return wrap("stdin", stdin, in.StreamJSON), nil
	case in.Arg != "":
		if _, err := os.Stat(in.Arg); err != nil {
			return nil, err
		}
		return File{Path: in.Arg, StreamJSON: in.StreamJSON}, nil
	case isPiped(stdin):
		return wrap("stdin", stdin, in.StreamJSON), nil
	default:
		return Clipboard{}, nil
	}
}

func wrap(label string, r io.Reader, streamJSON bool) Source {
	if streamJSON {
		return &StreamJSON{Label: label, R: r}
	}
	return Reader{Label: label, R: r}
}

func isPiped(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice == 0
}
