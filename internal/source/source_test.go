package source

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText(t *testing.T) {
	got, emit := collect()
	require.NoError(t, Text{Body: "abc"}.Stream(context.Background(), emit))
	assert.Equal(t, "abc", got.String())
	assert.Equal(t, "text", Text{}.Name())

	calls := 0
	require.NoError(t, Text{}.Stream(context.Background(), func(string) { calls++ }))
	assert.Zero(t, calls, "empty body emits nothing")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Text{Body: "x"}.Stream(ctx, emit), context.Canceled)
}

func TestReader_StreamsEverything(t *testing.T) {
	body := strings.Repeat("<p>hello</p>\n", 1000)
	got, emit := collect()
	require.NoError(t, Reader{R: strings.NewReader(body)}.Stream(context.Background(), emit))
	assert.Equal(t, body, got.String())
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestReader_Error(t *testing.T) {
	err := Reader{R: failingReader{}}.Stream(context.Background(), func(string) {})
	assert.EqualError(t, err, "disk on fire")
}

func TestReader_CancelWhileBlocked(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- Reader{R: pr}.Stream(ctx, func(string) {}) }()
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
}

func TestClipboard(t *testing.T) {
	orig := readClipboard
	defer func() { readClipboard = orig }()

	readClipboard = func() (string, error) { return "<<<<<<< SEARCH\n", nil }
	got, emit := collect()
	require.NoError(t, Clipboard{}.Stream(context.Background(), emit))
	assert.Equal(t, "<<<<<<< SEARCH\n", got.String())

	readClipboard = func() (string, error) { return "  \n", nil }
	assert.ErrorIs(t, Clipboard{}.Stream(context.Background(), emit), ErrEmptyClipboard)

	readClipboard = func() (string, error) { return "", errors.New("no display") }
	assert.ErrorContains(t, Clipboard{}.Stream(context.Background(), emit), "reading clipboard: no display")
}

func TestFromInput(t *testing.T) {
	dir := t.TempDir()
	resp := filepath.Join(dir, "response.md")
	require.NoError(t, os.WriteFile(resp, []byte("body"), 0644))
	stdin, err := os.Open(resp)
	require.NoError(t, err)
	defer stdin.Close()

	src, err := FromInput(Input{Clipboard: true})
	require.NoError(t, err)
	assert.Equal(t, "clipboard", src.Name())

	_, err = FromInput(Input{Clipboard: true, Arg: resp})
	assert.Error(t, err)

	src, err = FromInput(Input{Arg: "-", Stdin: stdin})
	require.NoError(t, err)
	assert.Equal(t, "stdin", src.Name())

	src, err = FromInput(Input{Arg: "-", Stdin: stdin, StreamJSON: true})
	require.NoError(t, err)
	assert.IsType(t, &StreamJSON{}, src)

	src, err = FromInput(Input{Arg: resp})
	require.NoError(t, err)
	assert.Equal(t, "file:"+resp, src.Name())
	got, emit := collect()
	require.NoError(t, src.Stream(context.Background(), emit))
	assert.Equal(t, "body", got.String())

	_, err = FromInput(Input{Arg: filepath.Join(dir, "missing.md")})
	assert.Error(t, err)

	// A regular file on stdin counts as redirected input.
	src, err = FromInput(Input{Stdin: stdin})
	require.NoError(t, err)
	assert.Equal(t, "stdin", src.Name())
}
