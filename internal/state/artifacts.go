package state

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir creates the project state directory structure.
func EnsureDir(dir string) error {
	dirs := []string{
		dir,
		filepath.Join(dir, "responses"),
		filepath.Join(dir, "logs"),
		filepath.Join(dir, "checkpoints"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0755); err != nil {
			return fmt.Errorf("creating state dir %s: %w", d, err)
		}
	}
	return nil
}

// ResponsePath returns where the raw model response of a turn is kept.
func ResponsePath(dir string, turn int) string {
	return filepath.Join(dir, "responses", fmt.Sprintf("turn-%d.md", turn))
}

// CheckpointDir returns the checkpoint storage directory.
func CheckpointDir(dir string) string {
	return filepath.Join(dir, "checkpoints")
}

// LogDir returns the directory for generator and diagnostic logs.
func LogDir(dir string) string {
	return filepath.Join(dir, "logs")
}

// GeneratorLogPath returns the path for the raw generator output of a turn.
func GeneratorLogPath(dir string, turn int) string {
	return filepath.Join(dir, "logs", fmt.Sprintf("turn-%d.log", turn))
}

// WriteResponse saves the raw response text of a turn.
func WriteResponse(dir string, turn int, text string) error {
	return WriteFileAtomic(ResponsePath(dir, turn), []byte(text), 0644)
}

// ReadResponse loads the raw response text of a turn.
func ReadResponse(dir string, turn int) (string, error) {
	data, err := os.ReadFile(ResponsePath(dir, turn))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
