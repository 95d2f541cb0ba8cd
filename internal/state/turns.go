package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// TurnEntry is one logical turn: a model response applied to the project.
type TurnEntry struct {
	ID         string    `json:"id"`
	Turn       int       `json:"turn"`
	Source     string    `json:"source"`
	Status     string    `json:"status"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end,omitempty"`
	Duration   string    `json:"duration,omitempty"`
	Changes    int       `json:"changes"`
	Skipped    int       `json:"skipped"`
	Created    []string  `json:"created,omitempty"`
	Updated    []string  `json:"updated,omitempty"`
	Checkpoint string    `json:"checkpoint,omitempty"`
}

// TurnLog is the append-only history kept in turns.json.
type TurnLog struct {
	mu      sync.Mutex
	Entries []TurnEntry `json:"entries"`
}

func turnsPath(dir string) string {
	return filepath.Join(dir, "turns.json")
}

// LoadTurns reads the turn log from dir.
func LoadTurns(dir string) (*TurnLog, error) {
	data, err := os.ReadFile(turnsPath(dir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &TurnLog{}, nil
		}
		return nil, err
	}
	var l TurnLog
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// Start appends an open entry for a turn.
func (l *TurnLog) Start(id string, turn int, source string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Entries = append(l.Entries, TurnEntry{
		ID:     id,
		Turn:   turn,
		Source: source,
		Status: StatusStreaming,
		Start:  time.Now(),
	})
}

// End closes the most recent open entry with the given id. update fills in
// the outcome.
func (l *TurnLog) End(id string, update func(*TurnEntry)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.Entries) - 1; i >= 0; i-- {
		e := &l.Entries[i]
		if e.ID == id && e.End.IsZero() {
			e.End = time.Now()
			e.Duration = formatDuration(e.End.Sub(e.Start))
			if update != nil {
				update(e)
			}
			break
		}
	}
}

// Last returns the most recent entry.
func (l *TurnLog) Last() (TurnEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.Entries) == 0 {
		return TurnEntry{}, false
	}
	return l.Entries[len(l.Entries)-1], true
}

// Flush writes the in-memory log to disk.
func (l *TurnLog) Flush(dir string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return err
	}
	return WriteFileAtomic(turnsPath(dir), data, 0644)
}

func formatDuration(d time.Duration) string {
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %02ds", m, s)
}
