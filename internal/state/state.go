package state

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

const (
	StatusIdle        = "idle"
	StatusStreaming   = "streaming"
	StatusCompleted   = "completed"
	StatusInterrupted = "interrupted"
	StatusFailed      = "failed"
)

// State is the project-wide record kept in .sitepatch/state.json.
type State struct {
	ProjectName string    `json:"project_name,omitempty"`
	Turn        int       `json:"turn"`
	LastTurnID  string    `json:"last_turn_id,omitempty"`
	Status      string    `json:"status"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

func statePath(dir string) string {
	return filepath.Join(dir, "state.json")
}

// Load reads the state from dir. Returns an idle state if none was saved yet.
func Load(dir string) (*State, error) {
	data, err := os.ReadFile(statePath(dir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &State{Status: StatusIdle}, nil
		}
		return nil, err
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Save writes the state to dir.
func (s *State) Save(dir string) error {
	s.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return WriteFileAtomic(statePath(dir), data, 0644)
}

// BeginTurn advances the turn counter and marks the project as streaming.
func (s *State) BeginTurn(id string) {
	s.Turn++
	s.LastTurnID = id
	s.Status = StatusStreaming
}

// Finish records how the current turn ended.
func (s *State) Finish(status string) {
	s.Status = status
}

// SetProjectName keeps the previous name when name is empty.
func (s *State) SetProjectName(name string) {
	if name != "" {
		s.ProjectName = name
	}
}
