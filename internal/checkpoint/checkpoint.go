// Package checkpoint keeps pre-turn snapshots of the FileSet so a turn can
// be undone. File bodies live in a content-addressed pool of zstd blobs, so
// unchanged files cost nothing across checkpoints.
package checkpoint

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/jorge-barreto/sitepatch/internal/patch"
	"github.com/jorge-barreto/sitepatch/internal/state"
)

var ErrNotFound = errors.New("checkpoint not found")

// FileRef points a file path at a pooled blob.
type FileRef struct {
	Path string `json:"path"`
	Hash string `json:"hash"`
	Size int    `json:"size"`
}

// Checkpoint is the metadata of one snapshot.
type Checkpoint struct {
	ID          string    `json:"id"`
	Turn        int       `json:"turn"`
	Label       string    `json:"label,omitempty"`
	ProjectName string    `json:"project_name,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	Files       []FileRef `json:"files"`
}

// Storage reads and writes checkpoints under one directory.
type Storage struct {
	dir     string
	mu      sync.RWMutex
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewStorage opens checkpoint storage in dir with the given zstd level.
func NewStorage(dir string, level int) (*Storage, error) {
	if level <= 0 {
		level = 3
	}
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		return nil, fmt.Errorf("checkpoint: encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: decoder: %w", err)
	}
	return &Storage{dir: dir, encoder: encoder, decoder: decoder}, nil
}

func (s *Storage) poolDir() string {
	return filepath.Join(s.dir, "content_pool")
}

func (s *Storage) metaPath(id string) string {
	return filepath.Join(s.dir, id, "metadata.json")
}

// Save snapshots files. cp supplies the turn, label and project name; its ID
// and timestamp are filled in when empty.
func (s *Storage) Save(cp *Checkpoint, files *patch.FileSet) (*Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cp.ID == "" {
		cp.ID = GenerateID()
	}
	if cp.Timestamp.IsZero() {
		cp.Timestamp = time.Now()
	}
	if err := os.MkdirAll(s.poolDir(), 0755); err != nil {
		return nil, fmt.Errorf("checkpoint: %w", err)
	}

	cp.Files = cp.Files[:0]
	if files != nil {
		for _, f := range files.Files {
			hash := Hash(f.Content)
			blob := filepath.Join(s.poolDir(), hash)
			if _, err := os.Stat(blob); os.IsNotExist(err) {
				compressed := s.encoder.EncodeAll([]byte(f.Content), nil)
				if err := state.WriteFileAtomic(blob, compressed, 0644); err != nil {
					return nil, fmt.Errorf("checkpoint: writing %s: %w", f.Path, err)
				}
			}
			cp.Files = append(cp.Files, FileRef{Path: f.Path, Hash: hash, Size: len(f.Content)})
		}
	}

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("checkpoint: %w", err)
	}
	if err := state.WriteFileAtomic(s.metaPath(cp.ID), data, 0644); err != nil {
		return nil, fmt.Errorf("checkpoint: writing metadata: %w", err)
	}
	return cp, nil
}

// Load returns a checkpoint and the FileSet it captured.
func (s *Storage) Load(id string) (*Checkpoint, *patch.FileSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp, err := s.readMeta(id)
	if err != nil {
		return nil, nil, err
	}
	files := &patch.FileSet{}
	for _, ref := range cp.Files {
		compressed, err := os.ReadFile(filepath.Join(s.poolDir(), ref.Hash))
		if err != nil {
			return nil, nil, fmt.Errorf("checkpoint: reading %s: %w", ref.Path, err)
		}
		content, err := s.decoder.DecodeAll(compressed, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("checkpoint: decompressing %s: %w", ref.Path, err)
		}
		files.Put(ref.Path, string(content))
	}
	return cp, files, nil
}

func (s *Storage) readMeta(id string) (*Checkpoint, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	data, err := os.ReadFile(s.metaPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("checkpoint: %w", err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("checkpoint: parsing %s: %w", id, err)
	}
	return &cp, nil
}

// List returns all checkpoints, newest first.
func (s *Storage) List() ([]Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list()
}

func (s *Storage) list() ([]Checkpoint, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("checkpoint: %w", err)
	}
	var cps []Checkpoint
	for _, e := range entries {
		if !e.IsDir() || e.Name() == "content_pool" {
			continue
		}
		cp, err := s.readMeta(e.Name())
		if err != nil {
			continue
		}
		cps = append(cps, *cp)
	}
	sort.SliceStable(cps, func(i, j int) bool {
		if !cps[i].Timestamp.Equal(cps[j].Timestamp) {
			return cps[i].Timestamp.After(cps[j].Timestamp)
		}
		return cps[i].Turn > cps[j].Turn
	})
	return cps, nil
}

// Latest returns the newest checkpoint.
func (s *Storage) Latest() (*Checkpoint, error) {
	cps, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(cps) == 0 {
		return nil, ErrNotFound
	}
	return &cps[0], nil
}

// Resolve finds the checkpoint whose ID starts with prefix.
func (s *Storage) Resolve(prefix string) (*Checkpoint, error) {
	if prefix == "" {
		return nil, ErrNotFound
	}
	cps, err := s.List()
	if err != nil {
		return nil, err
	}
	var found *Checkpoint
	for i := range cps {
		if strings.HasPrefix(cps[i].ID, prefix) {
			if found != nil {
				return nil, fmt.Errorf("checkpoint: id prefix %q is ambiguous", prefix)
			}
			found = &cps[i]
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

// Delete removes a checkpoint and any pooled content no other checkpoint uses.
func (s *Storage) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.readMeta(id); err != nil {
		return err
	}
	if err := os.RemoveAll(filepath.Join(s.dir, id)); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	return s.collect()
}

// Prune keeps the newest keep checkpoints and deletes the rest. keep <= 0
// keeps everything. It returns the deleted IDs.
func (s *Storage) Prune(keep int) ([]string, error) {
	if keep <= 0 {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cps, err := s.list()
	if err != nil || len(cps) <= keep {
		return nil, err
	}
	var deleted []string
	for _, cp := range cps[keep:] {
		if err := os.RemoveAll(filepath.Join(s.dir, cp.ID)); err != nil {
			return deleted, fmt.Errorf("checkpoint: %w", err)
		}
		deleted = append(deleted, cp.ID)
	}
	return deleted, s.collect()
}

// collect removes pool blobs that no checkpoint references.
func (s *Storage) collect() error {
	cps, err := s.list()
	if err != nil {
		return err
	}
	used := make(map[string]bool)
	for _, cp := range cps {
		for _, ref := range cp.Files {
			used[ref.Hash] = true
		}
	}
	entries, err := os.ReadDir(s.poolDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("checkpoint: %w", err)
	}
	for _, e := range entries {
		if !used[e.Name()] {
			if err := os.Remove(filepath.Join(s.poolDir(), e.Name())); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("checkpoint: %w", err)
			}
		}
	}
	return nil
}

// GenerateID generates a new checkpoint ID.
func GenerateID() string {
	return uuid.New().String()
}

// Hash returns the SHA-256 of content in hex.
func Hash(content string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(content)))
}
