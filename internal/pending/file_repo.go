package pending

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Repository persists pending actions keyed by session key.
type Repository interface {
	Load(key string) (Action, bool, error)
	Upsert(key string, action Action) error
	Remove(key string) error
}

type record struct {
	SessionKey string `json:"session_key"`
	Action
}

type FileRepository struct {
	path string
	mu   sync.Mutex
}

var _ Repository = (*FileRepository)(nil)

func NewFileRepository(path string) (*FileRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("touch file: %w", err)
	}
	_ = f.Close()
	return &FileRepository{path: path}, nil
}

func (r *FileRepository) Load(key string) (Action, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	records, err := r.loadUnlocked()
	if err != nil {
		return Action{}, false, err
	}
	for _, rec := range records {
		if rec.SessionKey == key {
			return rec.Action, true, nil
		}
	}
	return Action{}, false, nil
}

func (r *FileRepository) Upsert(key string, action Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	records, err := r.loadUnlocked()
	if err != nil {
		return err
	}
	updated := false
	for i, rec := range records {
		if rec.SessionKey == key {
			records[i].Action = action
			updated = true
			break
		}
	}
	if !updated {
		records = append(records, record{SessionKey: key, Action: action})
	}
	return r.saveUnlocked(records)
}

func (r *FileRepository) Remove(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	records, err := r.loadUnlocked()
	if err != nil {
		return err
	}
	out := make([]record, 0, len(records))
	for _, rec := range records {
		if rec.SessionKey != key {
			out = append(out, rec)
		}
	}
	return r.saveUnlocked(out)
}

func (r *FileRepository) loadUnlocked() ([]record, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)
	var records []record
	if err := json.NewDecoder(f).Decode(&records); err != nil {
		if err == io.EOF {
			return []record{}, nil
		}
		return nil, fmt.Errorf("decode: %w", err)
	}
	return records, nil
}

func (r *FileRepository) saveUnlocked(records []record) error {
	f, err := os.OpenFile(r.path, os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open write: %w", err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}
