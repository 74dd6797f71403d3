// Package draft persists a half-edited schedule form across restarts, so
// closing the app mid-edit does not lose the entered fields.
package draft

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/hogarlabs/domoctl/internal/model"
)

// Store is the draft persistence port. Load returns ok=false when no draft
// exists; Clear on a missing draft is a no-op.
type Store interface {
	Load() (model.Schedule, bool, error)
	Save(model.Schedule) error
	Clear() error
}

// FileStore keeps the draft as a JSON file. An empty path disables
// persistence entirely: saves succeed and loads find nothing.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: strings.TrimSpace(path)}
}

func (s *FileStore) Load() (model.Schedule, bool, error) {
	if s.path == "" {
		return model.Schedule{}, false, nil
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.Schedule{}, false, nil
		}
		return model.Schedule{}, false, err
	}
	if strings.TrimSpace(string(raw)) == "" {
		return model.Schedule{}, false, nil
	}
	var out model.Schedule
	if err := json.Unmarshal(raw, &out); err != nil {
		return model.Schedule{}, false, err
	}
	return out, true, nil
}

func (s *FileStore) Save(in model.Schedule) error {
	if s.path == "" {
		return nil
	}
	dir := filepath.Dir(s.path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	payload, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append(payload, '\n'), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) Clear() error {
	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
