package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
)

// JSONFile persists a single value of type T as an indented JSON document.
type JSONFile[T any] struct {
	mu       sync.RWMutex
	filePath string
}

// NewJSONFile creates dataDir if needed and returns a file handle for filename inside it.
func NewJSONFile[T any](dataDir, filename string) (*JSONFile[T], error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create data dir %s", dataDir)
	}
	return &JSONFile[T]{filePath: filepath.Join(dataDir, filename)}, nil
}

func (f *JSONFile[T]) Path() string {
	return f.filePath
}

// Load returns the zero value of T when the file does not exist yet.
func (f *JSONFile[T]) Load() (T, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var data T
	file, err := os.Open(f.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return data, nil
		}
		return data, errors.Wrapf(err, "open %s", f.filePath)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&data); err != nil {
		return data, errors.Wrapf(err, "decode %s", f.filePath)
	}
	return data, nil
}

// Save writes to a temp file and renames it over the target.
func (f *JSONFile[T]) Save(data T) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tempFile := f.filePath + ".tmp"
	file, err := os.Create(tempFile)
	if err != nil {
		return errors.Wrapf(err, "create %s", tempFile)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		file.Close()
		os.Remove(tempFile)
		return errors.Wrap(err, "encode json")
	}

	if err := file.Close(); err != nil {
		os.Remove(tempFile)
		return errors.Wrapf(err, "close %s", tempFile)
	}

	return errors.Wrap(os.Rename(tempFile, f.filePath), "rename json file")
}

func (f *JSONFile[T]) Exists() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	_, err := os.Stat(f.filePath)
	return err == nil
}
