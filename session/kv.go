package session

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// ErrNotFound is returned by a KeyValueStore when the key holds no value.
var ErrNotFound = errors.New("key not found")

// KeyValueStore is the single durable slot the session layer persists
// through. Implementations are only ever used from one goroutine.
type KeyValueStore interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Remove(key string) error
}

// FileStore keeps one file per key under dir. Backed by an afero filesystem
// so tests can run against an in-memory one.
type FileStore struct {
	fs  afero.Fs
	dir string
}

// NewFileStore returns a FileStore rooted at dir on fs, defaulting to the
// OS filesystem when fs is nil.
func NewFileStore(fs afero.Fs, dir string) *FileStore {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	return &FileStore{fs: fs, dir: dir}
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileStore) Get(key string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return data, nil
}

func (s *FileStore) Set(key string, value []byte) error {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}

	return afero.WriteFile(s.fs, s.path(key), value, 0o644)
}

// Remove deletes the key's file. Removing an absent key is not an error.
func (s *FileStore) Remove(key string) error {
	err := s.fs.Remove(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return err
}
