package game

import (
	"errors"
	"os"

	"github.com/spf13/afero"
)

// FileStore holds photo bytes under stable filenames. The repository owns
// the lifecycle: it saves on upload and releases on overwrite, delete, and
// reaping.
type FileStore interface {
	Save(filename string, data []byte) error
	Open(filename string) ([]byte, error)
	Remove(filename string) error
}

// DirStore keeps photo files in a single directory of an afero filesystem,
// so tests can swap in an in-memory one.
type DirStore struct {
	fs  afero.Fs
	dir string
}

// NewDirStore returns a DirStore rooted at dir on fs, defaulting to the OS
// filesystem when fs is nil.
func NewDirStore(fs afero.Fs, dir string) *DirStore {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	return &DirStore{fs: fs, dir: dir}
}

func (s *DirStore) path(filename string) string {
	return s.dir + "/" + filename
}

func (s *DirStore) Save(filename string, data []byte) error {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}

	return afero.WriteFile(s.fs, s.path(filename), data, 0o644)
}

func (s *DirStore) Open(filename string) ([]byte, error) {
	return afero.ReadFile(s.fs, s.path(filename))
}

// Remove releases a photo's backing file. A missing file is not an error;
// the registry entry is authoritative, not the directory listing.
func (s *DirStore) Remove(filename string) error {
	err := s.fs.Remove(s.path(filename))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return err
}
