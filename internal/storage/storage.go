// Package storage persists uploaded files under the upload root.
package storage

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/afero"
)

// Upload directories, relative to the upload root. Each is also served
// statically under the same name.
const (
	DirProfilePictures = "profile-pictures"
	DirArticleImages   = "article-images"
	DirArticleMedia    = "article-media"
)

// Dirs lists every upload directory.
var Dirs = []string{DirProfilePictures, DirArticleImages, DirArticleMedia}

// FileStore writes and reads uploads on an afero filesystem.
type FileStore struct {
	fs afero.Fs
}

func NewFileStore(fs afero.Fs) *FileStore {
	return &FileStore{fs: fs}
}

// NewOSFileStore roots the store at dir on the local disk.
func NewOSFileStore(dir string) *FileStore {
	return NewFileStore(afero.NewBasePathFs(afero.NewOsFs(), dir))
}

// Ext returns the extension of an uploaded file name including the dot,
// or "" when there is none.
func Ext(filename string) string {
	return filepath.Ext(filepath.Base(filename))
}

// Save writes r to dir/name, replacing any existing file. Writes are not
// atomic; a failed write may leave a partial file behind.
func (s *FileStore) Save(dir, name string, r io.Reader) (int64, error) {
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	f, err := s.fs.OpenFile(path.Join(dir, name), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open %s/%s: %w", dir, name, err)
	}
	n, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return n, fmt.Errorf("write %s/%s: %w", dir, name, err)
	}
	return n, nil
}

// Open returns a reader for dir/name.
func (s *FileStore) Open(dir, name string) (afero.File, error) {
	return s.fs.Open(path.Join(dir, name))
}

// Exists reports whether dir/name is present.
func (s *FileStore) Exists(dir, name string) bool {
	ok, err := afero.Exists(s.fs, path.Join(dir, name))
	return err == nil && ok
}

// EnsureDirs creates every upload directory.
func (s *FileStore) EnsureDirs() error {
	for _, dir := range Dirs {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create upload dir %s: %w", dir, err)
		}
	}
	return nil
}

// HTTPFS exposes dir for static serving.
func (s *FileStore) HTTPFS(dir string) http.FileSystem {
	return afero.NewHttpFs(afero.NewBasePathFs(s.fs, dir))
}
