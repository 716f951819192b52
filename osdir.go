package securestore

import (
	"os"
	"path/filepath"
	"time"

	"github.com/absfs/absfs"
)

// DirFS is an absfs.FileSystem rooted at an OS directory. It is the
// filesystem real deployments hand to New; tests use memfs instead.
type DirFS struct {
	root string
	cwd  string
}

// NewDirFS creates a DirFS rooted at root, creating the directory if
// missing.
func NewDirFS(root string) (*DirFS, error) {
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, err
	}
	return &DirFS{root: root}, nil
}

func (fs *DirFS) path(name string) string {
	return filepath.Join(fs.root, name)
}

// OpenFile opens a file relative to the root, creating parent directories
// as needed.
func (fs *DirFS) OpenFile(name string, flag int, perm os.FileMode) (absfs.File, error) {
	path := fs.path(name)
	if flag&os.O_CREATE != 0 {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, err
		}
	}
	return os.OpenFile(path, flag, perm)
}

func (fs *DirFS) Open(name string) (absfs.File, error) {
	return fs.OpenFile(name, os.O_RDONLY, 0)
}

func (fs *DirFS) Create(name string) (absfs.File, error) {
	return fs.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
}

func (fs *DirFS) Mkdir(name string, perm os.FileMode) error {
	return os.Mkdir(fs.path(name), perm)
}

func (fs *DirFS) MkdirAll(name string, perm os.FileMode) error {
	return os.MkdirAll(fs.path(name), perm)
}

func (fs *DirFS) Remove(name string) error {
	return os.Remove(fs.path(name))
}

func (fs *DirFS) RemoveAll(path string) error {
	return os.RemoveAll(fs.path(path))
}

func (fs *DirFS) Rename(oldpath, newpath string) error {
	return os.Rename(fs.path(oldpath), fs.path(newpath))
}

func (fs *DirFS) Stat(name string) (os.FileInfo, error) {
	return os.Stat(fs.path(name))
}

func (fs *DirFS) Chmod(name string, mode os.FileMode) error {
	return os.Chmod(fs.path(name), mode)
}

func (fs *DirFS) Chtimes(name string, atime, mtime time.Time) error {
	return os.Chtimes(fs.path(name), atime, mtime)
}

func (fs *DirFS) Chown(name string, uid, gid int) error {
	return os.Chown(fs.path(name), uid, gid)
}

func (fs *DirFS) Truncate(name string, size int64) error {
	return os.Truncate(fs.path(name), size)
}

func (fs *DirFS) Separator() uint8 {
	return os.PathSeparator
}

func (fs *DirFS) ListSeparator() uint8 {
	return os.PathListSeparator
}

func (fs *DirFS) Chdir(dir string) error {
	fs.cwd = dir
	return nil
}

func (fs *DirFS) Getwd() (string, error) {
	if fs.cwd == "" {
		return "/", nil
	}
	return fs.cwd, nil
}

func (fs *DirFS) TempDir() string {
	return os.TempDir()
}
