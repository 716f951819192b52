package securestore

import (
	"io"
	"os"
	"path"

	"github.com/absfs/absfs"
	"github.com/google/uuid"
)

// fileStore is the directory abstraction under the engine: one file per
// encoded key name, atomic replacement, idempotent deletion, enumeration
// through the key name codec.
type fileStore struct {
	fs  absfs.FileSystem
	dir string
}

const tmpPrefix = ".tmp-"

func newFileStore(fs absfs.FileSystem, dir string) (*fileStore, error) {
	if err := fs.MkdirAll(dir, 0700); err != nil {
		return nil, NewIOError("mkdir", dir, err)
	}
	return &fileStore{fs: fs, dir: dir}, nil
}

// write streams a new value into a temporary file in the store directory
// and atomically renames it over name. A crash mid-write leaves the
// previous value (or nothing) intact; a reader never observes a partial
// file.
func (s *fileStore) write(name string, fill func(io.Writer) error) error {
	target := path.Join(s.dir, name)
	tmp := path.Join(s.dir, tmpPrefix+uuid.NewString())

	f, err := s.fs.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return NewIOError("write", target, err)
	}

	if err := fill(f); err != nil {
		f.Close()
		s.fs.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		s.fs.Remove(tmp)
		return NewIOError("write", target, err)
	}
	if err := s.fs.Rename(tmp, target); err != nil {
		s.fs.Remove(tmp)
		return NewIOError("rename", target, err)
	}
	return nil
}

// open opens a stored value for reading. A missing file maps to
// ErrNotFound.
func (s *fileStore) open(name string) (absfs.File, error) {
	f, err := s.fs.OpenFile(path.Join(s.dir, name), os.O_RDONLY, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, NewIOError("read", path.Join(s.dir, name), err)
	}
	return f, nil
}

// delete removes a stored value. Deleting a missing file is success.
func (s *fileStore) delete(name string) error {
	err := s.fs.Remove(path.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return NewIOError("delete", path.Join(s.dir, name), err)
	}
	return nil
}

// list enumerates the directory and decodes each entry through the key
// name codec. Entries that do not decode - temp files, the keystore
// directory, unrelated bookkeeping - are skipped, not failed on.
func (s *fileStore) list() ([]string, error) {
	names, err := s.readDirNames()
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(names))
	for _, name := range names {
		key, err := DecodeKeyName(name)
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// deleteAll removes every stored value. Files that do not decode to a key
// are left alone. Idempotent on an empty store.
func (s *fileStore) deleteAll() error {
	names, err := s.readDirNames()
	if err != nil {
		return err
	}
	for _, name := range names {
		if _, err := DecodeKeyName(name); err != nil {
			continue
		}
		if err := s.delete(name); err != nil {
			return err
		}
	}
	return nil
}

func (s *fileStore) readDirNames() ([]string, error) {
	d, err := s.fs.OpenFile(s.dir, os.O_RDONLY, 0)
	if err != nil {
		return nil, NewIOError("list", s.dir, err)
	}
	defer d.Close()

	names, err := d.Readdirnames(-1)
	if err != nil && err != io.EOF {
		return nil, NewIOError("list", s.dir, err)
	}
	return names, nil
}

// readFileAll reads a whole file from fs. Missing-file errors pass through
// untranslated so callers can distinguish them.
func readFileAll(fs absfs.FileSystem, name string) ([]byte, error) {
	f, err := fs.OpenFile(name, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// writeFileAtomic writes data to dir/name via a temp file and rename.
func writeFileAtomic(fs absfs.FileSystem, dir, name string, data []byte, perm os.FileMode) error {
	tmp := path.Join(dir, tmpPrefix+uuid.NewString())
	f, err := fs.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		fs.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		fs.Remove(tmp)
		return err
	}
	if err := fs.Rename(tmp, path.Join(dir, name)); err != nil {
		fs.Remove(tmp)
		return err
	}
	return nil
}
