package securestore

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path"
	"sort"
	"testing"

	"github.com/absfs/memfs"
)

func newTestFileStore(t *testing.T) *fileStore {
	t.Helper()

	fs, err := memfs.NewFS()
	if err != nil {
		t.Fatalf("failed to create memfs: %v", err)
	}
	store, err := newFileStore(fs, "/store")
	if err != nil {
		t.Fatalf("failed to create file store: %v", err)
	}
	return store
}

func (s *fileStore) writeBytes(t *testing.T, name string, data []byte) {
	t.Helper()
	err := s.write(name, func(w io.Writer) error {
		_, werr := w.Write(data)
		return werr
	})
	if err != nil {
		t.Fatalf("write %q failed: %v", name, err)
	}
}

func (s *fileStore) readBytes(t *testing.T, name string) []byte {
	t.Helper()
	f, err := s.open(name)
	if err != nil {
		t.Fatalf("open %q failed: %v", name, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("read %q failed: %v", name, err)
	}
	return data
}

func TestFileStoreWriteRead(t *testing.T) {
	store := newTestFileStore(t)
	name := EncodeKeyName("token")

	store.writeBytes(t, name, []byte("v1"))
	if got := store.readBytes(t, name); !bytes.Equal(got, []byte("v1")) {
		t.Errorf("got %q, want %q", got, "v1")
	}
}

func TestFileStoreOverwriteReplacesWholeValue(t *testing.T) {
	store := newTestFileStore(t)
	name := EncodeKeyName("token")

	store.writeBytes(t, name, bytes.Repeat([]byte("long"), 100))
	store.writeBytes(t, name, []byte("short"))

	if got := store.readBytes(t, name); !bytes.Equal(got, []byte("short")) {
		t.Errorf("overwrite left %q, want %q", got, "short")
	}
}

func TestFileStoreFailedWriteKeepsOldValue(t *testing.T) {
	store := newTestFileStore(t)
	name := EncodeKeyName("token")
	store.writeBytes(t, name, []byte("old"))

	fillErr := errors.New("fill failed")
	err := store.write(name, func(w io.Writer) error {
		w.Write([]byte("partial new"))
		return fillErr
	})
	if err != fillErr {
		t.Fatalf("write returned %v, want fill error", err)
	}

	// The failed write must not have touched the committed value or left a
	// temp file behind.
	if got := store.readBytes(t, name); !bytes.Equal(got, []byte("old")) {
		t.Errorf("failed write corrupted value: got %q", got)
	}
	names, err := store.readDirNames()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 {
		t.Errorf("directory has %d entries after failed write, want 1: %v", len(names), names)
	}
}

func TestFileStoreOpenMissing(t *testing.T) {
	store := newTestFileStore(t)
	if _, err := store.open(EncodeKeyName("absent")); err != ErrNotFound {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestFileStoreDeleteIdempotent(t *testing.T) {
	store := newTestFileStore(t)
	name := EncodeKeyName("token")
	store.writeBytes(t, name, []byte("v"))

	if err := store.delete(name); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := store.delete(name); err != nil {
		t.Errorf("second delete failed: %v", err)
	}
	if err := store.delete(EncodeKeyName("never existed")); err != nil {
		t.Errorf("delete of absent name failed: %v", err)
	}
}

func TestFileStoreListSkipsForeignEntries(t *testing.T) {
	store := newTestFileStore(t)

	keys := []string{"alpha", "beta", "gamma"}
	for _, key := range keys {
		store.writeBytes(t, EncodeKeyName(key), []byte(key))
	}

	// Entries the codec does not recognize are invisible to enumeration.
	if err := store.fs.MkdirAll(path.Join(store.dir, keystoreDirName), 0700); err != nil {
		t.Fatal(err)
	}
	store.writeBytes(t, tmpPrefix+"leftover", []byte("junk"))
	store.writeBytes(t, "notes.txt", []byte("junk"))

	got, err := store.list()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	sort.Strings(got)
	if len(got) != len(keys) {
		t.Fatalf("list returned %v, want %v", got, keys)
	}
	for i := range keys {
		if got[i] != keys[i] {
			t.Errorf("list[%d] = %q, want %q", i, got[i], keys[i])
		}
	}
}

func TestFileStoreDeleteAll(t *testing.T) {
	store := newTestFileStore(t)

	for _, key := range []string{"a", "b", "c"} {
		store.writeBytes(t, EncodeKeyName(key), []byte(key))
	}
	store.writeBytes(t, "notes.txt", []byte("keep me"))

	if err := store.deleteAll(); err != nil {
		t.Fatalf("deleteAll failed: %v", err)
	}

	keys, err := store.list()
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 0 {
		t.Errorf("keys remain after deleteAll: %v", keys)
	}

	// Bookkeeping files survive.
	if got := store.readBytes(t, "notes.txt"); !bytes.Equal(got, []byte("keep me")) {
		t.Error("deleteAll removed a non-store file")
	}

	// Clearing an already empty store is a no-op.
	if err := store.deleteAll(); err != nil {
		t.Errorf("deleteAll on empty store failed: %v", err)
	}
}

func TestWriteFileAtomicRoundTrip(t *testing.T) {
	fs, err := memfs.NewFS()
	if err != nil {
		t.Fatal(err)
	}
	if err := fs.MkdirAll("/keys", 0700); err != nil {
		t.Fatal(err)
	}

	data := []byte{1, 2, 3, 4}
	if err := writeFileAtomic(fs, "/keys", "master.key", data, 0600); err != nil {
		t.Fatalf("writeFileAtomic failed: %v", err)
	}

	got, err := readFileAll(fs, "/keys/master.key")
	if err != nil {
		t.Fatalf("readFileAll failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("got %v, want %v", got, data)
	}

	_, err = readFileAll(fs, "/keys/missing.key")
	if !os.IsNotExist(err) {
		t.Errorf("missing file returned %v, want not-exist", err)
	}
}
