package securestore

import (
	"os"
	"testing"
)

func newTestTextStore(t *testing.T) (*TextStore, *Engine) {
	t.Helper()
	engine, _ := newTestEngine(t, nil)
	return NewTextStore(engine), engine
}

func TestTextStoreRoundTrip(t *testing.T) {
	store, _ := newTestTextStore(t)

	tests := []struct {
		name  string
		value string
	}{
		{"ascii", "hello world"},
		{"empty", ""},
		{"multibyte", "пароль 密码 🔑"},
		{"newlines", "line1\nline2\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := store.Put(tt.name, tt.value); err != nil {
				t.Fatalf("Put failed: %v", err)
			}
			got, err := store.Get(tt.name)
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if got != tt.value {
				t.Errorf("got %q, want %q", got, tt.value)
			}
		})
	}
}

func TestTextStoreRejectsInvalidUTF8OnPut(t *testing.T) {
	store, _ := newTestTextStore(t)

	if err := store.Put("bad", string([]byte{0xff, 0xfe})); err != ErrInvalidUTF8 {
		t.Errorf("got %v, want ErrInvalidUTF8", err)
	}
	// The failed Put must not have stored anything.
	if _, err := store.Get("bad"); !IsNotFound(err) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestTextStoreInvalidUTF8OnGet(t *testing.T) {
	store, engine := newTestTextStore(t)

	// A byte-level writer can store arbitrary bytes under a key the text
	// boundary later reads. That is a text error, not a storage error.
	if err := engine.Put("binary", []byte{0x00, 0xff, 0x80}); err != nil {
		t.Fatal(err)
	}

	_, err := store.Get("binary")
	if err != ErrInvalidUTF8 {
		t.Errorf("got %v, want ErrInvalidUTF8", err)
	}
	if IsNotFound(err) || IsDecryptionFailed(err) {
		t.Error("text error must stay distinct from storage errors")
	}
}

func TestTextStoreMissingKeyDistinctFromTextError(t *testing.T) {
	store, _ := newTestTextStore(t)

	_, err := store.Get("absent")
	if !IsNotFound(err) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	if err == ErrInvalidUTF8 {
		t.Error("missing key reported as a text error")
	}
}

func TestTextStorePassthroughOperations(t *testing.T) {
	store, _ := newTestTextStore(t)

	if err := store.Put("a", "1"); err != nil {
		t.Fatal(err)
	}
	if err := store.Put("b", "2"); err != nil {
		t.Fatal(err)
	}

	keys, err := store.Keys()
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 {
		t.Errorf("Keys = %v, want 2 entries", keys)
	}

	if err := store.Remove("a"); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(); err != nil {
		t.Fatal(err)
	}
	keys, err = store.Keys()
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 0 {
		t.Errorf("Keys after Clear = %v", keys)
	}
}

func TestDirFSBackedStore(t *testing.T) {
	root, err := os.MkdirTemp("", "securestore-test-*")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(root) })

	fs, err := NewDirFS(root)
	if err != nil {
		t.Fatalf("NewDirFS failed: %v", err)
	}
	engine, err := New(&Config{
		FS:        fs,
		Dir:       "/",
		Namespace: "test",
		ChunkSize: testChunkSize,
	})
	if err != nil {
		t.Fatal(err)
	}
	store := NewTextStore(engine)

	if err := store.Put("token", "on real disk"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, err := store.Get("token")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "on real disk" {
		t.Errorf("got %q", got)
	}

	// Reopening over the same directory finds the key material and the
	// value again.
	fs2, err := NewDirFS(root)
	if err != nil {
		t.Fatal(err)
	}
	engine2, err := New(&Config{FS: fs2, Dir: "/", Namespace: "test", ChunkSize: testChunkSize})
	if err != nil {
		t.Fatal(err)
	}
	got, err = NewTextStore(engine2).Get("token")
	if err != nil {
		t.Fatalf("reopened Get failed: %v", err)
	}
	if got != "on real disk" {
		t.Errorf("reopened got %q", got)
	}
}
