package securestore

import (
	"bytes"
	"crypto/rand"
	"sync"
	"testing"
)

func newTestAsyncEngine(t *testing.T) *AsyncEngine {
	t.Helper()
	engine, _ := newTestEngine(t, nil)
	a := NewAsyncEngine(engine)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestAsyncRoundTrip(t *testing.T) {
	a := newTestAsyncEngine(t)

	if err := <-a.Put("token", []byte("v1")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	res := <-a.Get("token")
	if res.Err != nil {
		t.Fatalf("Get failed: %v", res.Err)
	}
	if !bytes.Equal(res.Value, []byte("v1")) {
		t.Errorf("got %q, want %q", res.Value, "v1")
	}
}

func TestAsyncOperationsSerializedInOrder(t *testing.T) {
	a := newTestAsyncEngine(t)

	// Queue a multi-chunk overwrite immediately followed by a read without
	// waiting in between. The read must observe either nothing or a complete
	// value, never a torn one, and with one worker it always sees the write
	// that was queued before it.
	big := make([]byte, 4*testChunkSize+21)
	rand.Read(big)

	putCh := a.Put("k", big)
	getCh := a.Get("k")

	if err := <-putCh; err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	res := <-getCh
	if res.Err != nil {
		t.Fatalf("Get failed: %v", res.Err)
	}
	if !bytes.Equal(res.Value, big) {
		t.Errorf("Get observed %d bytes, want %d", len(res.Value), len(big))
	}
}

func TestAsyncBackToBackOverwrites(t *testing.T) {
	a := newTestAsyncEngine(t)

	const rounds = 20
	var last <-chan error
	for i := 0; i < rounds; i++ {
		value := bytes.Repeat([]byte{byte(i)}, testChunkSize+i)
		last = a.Put("k", value)
	}
	if err := <-last; err != nil {
		t.Fatal(err)
	}

	res := <-a.Get("k")
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	want := bytes.Repeat([]byte{rounds - 1}, testChunkSize+rounds-1)
	if !bytes.Equal(res.Value, want) {
		t.Errorf("final value is not the last write: got %d bytes", len(res.Value))
	}
}

func TestAsyncRemoveClearKeys(t *testing.T) {
	a := newTestAsyncEngine(t)

	<-a.Put("a", []byte("1"))
	<-a.Put("b", []byte("2"))

	if err := <-a.Remove("a"); err != nil {
		t.Fatal(err)
	}
	res := <-a.Keys()
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if len(res.Keys) != 1 || res.Keys[0] != "b" {
		t.Errorf("Keys = %v, want [b]", res.Keys)
	}

	if err := <-a.Clear(); err != nil {
		t.Fatal(err)
	}
	res = <-a.Keys()
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if len(res.Keys) != 0 {
		t.Errorf("Keys after Clear = %v", res.Keys)
	}
}

func TestAsyncCloseDrainsQueue(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	a := NewAsyncEngine(engine)

	chs := make([]<-chan error, 0, 10)
	for i := 0; i < 10; i++ {
		chs = append(chs, a.Put("k", []byte{byte(i)}))
	}
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}

	// Everything queued before Close still completes.
	for i, ch := range chs {
		if err := <-ch; err != nil {
			t.Errorf("queued Put %d failed after Close: %v", i, err)
		}
	}

	// New work is refused.
	if err := <-a.Put("k", []byte("late")); err != ErrStoreClosed {
		t.Errorf("Put after Close = %v, want ErrStoreClosed", err)
	}
	res := <-a.Get("k")
	if res.Err != ErrStoreClosed {
		t.Errorf("Get after Close = %v, want ErrStoreClosed", res.Err)
	}

	// Close is idempotent.
	if err := a.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestAsyncConcurrentCallers(t *testing.T) {
	a := newTestAsyncEngine(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := string(rune('a' + n))
			if err := <-a.Put(key, []byte(key)); err != nil {
				t.Errorf("Put %q failed: %v", key, err)
				return
			}
			res := <-a.Get(key)
			if res.Err != nil {
				t.Errorf("Get %q failed: %v", key, res.Err)
			}
		}(i)
	}
	wg.Wait()

	res := <-a.Keys()
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if len(res.Keys) != 8 {
		t.Errorf("Keys has %d entries, want 8", len(res.Keys))
	}
}
