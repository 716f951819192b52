package securestore

import "sync"

// AsyncEngine runs store operations on a dedicated worker so callers are
// never blocked on slow storage or on the key facility's unlock prompts.
// Operations are queued and executed strictly one at a time, in submission
// order; each call returns a result channel that delivers exactly once.
//
// There is no cancellation: an in-flight operation runs to completion or
// failure. A caller that loses interest simply abandons the channel.
type AsyncEngine struct {
	engine *Engine
	ops    chan func()
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// GetResult is the outcome of an asynchronous Get.
type GetResult struct {
	Value []byte
	Err   error
}

// KeysResult is the outcome of an asynchronous Keys.
type KeysResult struct {
	Keys []string
	Err  error
}

// NewAsyncEngine wraps engine with a single-worker operation queue.
func NewAsyncEngine(engine *Engine) *AsyncEngine {
	a := &AsyncEngine{
		engine: engine,
		ops:    make(chan func(), 64),
	}
	a.wg.Add(1)
	go a.run()
	return a
}

func (a *AsyncEngine) run() {
	defer a.wg.Done()
	for fn := range a.ops {
		fn()
	}
}

// submit queues fn unless the queue is closed.
func (a *AsyncEngine) submit(fn func()) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return false
	}
	a.ops <- fn
	return true
}

// Put queues a Put and returns its result channel.
func (a *AsyncEngine) Put(key string, value []byte) <-chan error {
	ch := make(chan error, 1)
	if !a.submit(func() { ch <- a.engine.Put(key, value) }) {
		ch <- ErrStoreClosed
	}
	return ch
}

// Get queues a Get and returns its result channel.
func (a *AsyncEngine) Get(key string) <-chan GetResult {
	ch := make(chan GetResult, 1)
	if !a.submit(func() {
		value, err := a.engine.Get(key)
		ch <- GetResult{Value: value, Err: err}
	}) {
		ch <- GetResult{Err: ErrStoreClosed}
	}
	return ch
}

// Remove queues a Remove and returns its result channel.
func (a *AsyncEngine) Remove(key string) <-chan error {
	ch := make(chan error, 1)
	if !a.submit(func() { ch <- a.engine.Remove(key) }) {
		ch <- ErrStoreClosed
	}
	return ch
}

// Clear queues a Clear and returns its result channel.
func (a *AsyncEngine) Clear() <-chan error {
	ch := make(chan error, 1)
	if !a.submit(func() { ch <- a.engine.Clear() }) {
		ch <- ErrStoreClosed
	}
	return ch
}

// Keys queues a Keys and returns its result channel.
func (a *AsyncEngine) Keys() <-chan KeysResult {
	ch := make(chan KeysResult, 1)
	if !a.submit(func() {
		keys, err := a.engine.Keys()
		ch <- KeysResult{Keys: keys, Err: err}
	}) {
		ch <- KeysResult{Err: ErrStoreClosed}
	}
	return ch
}

// Close stops accepting new operations, drains the queue, and waits for
// the worker to finish. Safe to call more than once.
func (a *AsyncEngine) Close() error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.ops)
	}
	a.mu.Unlock()
	a.wg.Wait()
	return nil
}
