package securestore

import "unicode/utf8"

// TextStore adapts an Engine to the UTF-8 string surface consumed by
// call-dispatch layers. The engine itself only ever sees raw bytes; text
// (en/de)coding failures belong to this boundary and are reported as
// ErrInvalidUTF8, distinct from every storage failure.
type TextStore struct {
	engine *Engine
}

// NewTextStore wraps an Engine.
func NewTextStore(engine *Engine) *TextStore {
	return &TextStore{engine: engine}
}

// Put stores text under key. The text must be valid UTF-8.
func (t *TextStore) Put(key, text string) error {
	if !utf8.ValidString(text) {
		return ErrInvalidUTF8
	}
	return t.engine.Put(key, []byte(text))
}

// Get returns the text stored under key, or ErrNotFound. Stored bytes
// that are not valid UTF-8 yield ErrInvalidUTF8.
func (t *TextStore) Get(key string) (string, error) {
	value, err := t.engine.Get(key)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(value) {
		return "", ErrInvalidUTF8
	}
	return string(value), nil
}

// Remove deletes the value stored under key; missing keys are not an
// error.
func (t *TextStore) Remove(key string) error {
	return t.engine.Remove(key)
}

// Clear deletes every value in the store.
func (t *TextStore) Clear() error {
	return t.engine.Clear()
}

// Keys returns the set of stored keys.
func (t *TextStore) Keys() ([]string, error) {
	return t.engine.Keys()
}
